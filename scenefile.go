package arbor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// SceneFormatVersion is written into every saved scene.
const SceneFormatVersion = 1

// SceneFile is the JSON form of a scene. Groups are not persisted; loaded
// objects all land in the root group.
type SceneFile struct {
	Version int           `json:"version,omitempty"`
	Objects []SceneObject `json:"objects"`
}

// SceneObject is one persisted object. IsColor selects between the Texture
// path and the flat Color; an object with neither carries no sprite.
type SceneObject struct {
	Name     string    `json:"name"`
	Position sceneVec2 `json:"position"`
	Scale    sceneVec2 `json:"scale"`
	Texture  string    `json:"texture,omitempty"`
	Color    sceneRGBA `json:"color"`
	IsColor  bool      `json:"isColor"`

	ZIndex    int     `json:"zIndex,omitempty"`
	Rotation  float64 `json:"rotation,omitempty"`
	Roundness float64 `json:"roundness,omitempty"`

	Shape     *SceneShape     `json:"shape,omitempty"`
	Body      *SceneBody      `json:"body,omitempty"`
	Colliders []SceneCollider `json:"colliders,omitempty"`
	Script    string          `json:"script,omitempty"`
}

// SceneShape persists a ShapeRenderer.
type SceneShape struct {
	Kind      string  `json:"kind"`
	Roundness float64 `json:"roundness,omitempty"`
}

// SceneBody persists a RigidBody.
type SceneBody struct {
	Type                string    `json:"type"`
	LinearDamping       float64   `json:"linearDamping,omitempty"`
	AngularDamping      float64   `json:"angularDamping,omitempty"`
	FixedRotation       bool      `json:"fixedRotation,omitempty"`
	ContinuousCollision bool      `json:"continuousCollision,omitempty"`
	GravityScale        float64   `json:"gravityScale"`
	Density             float64   `json:"density"`
	Friction            float64   `json:"friction"`
	Restitution         float64   `json:"restitution,omitempty"`
	Velocity            sceneVec2 `json:"velocity"`
}

// SceneCollider persists one collider. Type is "circle", "box" or "capsule".
type SceneCollider struct {
	Type     string    `json:"type"`
	Radius   float64   `json:"radius,omitempty"`
	Height   float64   `json:"height,omitempty"`
	HalfSize sceneVec2 `json:"halfSize"`
	Offset   sceneVec2 `json:"offset"`
}

type sceneVec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func toSceneVec2(v mgl64.Vec2) sceneVec2 { return sceneVec2{X: v.X(), Y: v.Y()} }

func (v sceneVec2) vec() mgl64.Vec2 { return mgl64.Vec2{v.X, v.Y} }

type sceneRGBA struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// WriteScene encodes f as indented JSON.
func WriteScene(w io.Writer, f *SceneFile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return nil
}

// ReadScene decodes a scene from r.
func ReadScene(r io.Reader) (*SceneFile, error) {
	var f SceneFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return &f, nil
}

// Scene captures the view's objects in arena order.
func (v *View) Scene() *SceneFile {
	f := &SceneFile{Version: SceneFormatVersion, Objects: make([]SceneObject, 0, len(v.objects))}
	for _, g := range v.objects {
		f.Objects = append(f.Objects, encodeObject(g))
	}
	return f
}

func encodeObject(g *GameObject) SceneObject {
	t := g.Transform
	so := SceneObject{
		Name:      g.Name,
		Position:  toSceneVec2(t.Position),
		Scale:     toSceneVec2(t.Scale),
		ZIndex:    g.zIndex,
		Rotation:  t.Rotation,
		Roundness: t.Roundness(),
	}
	if sr := g.SpriteRenderer(); sr != nil {
		c := sr.Color()
		so.Color = sceneRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
		if tex := sr.Texture(); tex != nil {
			so.Texture = tex.Path
		} else {
			so.IsColor = true
		}
	}
	for _, c := range g.components {
		switch v := c.(type) {
		case *ShapeRenderer:
			so.Shape = &SceneShape{Kind: strings.ToLower(v.shape.String()), Roundness: v.roundness}
		case *RigidBody:
			so.Body = &SceneBody{
				Type:                strings.ToLower(v.Type.String()),
				LinearDamping:       v.LinearDamping,
				AngularDamping:      v.AngularDamping,
				FixedRotation:       v.FixedRotation,
				ContinuousCollision: v.ContinuousCollision,
				GravityScale:        v.GravityScale,
				Density:             v.Density,
				Friction:            v.Friction,
				Restitution:         v.Restitution,
				Velocity:            toSceneVec2(v.Velocity),
			}
		case *CircleCollider:
			so.Colliders = append(so.Colliders, SceneCollider{Type: "circle", Radius: v.Radius, Offset: toSceneVec2(v.Offset)})
		case *BoxCollider:
			so.Colliders = append(so.Colliders, SceneCollider{Type: "box", HalfSize: toSceneVec2(v.HalfSize), Offset: toSceneVec2(v.Offset)})
		case *CapsuleCollider:
			so.Colliders = append(so.Colliders, SceneCollider{Type: "capsule", Radius: v.Radius, Height: v.Height, Offset: toSceneVec2(v.Offset)})
		case *ScriptComponent:
			so.Script = v.Name
		}
	}
	return so
}

// Populate creates objects from f and inserts them into the root group.
// Textures are resolved through the view's asset registry; a texture that
// fails to load is reported and drawn as a placeholder. The view is left
// unchanged when f is malformed.
func (v *View) Populate(f *SceneFile) error {
	objs, err := v.decodeScene(f)
	if err != nil {
		return err
	}
	v.insertAll(objs)
	return nil
}

func (v *View) decodeScene(f *SceneFile) ([]*GameObject, error) {
	objs := make([]*GameObject, 0, len(f.Objects))
	for i, so := range f.Objects {
		g, err := v.decodeObject(so)
		if err != nil {
			return nil, fmt.Errorf("scene object %d (%s): %w", i, so.Name, err)
		}
		objs = append(objs, g)
	}
	return objs, nil
}

func (v *View) insertAll(objs []*GameObject) {
	for _, g := range objs {
		g.ID = v.ids.Next()
		v.InsertObject(g, nil)
	}
}

func (v *View) decodeObject(so SceneObject) (*GameObject, error) {
	t := NewTransform(so.Position.vec(), so.Scale.vec())
	t.Rotation = so.Rotation
	t.SetRoundness(so.Roundness)
	g := NewGameObject(0, so.Name, t, so.ZIndex)

	c := Color{R: so.Color.R, G: so.Color.G, B: so.Color.B, A: so.Color.A}
	switch {
	case so.IsColor:
		g.AddComponent(NewColorSprite(c))
	case so.Texture != "":
		sr := NewSpriteRenderer(v.assets.Texture(so.Texture))
		if c != (Color{}) {
			sr.color = c
		}
		g.AddComponent(sr)
	}

	if so.Shape != nil {
		if g.SpriteRenderer() == nil {
			return nil, fmt.Errorf("shape %q without a sprite", so.Shape.Kind)
		}
		kind, err := parseShapeKind(so.Shape.Kind)
		if err != nil {
			return nil, err
		}
		NewShapeRenderer(g, kind, so.Shape.Roundness)
	}
	if so.Body != nil {
		typ, err := parseBodyType(so.Body.Type)
		if err != nil {
			return nil, err
		}
		rb := NewRigidBody(typ)
		rb.LinearDamping = so.Body.LinearDamping
		rb.AngularDamping = so.Body.AngularDamping
		rb.FixedRotation = so.Body.FixedRotation
		rb.ContinuousCollision = so.Body.ContinuousCollision
		rb.GravityScale = so.Body.GravityScale
		rb.Density = so.Body.Density
		rb.Friction = so.Body.Friction
		rb.Restitution = so.Body.Restitution
		rb.Velocity = so.Body.Velocity.vec()
		g.AddComponent(rb)
	}
	for _, sc := range so.Colliders {
		switch sc.Type {
		case "circle":
			g.AddComponent(&CircleCollider{Radius: sc.Radius, Offset: sc.Offset.vec()})
		case "box":
			g.AddComponent(&BoxCollider{HalfSize: sc.HalfSize.vec(), Offset: sc.Offset.vec()})
		case "capsule":
			g.AddComponent(&CapsuleCollider{Radius: sc.Radius, Height: sc.Height, Offset: sc.Offset.vec()})
		default:
			return nil, fmt.Errorf("unknown collider type %q", sc.Type)
		}
	}
	if so.Script != "" {
		g.AddComponent(NewScriptComponent(v.scriptDir, so.Script))
	}
	return g, nil
}

func parseBodyType(s string) (BodyType, error) {
	switch strings.ToLower(s) {
	case "static", "":
		return BodyStatic, nil
	case "dynamic":
		return BodyDynamic, nil
	case "kinematic":
		return BodyKinematic, nil
	}
	return BodyStatic, fmt.Errorf("unknown body type %q", s)
}

func parseShapeKind(s string) (ShapeKind, error) {
	switch strings.ToLower(s) {
	case "rectangle", "":
		return ShapeRectangle, nil
	case "rounded":
		return ShapeRounded, nil
	case "circle":
		return ShapeCircle, nil
	}
	return ShapeRectangle, fmt.Errorf("unknown shape %q", s)
}

// SaveScene writes the view's objects to path, creating parent directories.
func (v *View) SaveScene(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save scene %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save scene %s: %w", path, err)
	}
	if err := WriteScene(f, v.Scene()); err != nil {
		f.Close()
		return fmt.Errorf("save scene %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save scene %s: %w", path, err)
	}
	v.log.Info("scene saved", zap.String("path", path), zap.Int("objects", len(v.objects)))
	v.events.Publish(Event{Kind: EventSceneSaved, Subject: path})
	return nil
}

// LoadScene replaces the view's contents with the scene at path. On error the
// view is left untouched.
func (v *View) LoadScene(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load scene %s: %w", path, err)
	}
	defer f.Close()
	sf, err := ReadScene(f)
	if err != nil {
		return fmt.Errorf("load scene %s: %w", path, err)
	}
	// Decode everything before clearing so a malformed file leaves the view as is.
	objs, err := v.decodeScene(sf)
	if err != nil {
		return fmt.Errorf("load scene %s: %w", path, err)
	}
	if v.playing {
		v.Stop()
	}
	v.Clear()
	v.insertAll(objs)
	v.log.Info("scene loaded", zap.String("path", path), zap.Int("objects", len(objs)))
	v.events.Publish(Event{Kind: EventSceneLoaded, Subject: path})
	return nil
}
