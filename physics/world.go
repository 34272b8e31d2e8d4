// Package physics simulates arbor rigid bodies with Box2D.
//
// World implements arbor.Physics. Bodies are built from a GameObject's
// RigidBody and collider components when the object is added, stepped on a
// fixed timestep, and their poses are written back into the objects'
// transforms after every Step.
package physics

import (
	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/phanxgames/arbor"
	"go.uber.org/zap"
)

// Defaults used for zero Config fields.
const (
	DefaultTimeStep           = 1.0 / 60
	DefaultVelocityIterations = 16
	DefaultPositionIterations = 6
)

// Config tunes the solver. Y grows downward, so positive gravity pulls down.
type Config struct {
	Gravity            mgl64.Vec2
	TimeStep           float64
	VelocityIterations int
	PositionIterations int
	// MaxSubSteps bounds solver steps per Step call; leftover time is
	// dropped. Zero means unbounded.
	MaxSubSteps int
}

// DefaultConfig returns earth-like gravity and the default cadence.
func DefaultConfig() Config {
	return Config{
		Gravity:            mgl64.Vec2{0, 9.8},
		TimeStep:           DefaultTimeStep,
		VelocityIterations: DefaultVelocityIterations,
		PositionIterations: DefaultPositionIterations,
	}
}

// World owns a Box2D world and the bodies created for arbor objects.
type World struct {
	cfg    Config
	log    *zap.Logger
	world  box2d.B2World
	bodies map[*arbor.GameObject]*box2d.B2Body

	acc   float64
	steps int
}

var _ arbor.Physics = (*World)(nil)

// New creates an empty world.
func New(cfg Config, log *zap.Logger) *World {
	if cfg.TimeStep <= 0 {
		cfg.TimeStep = DefaultTimeStep
	}
	if cfg.VelocityIterations <= 0 {
		cfg.VelocityIterations = DefaultVelocityIterations
	}
	if cfg.PositionIterations <= 0 {
		cfg.PositionIterations = DefaultPositionIterations
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &World{
		cfg:    cfg,
		log:    log.Named("physics"),
		world:  box2d.MakeB2World(box2d.MakeB2Vec2(cfg.Gravity.X(), cfg.Gravity.Y())),
		bodies: make(map[*arbor.GameObject]*box2d.B2Body),
	}
}

// Add creates a body for g when it carries a RigidBody that has no handle
// yet. Objects without a RigidBody are ignored.
func (w *World) Add(g *arbor.GameObject) {
	rb, ok := arbor.ComponentAs[*arbor.RigidBody](g, arbor.KindRigidBody)
	if !ok || rb.Handle() != nil {
		return
	}

	def := box2d.MakeB2BodyDef()
	def.Type = bodyType(rb.Type)
	def.Position = box2d.MakeB2Vec2(g.Transform.Position.X(), g.Transform.Position.Y())
	def.Angle = g.Transform.Rotation
	def.LinearVelocity = box2d.MakeB2Vec2(rb.Velocity.X(), rb.Velocity.Y())
	def.LinearDamping = rb.LinearDamping
	def.AngularDamping = rb.AngularDamping
	def.FixedRotation = rb.FixedRotation
	def.Bullet = rb.ContinuousCollision
	def.GravityScale = rb.GravityScale
	def.UserData = g.ID

	body := w.world.CreateBody(&def)
	fixtures := Fixtures(g)
	for _, f := range fixtures {
		w.attach(body, rb, f)
	}
	rb.SetHandle(body)
	w.bodies[g] = body

	w.log.Debug("body created",
		zap.Uint32("id", g.ID),
		zap.String("name", g.Name),
		zap.Stringer("type", rb.Type),
		zap.Int("fixtures", len(fixtures)),
	)
}

func (w *World) attach(body *box2d.B2Body, rb *arbor.RigidBody, f Fixture) {
	def := box2d.MakeB2FixtureDef()
	def.Density = rb.Density
	def.Friction = rb.Friction
	def.Restitution = rb.Restitution

	switch f.Shape {
	case ShapeCircle:
		shape := box2d.MakeB2CircleShape()
		shape.M_radius = f.Radius
		shape.M_p = box2d.MakeB2Vec2(f.Offset.X(), f.Offset.Y())
		def.Shape = &shape
	case ShapeBox:
		shape := box2d.MakeB2PolygonShape()
		shape.SetAsBoxFromCenterAndAngle(f.HalfSize.X(), f.HalfSize.Y(),
			box2d.MakeB2Vec2(f.Offset.X(), f.Offset.Y()), 0)
		def.Shape = &shape
	}
	body.CreateFixtureFromDef(&def)
}

func bodyType(t arbor.BodyType) uint8 {
	switch t {
	case arbor.BodyDynamic:
		return box2d.B2BodyType.B2_dynamicBody
	case arbor.BodyKinematic:
		return box2d.B2BodyType.B2_kinematicBody
	default:
		return box2d.B2BodyType.B2_staticBody
	}
}

// Destroy frees g's body and clears its handle. No-op without a body.
func (w *World) Destroy(g *arbor.GameObject) {
	body, ok := w.bodies[g]
	if !ok {
		return
	}
	delete(w.bodies, g)
	w.world.DestroyBody(body)
	if rb, ok := arbor.ComponentAs[*arbor.RigidBody](g, arbor.KindRigidBody); ok {
		rb.SetHandle(nil)
	}
}

// Step accumulates dt and advances the solver in fixed steps while at least
// one full step is banked, then writes body poses back to the transforms.
func (w *World) Step(dt float64) {
	if dt > 0 {
		w.acc += dt
	}
	n := 0
	for w.acc >= w.cfg.TimeStep {
		if w.cfg.MaxSubSteps > 0 && n == w.cfg.MaxSubSteps {
			w.log.Debug("physics fell behind, dropping time", zap.Float64("dropped", w.acc))
			w.acc = 0
			break
		}
		w.world.Step(w.cfg.TimeStep, w.cfg.VelocityIterations, w.cfg.PositionIterations)
		w.acc -= w.cfg.TimeStep
		n++
	}
	w.steps += n
	if n > 0 {
		w.sync()
	}
}

// sync copies body poses into transforms. Static bodies never move.
func (w *World) sync() {
	for g, body := range w.bodies {
		if body.GetType() == box2d.B2BodyType.B2_staticBody {
			continue
		}
		p := body.GetPosition()
		g.Transform.Position = mgl64.Vec2{p.X, p.Y}
		g.Transform.Rotation = body.GetAngle()
		if rb, ok := arbor.ComponentAs[*arbor.RigidBody](g, arbor.KindRigidBody); ok {
			v := body.GetLinearVelocity()
			rb.Velocity = mgl64.Vec2{v.X, v.Y}
		}
	}
}

// Steps returns the number of solver steps taken so far.
func (w *World) Steps() int { return w.steps }

// Accumulated returns the banked time not yet simulated.
func (w *World) Accumulated() float64 { return w.acc }

// BodyCount returns the number of live bodies.
func (w *World) BodyCount() int { return len(w.bodies) }

// Body returns g's native body, or nil.
func (w *World) Body(g *arbor.GameObject) *box2d.B2Body { return w.bodies[g] }

// Clear destroys every body.
func (w *World) Clear() {
	for g := range w.bodies {
		w.Destroy(g)
	}
	w.acc = 0
}
