package arbor

// ShapeKind selects the outline a ShapeRenderer gives its sprite.
type ShapeKind uint8

const (
	ShapeRectangle ShapeKind = iota // square corners
	ShapeRounded                    // corners rounded by Roundness
	ShapeCircle                     // fully rounded (roundness 0.5)
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeRectangle:
		return "Rectangle"
	case ShapeRounded:
		return "Rounded"
	case ShapeCircle:
		return "Circle"
	default:
		return "Unknown"
	}
}

// ShapeRenderer styles the owner's SpriteRenderer as a rectangle, rounded
// rectangle or circle by driving the transform's corner roundness. It cannot
// exist without a SpriteRenderer on the same object.
type ShapeRenderer struct {
	BaseComponent
	shape     ShapeKind
	roundness float64
}

// NewShapeRenderer attaches a ShapeRenderer to g.
// Panics if g has no SpriteRenderer: that is a content-authoring bug.
func NewShapeRenderer(g *GameObject, shape ShapeKind, roundness float64) *ShapeRenderer {
	if g.SpriteRenderer() == nil {
		panic("arbor: ShapeRenderer requires a SpriteRenderer on " + g.Name)
	}
	sr := &ShapeRenderer{shape: shape, roundness: clampRoundness(roundness)}
	g.AddComponent(sr)
	sr.apply()
	return sr
}

// Kind returns KindShapeRenderer.
func (s *ShapeRenderer) Kind() ComponentKind { return KindShapeRenderer }

// ColorOnly reports whether the underlying sprite is untextured.
func (s *ShapeRenderer) ColorOnly() bool {
	if sp := s.sprite(); sp != nil {
		return sp.ColorOnly()
	}
	return true
}

// Start re-applies the shape in case the transform was replaced.
func (s *ShapeRenderer) Start() { s.apply() }

// Shape returns the current shape.
func (s *ShapeRenderer) Shape() ShapeKind { return s.shape }

// SetShape changes the shape and roundness (used by ShapeRounded only).
func (s *ShapeRenderer) SetShape(shape ShapeKind, roundness float64) {
	s.shape = shape
	s.roundness = clampRoundness(roundness)
	s.apply()
}

// SetFill sets the sprite colour.
func (s *ShapeRenderer) SetFill(c Color) {
	if sp := s.sprite(); sp != nil {
		sp.SetColor(c)
	}
}

// Inspect describes the shape for UI panels.
func (s *ShapeRenderer) Inspect() []Field {
	return []Field{
		{Label: "Shape", Value: s.shape.String()},
		{Label: "Roundness", Value: s.effectiveRoundness()},
	}
}

func (s *ShapeRenderer) effectiveRoundness() float64 {
	switch s.shape {
	case ShapeCircle:
		return maxRoundness
	case ShapeRounded:
		return s.roundness
	default:
		return 0
	}
}

// apply writes the roundness into the owner's transform; the sprite notices
// the change on its next SyncTransform.
func (s *ShapeRenderer) apply() {
	if s.owner == nil {
		return
	}
	s.owner.Transform.SetRoundness(s.effectiveRoundness())
}

func (s *ShapeRenderer) sprite() *SpriteRenderer {
	if s.owner == nil {
		return nil
	}
	return s.owner.SpriteRenderer()
}
