package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/phanxgames/arbor"
)

// ShapeKind is the primitive a fixture is built from.
type ShapeKind uint8

const (
	ShapeCircle ShapeKind = iota
	ShapeBox
)

func (k ShapeKind) String() string {
	if k == ShapeBox {
		return "Box"
	}
	return "Circle"
}

// Fixture describes one primitive attached to a body, in body space.
type Fixture struct {
	Shape    ShapeKind
	Radius   float64    // circles
	HalfSize mgl64.Vec2 // boxes
	Offset   mgl64.Vec2
}

// Fixtures lists the primitives for every collider on g, in component order.
// Capsules expand to three fixtures.
func Fixtures(g *arbor.GameObject) []Fixture {
	var out []Fixture
	for _, c := range g.Components() {
		switch col := c.(type) {
		case *arbor.CircleCollider:
			out = append(out, Fixture{Shape: ShapeCircle, Radius: col.Radius, Offset: col.Offset})
		case *arbor.BoxCollider:
			out = append(out, Fixture{Shape: ShapeBox, HalfSize: col.HalfSize, Offset: col.Offset})
		case *arbor.CapsuleCollider:
			out = append(out, CapsuleFixtures(col)...)
		}
	}
	return out
}

// CapsuleFixtures decomposes a vertical capsule into a circle at each rounded
// end, h = height/2 - radius above and below the centre, and a box of half
// size (radius, h) covering the straight section between them.
func CapsuleFixtures(c *arbor.CapsuleCollider) []Fixture {
	h := c.HalfStraight()
	return []Fixture{
		{Shape: ShapeCircle, Radius: c.Radius, Offset: c.Offset.Add(mgl64.Vec2{0, -h})},
		{Shape: ShapeCircle, Radius: c.Radius, Offset: c.Offset.Add(mgl64.Vec2{0, h})},
		{Shape: ShapeBox, HalfSize: mgl64.Vec2{c.Radius, h}, Offset: c.Offset},
	}
}
