package arbor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// maxRoundness is the largest corner roundness; 0.5 turns a square into a circle.
const maxRoundness = 0.5

// Transform is a plain value holder for an object's placement. It is copied
// by value; two transforms are equal when every field is equal.
type Transform struct {
	Position mgl64.Vec2
	Scale    mgl64.Vec2
	Rotation float64 // radians

	roundness float64
}

// NewTransform returns a transform at pos with the given scale, no rotation
// and square corners.
func NewTransform(pos, scale mgl64.Vec2) Transform {
	return Transform{Position: pos, Scale: scale}
}

// Roundness returns the corner roundness in [0, 0.5].
func (t Transform) Roundness() float64 {
	return t.roundness
}

// SetRoundness sets the corner roundness, silently clamping to [0, 0.5].
func (t *Transform) SetRoundness(r float64) {
	t.roundness = clampRoundness(r)
}

// WithRoundness returns a copy of t with the given (clamped) roundness.
func (t Transform) WithRoundness(r float64) Transform {
	t.roundness = clampRoundness(r)
	return t
}

// Copy returns a deep copy of t.
func (t Transform) Copy() Transform {
	return t
}

// Equal reports whether t and o hold the same values.
func (t Transform) Equal(o Transform) bool {
	return t.Position == o.Position &&
		t.Scale == o.Scale &&
		t.Rotation == o.Rotation &&
		t.roundness == o.roundness
}

func clampRoundness(r float64) float64 {
	if r < 0 || math.IsNaN(r) {
		return 0
	}
	if r > maxRoundness {
		return maxRoundness
	}
	return r
}

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// localMatrix computes the affine matrix of t. Returns [a, b, c, d, tx, ty].
//
// Composition order:
//
//	Scale -> Rotate -> Translate(Position)
func localMatrix(t Transform) [6]float64 {
	sx, sy := t.Scale.X(), t.Scale.Y()
	if t.Rotation == 0 {
		return [6]float64{sx, 0, 0, sy, t.Position.X(), t.Position.Y()}
	}
	sin, cos := math.Sincos(t.Rotation)
	return [6]float64{
		cos * sx,
		sin * sx,
		-sin * sy,
		cos * sy,
		t.Position.X(),
		t.Position.Y(),
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular (determinant ~ 0).
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ContainsPoint reports whether the world point p lies inside the unit quad
// described by t (centred on Position, Scale wide and tall).
func (t Transform) ContainsPoint(p mgl64.Vec2) bool {
	m := localMatrix(t)
	if det := m[0]*m[3] - m[2]*m[1]; det > -1e-12 && det < 1e-12 {
		return false
	}
	lx, ly := transformPoint(invertAffine(m), p.X(), p.Y())
	return lx >= -0.5 && lx <= 0.5 && ly >= -0.5 && ly <= 0.5
}
