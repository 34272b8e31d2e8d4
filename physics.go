package arbor

import "github.com/go-gl/mathgl/mgl64"

// Physics is the narrow interface to the rigid-body solver.
type Physics interface {
	// Add creates a body for g if it carries a RigidBody without a handle,
	// with one fixture per recognised collider.
	Add(g *GameObject)
	// Destroy frees g's body, if any.
	Destroy(g *GameObject)
	// Step advances the simulation by dt seconds of wall time. Implementations
	// integrate in fixed steps and write body poses back to transforms.
	Step(dt float64)
}

// RigidBody holds the parameters used to build a physics body. The solver
// stores its native body in the handle; a nil handle means "not simulated".
type RigidBody struct {
	BaseComponent

	Type                BodyType
	LinearDamping       float64
	AngularDamping      float64
	FixedRotation       bool
	ContinuousCollision bool
	GravityScale        float64
	Density             float64
	Friction            float64
	Restitution         float64
	Velocity            mgl64.Vec2

	handle any
}

// NewRigidBody creates a body description with unit gravity scale and density.
func NewRigidBody(typ BodyType) *RigidBody {
	return &RigidBody{Type: typ, GravityScale: 1, Density: 1, Friction: 0.2}
}

// Kind returns KindRigidBody.
func (rb *RigidBody) Kind() ComponentKind { return KindRigidBody }

// Handle returns the solver's native body, or nil.
func (rb *RigidBody) Handle() any { return rb.handle }

// SetHandle is called by the solver when it creates or frees the body.
func (rb *RigidBody) SetHandle(h any) { rb.handle = h }

// Inspect describes the body for UI panels.
func (rb *RigidBody) Inspect() []Field {
	return []Field{
		{Label: "Type", Value: rb.Type.String()},
		{Label: "Linear Damping", Value: rb.LinearDamping},
		{Label: "Angular Damping", Value: rb.AngularDamping},
		{Label: "Fixed Rotation", Value: rb.FixedRotation},
		{Label: "Continuous", Value: rb.ContinuousCollision},
		{Label: "Gravity Scale", Value: rb.GravityScale},
		{Label: "Density", Value: rb.Density},
	}
}

// CircleCollider is a circle fixture centred at Offset from the body.
type CircleCollider struct {
	BaseComponent
	Radius float64
	Offset mgl64.Vec2
}

// Kind returns KindCircleCollider.
func (c *CircleCollider) Kind() ComponentKind { return KindCircleCollider }

// Inspect describes the collider for UI panels.
func (c *CircleCollider) Inspect() []Field {
	return []Field{{Label: "Radius", Value: c.Radius}, {Label: "Offset", Value: c.Offset}}
}

// BoxCollider is a box fixture of the given half extents.
type BoxCollider struct {
	BaseComponent
	HalfSize mgl64.Vec2
	Offset   mgl64.Vec2
}

// Kind returns KindBoxCollider.
func (c *BoxCollider) Kind() ComponentKind { return KindBoxCollider }

// Inspect describes the collider for UI panels.
func (c *BoxCollider) Inspect() []Field {
	return []Field{{Label: "Half Size", Value: c.HalfSize}, {Label: "Offset", Value: c.Offset}}
}

// CapsuleCollider is a vertical capsule of total Height. The solver builds it
// from two circles at the rounded ends and a box over the straight section.
type CapsuleCollider struct {
	BaseComponent
	Radius float64
	Height float64
	Offset mgl64.Vec2
}

// Kind returns KindCapsuleCollider.
func (c *CapsuleCollider) Kind() ComponentKind { return KindCapsuleCollider }

// HalfStraight returns half the length of the straight mid-section,
// height/2 - radius, never negative.
func (c *CapsuleCollider) HalfStraight() float64 {
	h := c.Height/2 - c.Radius
	if h < 0 {
		return 0
	}
	return h
}

// Inspect describes the collider for UI panels.
func (c *CapsuleCollider) Inspect() []Field {
	return []Field{
		{Label: "Radius", Value: c.Radius},
		{Label: "Height", Value: c.Height},
		{Label: "Offset", Value: c.Offset},
	}
}
