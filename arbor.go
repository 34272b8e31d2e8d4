package arbor

import "fmt"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default sprite tint.
var ColorWhite = Color{1, 1, 1, 1}

// ComponentKind identifies a component variant. Lookups on a GameObject are
// keyed by kind; a GameObject carries at most one active component per kind.
type ComponentKind uint8

const (
	KindNone           ComponentKind = iota
	KindSpriteRenderer               // textured or colour-only quad
	KindShapeRenderer                // rectangle/circle styling on top of a sprite
	KindAnimation                    // frame-by-frame texture flip
	KindTween                        // eased transform animation
	KindRigidBody                    // physics body parameters
	KindCircleCollider               // circle fixture
	KindBoxCollider                  // box fixture
	KindCapsuleCollider              // two circles and a box
	KindScript                       // user script behavior
	KindUser                         // first kind free for application components
)

var kindNames = [...]string{
	KindNone:            "None",
	KindSpriteRenderer:  "SpriteRenderer",
	KindShapeRenderer:   "ShapeRenderer",
	KindAnimation:       "Animation",
	KindTween:           "Tween",
	KindRigidBody:       "RigidBody",
	KindCircleCollider:  "CircleCollider",
	KindBoxCollider:     "BoxCollider",
	KindCapsuleCollider: "CapsuleCollider",
	KindScript:          "Script",
	KindUser:            "User",
}

func (k ComponentKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("User+%d", int(k-KindUser))
}

// BodyType selects how the physics solver treats a rigid body.
type BodyType uint8

const (
	BodyStatic    BodyType = iota // never moves
	BodyDynamic                   // fully simulated
	BodyKinematic                 // moved by velocity only, ignores forces
)

func (b BodyType) String() string {
	switch b {
	case BodyStatic:
		return "Static"
	case BodyDynamic:
		return "Dynamic"
	case BodyKinematic:
		return "Kinematic"
	default:
		return "Unknown"
	}
}
