package arbor

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenProperty selects which transform field a Tween animates.
type TweenProperty uint8

const (
	TweenPosition TweenProperty = iota
	TweenScale
	TweenRotation
)

func (p TweenProperty) String() string {
	switch p {
	case TweenPosition:
		return "Position"
	case TweenScale:
		return "Scale"
	case TweenRotation:
		return "Rotation"
	default:
		return "Unknown"
	}
}

// Tween animates up to two float fields of the owner's transform. The start
// values are read from the transform on Start, so the tween can be attached
// before the object is placed. When the owner's transform changes, its
// sprite notices on the next sync and the vertices are rebuilt.
type Tween struct {
	BaseComponent

	// Done is set once every field reached its target, or by Stop.
	Done bool

	property TweenProperty
	to       mgl64.Vec2
	duration float32
	fn       ease.TweenFunc

	tweens [2]*gween.Tween
	count  int
}

// NewPositionTween moves the owner to `to` over duration seconds.
func NewPositionTween(to mgl64.Vec2, duration float32, fn ease.TweenFunc) *Tween {
	return &Tween{property: TweenPosition, to: to, duration: duration, fn: fn}
}

// NewScaleTween scales the owner to `to` over duration seconds.
func NewScaleTween(to mgl64.Vec2, duration float32, fn ease.TweenFunc) *Tween {
	return &Tween{property: TweenScale, to: to, duration: duration, fn: fn}
}

// NewRotationTween rotates the owner to `to` radians over duration seconds.
func NewRotationTween(to float64, duration float32, fn ease.TweenFunc) *Tween {
	return &Tween{property: TweenRotation, to: mgl64.Vec2{to, 0}, duration: duration, fn: fn}
}

// Kind returns KindTween.
func (tw *Tween) Kind() ComponentKind { return KindTween }

// Start captures the current transform values as the tween's origin.
func (tw *Tween) Start() {
	if tw.owner == nil {
		return
	}
	fn := tw.fn
	if fn == nil {
		fn = ease.Linear
	}
	t := &tw.owner.Transform
	switch tw.property {
	case TweenPosition:
		tw.count = 2
		tw.tweens[0] = gween.New(float32(t.Position.X()), float32(tw.to.X()), tw.duration, fn)
		tw.tweens[1] = gween.New(float32(t.Position.Y()), float32(tw.to.Y()), tw.duration, fn)
	case TweenScale:
		tw.count = 2
		tw.tweens[0] = gween.New(float32(t.Scale.X()), float32(tw.to.X()), tw.duration, fn)
		tw.tweens[1] = gween.New(float32(t.Scale.Y()), float32(tw.to.Y()), tw.duration, fn)
	case TweenRotation:
		tw.count = 1
		tw.tweens[0] = gween.New(float32(t.Rotation), float32(tw.to.X()), tw.duration, fn)
	}
	tw.Done = false
}

// Stop ends the tween where it is.
func (tw *Tween) Stop() { tw.Done = true }

// Update advances all field tweens by dt seconds and writes the values into
// the owner's transform.
func (tw *Tween) Update(dt float64) {
	if tw.Done || tw.count == 0 || tw.owner == nil {
		return
	}
	var vals [2]float64
	allDone := true
	for i := 0; i < tw.count; i++ {
		val, finished := tw.tweens[i].Update(float32(dt))
		vals[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	t := &tw.owner.Transform
	switch tw.property {
	case TweenPosition:
		t.Position = mgl64.Vec2{vals[0], vals[1]}
	case TweenScale:
		t.Scale = mgl64.Vec2{vals[0], vals[1]}
	case TweenRotation:
		t.Rotation = vals[0]
	}
	tw.Done = allDone
}

// Inspect describes the tween for UI panels.
func (tw *Tween) Inspect() []Field {
	return []Field{
		{Label: "Property", Value: tw.property.String()},
		{Label: "Target", Value: tw.to},
		{Label: "Duration", Value: tw.duration},
		{Label: "Done", Value: tw.Done},
	}
}
