package arbor

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween/ease"
)

// --- ShapeRenderer ---

func TestShapeRendererRequiresSprite(t *testing.T) {
	g := newObject(1, "bare", 0, 0, 0)
	assertPanics(t, "no sprite", "requires a SpriteRenderer", func() {
		NewShapeRenderer(g, ShapeCircle, 0)
	})
	if g.HasComponent(KindShapeRenderer) {
		t.Error("shape attached despite the panic")
	}
}

func TestShapeRendererDrivesRoundness(t *testing.T) {
	g := newColorObject(1, "s", 0)
	sh := NewShapeRenderer(g, ShapeCircle, 0)
	assertNear(t, "circle", g.Transform.Roundness(), 0.5)

	sh.SetShape(ShapeRounded, 0.2)
	assertNear(t, "rounded", g.Transform.Roundness(), 0.2)
	sh.SetShape(ShapeRounded, 3)
	assertNear(t, "clamped", g.Transform.Roundness(), 0.5)
	sh.SetShape(ShapeRectangle, 0.4)
	assertNear(t, "rectangle", g.Transform.Roundness(), 0)

	sh.SetFill(Color{B: 1, A: 1})
	if g.SpriteRenderer().Color() != (Color{B: 1, A: 1}) {
		t.Error("SetFill did not reach the sprite")
	}
	if !sh.ColorOnly() {
		t.Error("shape over a colour sprite should be colour-only")
	}
}

func TestShapeRoundnessReachesVertices(t *testing.T) {
	r, _ := newTestRenderer(4, 2)
	g := newColorObject(1, "s", 0)
	r.Add(g)
	NewShapeRenderer(g, ShapeCircle, 0)
	r.Render()
	b := g.SpriteRenderer().Batch()
	assertVertexNear(t, "round", vertex(b, 0, 0)[roundOffset], 0.5)
}

// --- SpriteRenderer ---

func TestSpriteSyncTransform(t *testing.T) {
	g := newColorObject(1, "s", 0)
	sr := g.SpriteRenderer()
	sr.Start()
	sr.clearDirty()
	if sr.SyncTransform() {
		t.Error("unchanged transform reported a change")
	}
	g.Transform.Rotation = 1
	if !sr.SyncTransform() || !sr.IsDirty() {
		t.Error("rotation change not detected")
	}
	sr.clearDirty()
	sr.SetColor(sr.Color())
	if sr.IsDirty() {
		t.Error("setting the same colour marked the sprite dirty")
	}
}

func TestSpriteInspect(t *testing.T) {
	col := NewColorSprite(ColorWhite)
	if f := col.Inspect(); len(f) != 1 || f[0].Label != "Color" {
		t.Errorf("colour fields = %+v", f)
	}
	tex := NewSpriteRenderer(&Texture{Path: "a.png"})
	if f := tex.Inspect(); len(f) != 2 || f[0].Value != "a.png" {
		t.Errorf("texture fields = %+v", f)
	}
}

// --- Animation ---

func TestAnimationAdvancesFrames(t *testing.T) {
	t1, t2, t3 := &Texture{ID: 1}, &Texture{ID: 2}, &Texture{ID: 3}
	g := newTexturedObject(1, "anim", 0, t1)
	anim := NewAnimation([]Frame{{t1, 0.1}, {t2, 0.1}, {t3, 0.1}}, false)
	g.AddComponent(anim)
	g.Start()

	anim.Update(0.05)
	if anim.Frame() != 0 {
		t.Errorf("frame = %d, want 0", anim.Frame())
	}
	anim.Update(0.06)
	if anim.Frame() != 1 || g.SpriteRenderer().Texture() != t2 {
		t.Errorf("frame = %d, want 1 with t2", anim.Frame())
	}
	anim.Update(0.25)
	if anim.Frame() != 2 || anim.Playing() {
		t.Errorf("non-looping animation: frame %d playing %v", anim.Frame(), anim.Playing())
	}

	anim.Reset()
	if anim.Frame() != 0 || g.SpriteRenderer().Texture() != t1 {
		t.Error("Reset did not rewind")
	}
}

func TestAnimationLoops(t *testing.T) {
	t1, t2 := &Texture{ID: 1}, &Texture{ID: 2}
	g := newTexturedObject(1, "anim", 0, t1)
	anim := NewAnimation([]Frame{{t1, 0.1}, {t2, 0.1}}, true)
	g.AddComponent(anim)
	anim.Update(0.25)
	if anim.Frame() != 0 || !anim.Playing() {
		t.Errorf("frame %d playing %v, want 0 true", anim.Frame(), anim.Playing())
	}
	anim.Stop()
	anim.Update(1)
	if anim.Frame() != 0 {
		t.Error("stopped animation advanced")
	}
}

func TestAnimationRebatchesOnTextureFlip(t *testing.T) {
	r, _ := newTestRenderer(10, 1)
	t1, t2 := &Texture{ID: 1}, &Texture{ID: 2}
	other := newTexturedObject(1, "other", 0, t1)
	g := newTexturedObject(2, "anim", 0, t1)
	r.Add(other)
	r.Add(g)
	anim := NewAnimation([]Frame{{t1, 0.1}, {t2, 0.1}}, true)
	g.AddComponent(anim)

	anim.Update(0.1)
	if r.Pending() != 1 {
		t.Fatalf("Pending = %d, want 1", r.Pending())
	}
	r.Render()
	if g.SpriteRenderer().Batch() == other.SpriteRenderer().Batch() {
		t.Error("flipped sprite should have moved to a batch binding t2")
	}
	verify(t, r)
}

// --- Tween ---

func TestPositionTween(t *testing.T) {
	g := newObject(1, "t", 0, 0, 0)
	tw := NewPositionTween(mgl64.Vec2{10, 20}, 1, ease.Linear)
	g.AddComponent(tw)
	g.Start()

	tw.Update(0.5)
	if d := g.Transform.Position.Sub(mgl64.Vec2{5, 10}).Len(); d > 1e-3 {
		t.Errorf("halfway = %v, want (5,10)", g.Transform.Position)
	}
	if tw.Done {
		t.Error("done too early")
	}
	tw.Update(0.6)
	if d := g.Transform.Position.Sub(mgl64.Vec2{10, 20}).Len(); d > 1e-3 {
		t.Errorf("end = %v, want (10,20)", g.Transform.Position)
	}
	if !tw.Done {
		t.Error("tween should be done")
	}
	g.Transform.Position = mgl64.Vec2{}
	tw.Update(1)
	assertVec(t, "done tween leaves the transform alone", g.Transform.Position, mgl64.Vec2{})
}

func TestRotationAndScaleTween(t *testing.T) {
	g := newObject(1, "t", 0, 0, 0)
	rot := NewRotationTween(2, 1, nil)
	g.AddComponent(rot)
	scale := NewScaleTween(mgl64.Vec2{3, 3}, 1, ease.Linear)
	g.AddComponent(scale)
	g.Start()
	g.Update(1)
	if d := g.Transform.Rotation - 2; d > 1e-3 || d < -1e-3 {
		t.Errorf("rotation = %v, want 2", g.Transform.Rotation)
	}
	if d := g.Transform.Scale.Sub(mgl64.Vec2{3, 3}).Len(); d > 1e-3 {
		t.Errorf("scale = %v, want (3,3)", g.Transform.Scale)
	}
}

func TestTweenWithoutStartIsInert(t *testing.T) {
	g := newObject(1, "t", 4, 4, 0)
	tw := NewPositionTween(mgl64.Vec2{10, 10}, 1, ease.Linear)
	g.AddComponent(tw)
	tw.Update(0.5)
	assertVec(t, "pos", g.Transform.Position, mgl64.Vec2{4, 4})
}

// --- ScriptComponent ---

func TestScriptComponentInitOnce(t *testing.T) {
	g := newObject(1, "s", 0, 0, 0)
	sc := NewScriptComponent("", "x")
	g.AddComponent(sc)
	b := &stubBehavior{}
	sc.SetBehavior(b, nil)
	if b.owner != g {
		t.Error("behavior not bound")
	}
	sc.Update(0.1)
	sc.Update(0.1)
	if b.inits != 1 || b.updates != 2 {
		t.Errorf("inits/updates = %d/%d, want 1/2", b.inits, b.updates)
	}
}

func TestScriptComponentInitFailure(t *testing.T) {
	g := newObject(1, "s", 0, 0, 0)
	sc := NewScriptComponent("", "x")
	g.AddComponent(sc)
	var hooked []error
	sc.OnError(func(_ *ScriptComponent, err error) { hooked = append(hooked, err) })
	b := &stubBehavior{initErr: errors.New("bad init")}
	sc.SetBehavior(b, nil)

	sc.Update(0.1)
	sc.Update(0.1)
	if b.inits != 1 {
		t.Errorf("init retried: %d", b.inits)
	}
	if b.updates != 0 {
		t.Errorf("updates = %d, want 0 after a failed init", b.updates)
	}
	if len(hooked) != 1 || sc.Failures() != 1 {
		t.Errorf("hooked %d, failures %d", len(hooked), sc.Failures())
	}
	if f := sc.Inspect(); len(f) != 3 || f[2].Label != "Error" {
		t.Errorf("fields = %+v", f)
	}

	b.initErr = nil
	sc.SetBehavior(b, nil)
	sc.Update(0.1)
	if b.inits != 2 || b.updates != 1 {
		t.Errorf("after reload inits/updates = %d/%d, want 2/1", b.inits, b.updates)
	}
}

func TestScriptComponentReplaceClosesPrevious(t *testing.T) {
	g := newObject(1, "s", 0, 0, 0)
	sc := NewScriptComponent("", "x")
	g.AddComponent(sc)
	first := &stubBehavior{}
	second := &stubBehavior{}
	sc.SetBehavior(first, nil)
	sc.Update(0.1)
	sc.SetBehavior(second, nil)
	if !first.closed {
		t.Error("previous behavior not closed")
	}
	sc.Update(0.1)
	if second.inits != 1 {
		t.Error("new behavior not initialized")
	}
}

func TestScriptComponentLoadUnattached(t *testing.T) {
	sc := NewScriptComponent("", "x")
	if err := sc.Load(&stubLoader{}, nil); err == nil {
		t.Error("loading an unattached script should fail")
	}
}

// --- Clone ---

func TestCloneObjectResetsRuntimeState(t *testing.T) {
	r, _ := newTestRenderer(4, 2)
	g := newColorObject(1, "orig", 2)
	rb := NewRigidBody(BodyDynamic)
	rb.Restitution = 0.5
	g.AddComponent(rb)
	g.AddComponent(&CapsuleCollider{Radius: 1, Height: 4})
	g.AddComponent(NewScriptComponent("dir", "a.B"))
	g.AddComponent(&removerComponent{}) // not a Cloner: dropped
	r.Add(g)
	rb.SetHandle("body")

	c := CloneObject(g, 7)
	if c.ID != 7 || c.Name != "orig" || c.ZIndex() != 2 {
		t.Errorf("clone = #%d %q z%d", c.ID, c.Name, c.ZIndex())
	}
	if len(c.Components()) != 4 {
		t.Fatalf("components = %d, want 4", len(c.Components()))
	}
	if c.SpriteRenderer().Batch() != nil {
		t.Error("clone inherited batch placement")
	}
	crb, _ := ComponentAs[*RigidBody](c, KindRigidBody)
	if crb.Handle() != nil || crb.Restitution != 0.5 || crb.Owner() != c {
		t.Error("rigid body not cloned cleanly")
	}
	sc, _ := ComponentAs[*ScriptComponent](c, KindScript)
	if sc.Name != "a.B" || sc.Dir != "dir" || sc.Behavior() != nil {
		t.Error("script not cloned cleanly")
	}
}

// --- Events ---

func TestEventBusKeepsRecent(t *testing.T) {
	bus := NewEventBus()
	var seen int
	bus.Subscribe(func(Event) { seen++ })
	for i := 0; i < maxRecentEvents+10; i++ {
		bus.Publish(Event{Kind: EventSceneSaved})
	}
	bus.Report(EventResourceLoadFailed, "x.png", errors.New("gone"))
	if seen != maxRecentEvents+11 {
		t.Errorf("handler saw %d events", seen)
	}
	recent := bus.Recent()
	if len(recent) != maxRecentEvents {
		t.Fatalf("recent = %d, want %d", len(recent), maxRecentEvents)
	}
	if last := recent[len(recent)-1]; last.Kind != EventResourceLoadFailed || last.Subject != "x.png" {
		t.Errorf("last = %+v", last)
	}
}

// --- Input ---

func TestInputSetKey(t *testing.T) {
	in := NewInputState()
	in.SetKey("Space", true)
	if !in.KeyDown("space") || !in.KeyJustPressed("SPACE") {
		t.Error("key not pressed")
	}
	in.SetKey("space", false)
	if in.KeyDown("space") || in.KeyJustPressed("space") {
		t.Error("key not released")
	}
	var nilIn *InputState
	if nilIn.KeyDown("a") || nilIn.ButtonDown(MouseButtonLeft) {
		t.Error("nil input should report nothing")
	}
	in.Buttons[MouseButtonRight] = true
	if !in.ButtonDown(MouseButtonRight) || in.ButtonDown(MouseButton(7)) {
		t.Error("ButtonDown wrong")
	}
}
