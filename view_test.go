package arbor

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// fakePhysics records bodies and steps without simulating anything.
type fakePhysics struct {
	bodies map[*GameObject]bool
	steps  int
}

func newFakePhysics() *fakePhysics {
	return &fakePhysics{bodies: make(map[*GameObject]bool)}
}

func (p *fakePhysics) Add(g *GameObject) {
	rb, ok := ComponentAs[*RigidBody](g, KindRigidBody)
	if !ok || rb.Handle() != nil {
		return
	}
	rb.SetHandle(g.ID)
	p.bodies[g] = true
}

func (p *fakePhysics) Destroy(g *GameObject) {
	if rb, ok := ComponentAs[*RigidBody](g, KindRigidBody); ok {
		rb.SetHandle(nil)
	}
	delete(p.bodies, g)
}

func (p *fakePhysics) Step(float64) { p.steps++ }

func TestCreateObjectAssignsIDsAndBatches(t *testing.T) {
	v, _ := newTestView(t)
	a := v.CreateObject("a", at(0, 0), 0, NewColorSprite(ColorWhite))
	b := v.CreateObject("b", at(0, 0), 1)
	if a.ID != 1 || b.ID != 2 {
		t.Errorf("ids = %d, %d, want 1, 2", a.ID, b.ID)
	}
	if v.ObjectByID(a.ID) != a || v.FindByName("b") != b || v.FindByName("zzz") != nil {
		t.Error("lookup failed")
	}
	if v.Root().FindParentOf(a) != v.Root() {
		t.Error("object not in root group")
	}
	if a.SpriteRenderer().Batch() == nil {
		t.Error("sprite not batched")
	}
}

func TestInsertObjectKeepsExplicitIDs(t *testing.T) {
	v, _ := newTestView(t)
	g := NewGameObject(10, "ten", at(0, 0), 0)
	v.AddObject(g)
	next := v.CreateObject("next", at(0, 0), 0)
	if next.ID != 11 {
		t.Errorf("next id = %d, want 11", next.ID)
	}
	dup := NewGameObject(10, "dup", at(0, 0), 0)
	assertPanics(t, "duplicate id", "duplicate object id", func() { v.AddObject(dup) })
}

func TestInsertObjectIntoDetachedGroupFallsBackToRoot(t *testing.T) {
	v, _ := newTestView(t)
	detached := NewGroup("detached")
	g := NewGameObject(0, "g", at(0, 0), 0)
	v.InsertObject(g, detached)
	if v.Root().FindParentOf(g) != v.Root() {
		t.Error("object should land in root")
	}
	if detached.Contains(g) {
		t.Error("object added to a detached group")
	}
}

func TestRemoveObjectCascades(t *testing.T) {
	phys := newFakePhysics()
	gpu := newFakeGPU()
	v := NewView("test", ViewConfig{GPU: gpu, Physics: phys})
	grp := NewGroup("g")
	v.Root().AddGroup(grp)

	g := NewGameObject(0, "g", at(0, 0), 0)
	g.AddComponent(NewColorSprite(ColorWhite))
	g.AddComponent(NewRigidBody(BodyDynamic))
	v.InsertObject(g, grp)
	v.Play()
	v.Select(g)

	if !v.RemoveObject(g) {
		t.Fatal("RemoveObject returned false")
	}
	if v.ObjectByID(g.ID) != nil || len(v.Objects()) != 0 {
		t.Error("still in arena")
	}
	if grp.Contains(g) {
		t.Error("still in group")
	}
	if v.IsSelected(g) {
		t.Error("still selected")
	}
	if phys.bodies[g] {
		t.Error("physics body not destroyed")
	}
	if g.SpriteRenderer().Batch() != nil {
		t.Error("still batched")
	}
	if v.RemoveObject(g) {
		t.Error("second remove returned true")
	}
}

func TestSelectIgnoresUnregistered(t *testing.T) {
	v, _ := newTestView(t)
	a := v.CreateObject("a", at(0, 0), 0)
	stray := NewGameObject(99, "stray", at(0, 0), 0)
	v.Select(a, stray, a)
	if len(v.Selected()) != 1 || v.Selected()[0] != a {
		t.Errorf("selection = %d objects, want [a]", len(v.Selected()))
	}
	v.ClearSelection()
	if v.IsSelected(a) {
		t.Error("ClearSelection failed")
	}
}

func TestUpdateOrderAndRemovalDuringUpdate(t *testing.T) {
	v, _ := newTestView(t)
	var log []string
	v.CreateObject("a", at(0, 0), 0, &countingComponent{kind: KindUser, label: "a", log: &log})
	b := v.CreateObject("b", at(0, 0), 0, &countingComponent{kind: KindUser, label: "b", log: &log})
	c := v.CreateObject("c", at(0, 0), 0)
	c.AddComponent(&removerComponent{view: v, target: b})

	// c removes b, but b already ran; a second frame skips b.
	v.Update(0.1)
	v.Update(0.1)
	want := []string{"a.update", "b.update", "a.update"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("log = %v, want %v", log, want)
		}
	}

	// Removing an object not yet visited this frame skips it.
	var log2 []string
	v2, _ := newTestView(t)
	v2.CreateObject("killer", at(0, 0), 0)
	v2.Objects()[0].AddComponent(&removerComponent{view: v2})
	victim := v2.CreateObject("victim", at(0, 0), 0, &countingComponent{kind: KindUser, label: "victim", log: &log2})
	v2.Objects()[0].GetComponent(KindUser + 5).(*removerComponent).target = victim
	v2.Update(0.1)
	if len(log2) != 0 {
		t.Errorf("removed object was updated: %v", log2)
	}
}

type removerComponent struct {
	BaseComponent
	view   *View
	target *GameObject
}

func (r *removerComponent) Kind() ComponentKind { return KindUser + 5 }

func (r *removerComponent) Update(float64) {
	if r.target != nil {
		r.view.RemoveObject(r.target)
	}
}

func TestUpdateRecoversFromPanics(t *testing.T) {
	v, _ := newTestView(t)
	bad := &countingComponent{kind: KindUser, panicOn: true}
	good := &countingComponent{kind: KindUser}
	v.CreateObject("bad", at(0, 0), 0, bad)
	v.CreateObject("good", at(0, 0), 0, good)
	v.Update(0.1)
	if bad.updates != 1 || good.updates != 1 {
		t.Errorf("updates = %d/%d, want 1/1", bad.updates, good.updates)
	}
}

func TestStartStartsLateObjects(t *testing.T) {
	v, _ := newTestView(t)
	early := &countingComponent{kind: KindUser}
	v.CreateObject("early", at(0, 0), 0, early)
	v.Start()
	v.Start()
	late := &countingComponent{kind: KindUser}
	v.CreateObject("late", at(0, 0), 0, late)
	if early.starts != 1 || late.starts != 1 {
		t.Errorf("starts = %d/%d, want 1/1", early.starts, late.starts)
	}
}

// stubBehavior counts calls and fails on demand.
type stubBehavior struct {
	owner     *GameObject
	inits     int
	updates   int
	updateErr error
	initErr   error
	closed    bool
}

func (b *stubBehavior) Bind(g *GameObject, _ *ScriptEnv) { b.owner = g }

func (b *stubBehavior) Init() error {
	b.inits++
	return b.initErr
}

func (b *stubBehavior) Update(float64) error {
	b.updates++
	return b.updateErr
}

func (b *stubBehavior) Close() error {
	b.closed = true
	return nil
}

// stubLoader hands out behaviors by name.
type stubLoader struct {
	behaviors  map[string]*stubBehavior
	compileErr error
	compiled   []string
}

func (l *stubLoader) SourcePath(dir, name string) string { return dir + "/" + name + ".lua" }

func (l *stubLoader) Compile(path string) error {
	l.compiled = append(l.compiled, path)
	return l.compileErr
}

func (l *stubLoader) Load(_, name string) (Behavior, error) {
	b, ok := l.behaviors[name]
	if !ok {
		return nil, errors.New("no such behavior")
	}
	return b, nil
}

func TestScriptsOnlyRunInPlayMode(t *testing.T) {
	mover := &stubBehavior{}
	loader := &stubLoader{behaviors: map[string]*stubBehavior{"Mover": mover}}
	v := NewView("test", ViewConfig{GPU: newFakeGPU(), Scripts: loader, ScriptDir: "scripts"})
	g := v.CreateObject("m", at(0, 0), 0, NewScriptComponent("", "Mover"))

	if mover.owner != g {
		t.Fatal("behavior not bound on insert")
	}
	if len(loader.compiled) != 1 || loader.compiled[0] != "scripts/Mover.lua" {
		t.Errorf("compiled = %v", loader.compiled)
	}

	v.Update(0.1)
	if mover.inits != 0 || mover.updates != 0 {
		t.Error("script ran in edit mode")
	}
	v.Play()
	v.Update(0.1)
	v.Update(0.1)
	if mover.inits != 1 || mover.updates != 2 {
		t.Errorf("inits/updates = %d/%d, want 1/2", mover.inits, mover.updates)
	}
}

func TestScriptFailureIsIsolated(t *testing.T) {
	broken := &stubBehavior{updateErr: errors.New("nil index")}
	fine := &stubBehavior{}
	loader := &stubLoader{behaviors: map[string]*stubBehavior{"Broken": broken, "Fine": fine}}
	events := NewEventBus()
	v := NewView("test", ViewConfig{GPU: newFakeGPU(), Scripts: loader, Events: events})
	bad := v.CreateObject("bad", at(0, 0), 0, NewScriptComponent("", "Broken"))
	v.CreateObject("good", at(0, 0), 0, NewScriptComponent("", "Fine"))

	v.Play()
	v.Update(0.1)
	v.Update(0.1)
	if fine.updates != 2 {
		t.Errorf("healthy script updates = %d, want 2", fine.updates)
	}
	sc := bad.GetComponent(KindScript).(*ScriptComponent)
	if sc.Failures() != 2 || sc.LastError() == nil {
		t.Errorf("failures = %d, err = %v", sc.Failures(), sc.LastError())
	}
	var reported int
	for _, ev := range events.Recent() {
		if ev.Kind == EventScriptFailed && ev.Subject == "Broken" {
			reported++
		}
	}
	if reported != 2 {
		t.Errorf("script failures reported = %d, want 2", reported)
	}
}

func TestScriptLoadFailureReported(t *testing.T) {
	loader := &stubLoader{behaviors: map[string]*stubBehavior{}}
	events := NewEventBus()
	v := NewView("test", ViewConfig{GPU: newFakeGPU(), Scripts: loader, Events: events})
	g := v.CreateObject("g", at(0, 0), 0, NewScriptComponent("", "Missing"))
	if g.GetComponent(KindScript).(*ScriptComponent).Behavior() != nil {
		t.Error("missing script produced a behavior")
	}
	recent := events.Recent()
	if len(recent) != 1 || recent[0].Kind != EventScriptFailed {
		t.Errorf("events = %+v", recent)
	}
}

func TestReloadScriptsReturnsFirstError(t *testing.T) {
	a := &stubBehavior{}
	loader := &stubLoader{behaviors: map[string]*stubBehavior{"A": a}}
	v := NewView("test", ViewConfig{GPU: newFakeGPU(), Scripts: loader})
	v.CreateObject("a", at(0, 0), 0, NewScriptComponent("", "A"))
	if err := v.ReloadScripts(); err != nil {
		t.Fatalf("ReloadScripts: %v", err)
	}
	loader.compileErr = errors.New("syntax error")
	if err := v.ReloadScripts(); err == nil {
		t.Error("compile failure not returned")
	}
	if v.Objects()[0].GetComponent(KindScript).(*ScriptComponent).Behavior() != a {
		t.Error("failed reload replaced the working behavior")
	}
}

func TestPlayStopRestoresScene(t *testing.T) {
	phys := newFakePhysics()
	v := NewView("test", ViewConfig{GPU: newFakeGPU(), Physics: phys})
	grp := NewGroup("g")
	v.Root().AddGroup(grp)

	ball := NewGameObject(0, "ball", at(10, 10), 2)
	ball.AddComponent(NewColorSprite(Color{R: 1, A: 1}))
	ball.AddComponent(NewRigidBody(BodyDynamic))
	v.InsertObject(ball, grp)
	doomed := v.CreateObject("doomed", at(0, 0), 0, NewColorSprite(ColorWhite))

	v.Play()
	if !v.Playing() || !phys.bodies[ball] {
		t.Fatal("play did not create bodies")
	}
	ball.Transform.Position = mgl64.Vec2{500, 500}
	ball.SpriteRenderer().SetColor(Color{B: 1, A: 1})
	v.RemoveObject(doomed)
	spawned := v.CreateObject("spawned", at(0, 0), 0, NewColorSprite(ColorWhite))
	v.Update(0.1)
	if phys.steps != 1 {
		t.Errorf("physics steps = %d, want 1", phys.steps)
	}

	v.Stop()
	if v.Playing() {
		t.Fatal("still playing")
	}
	if v.ObjectByID(ball.ID) != ball {
		t.Fatal("ball not restored under its id")
	}
	assertVec(t, "ball position", ball.Transform.Position, mgl64.Vec2{10, 10})
	if ball.ZIndex() != 2 {
		t.Errorf("ball z = %d, want 2", ball.ZIndex())
	}
	if ball.SpriteRenderer().Color() != (Color{R: 1, A: 1}) {
		t.Errorf("ball colour = %+v", ball.SpriteRenderer().Color())
	}
	if v.Root().FindParentOf(ball) != grp {
		t.Error("ball not restored into its group")
	}
	if v.ObjectByID(doomed.ID) != doomed {
		t.Error("object deleted during play not restored")
	}
	if v.ObjectByID(spawned.ID) != nil {
		t.Error("object created during play survived stop")
	}
	if len(phys.bodies) != 0 {
		t.Errorf("%d bodies left after stop", len(phys.bodies))
	}
	rb, _ := ComponentAs[*RigidBody](ball, KindRigidBody)
	if rb.Handle() != nil {
		t.Error("restored body still has a handle")
	}

	v.Update(0.1)
	if phys.steps != 1 {
		t.Error("physics stepped in edit mode")
	}
	v.Render()
	verify(t, v.Renderer())
	if v.Renderer().Stats().Sprites != 2 {
		t.Errorf("sprites drawn = %d, want 2", v.Renderer().Stats().Sprites)
	}
}

func TestPlayStopEvents(t *testing.T) {
	events := NewEventBus()
	v := NewView("lvl", ViewConfig{GPU: newFakeGPU(), Events: events})
	v.Play()
	v.Play()
	v.Stop()
	v.Stop()
	recent := events.Recent()
	if len(recent) != 2 || recent[0].Kind != EventPlayStarted || recent[1].Kind != EventPlayStopped {
		t.Errorf("events = %+v", recent)
	}
}

func TestDuplicateSelection(t *testing.T) {
	v, _ := newTestView(t)
	grp := NewGroup("g")
	v.Root().AddGroup(grp)
	orig := NewGameObject(0, "orig", at(3, 4), 1)
	orig.AddComponent(NewColorSprite(Color{G: 1, A: 1}))
	orig.AddComponent(&countingComponent{kind: KindUser, label: "user"})
	v.InsertObject(orig, grp)

	v.Select(orig)
	copies := v.DuplicateSelection()
	if len(copies) != 1 {
		t.Fatalf("copies = %d", len(copies))
	}
	cp := copies[0]
	if cp.ID == orig.ID || cp.Name != "orig" || cp.ZIndex() != 1 {
		t.Errorf("copy = #%d %q z%d", cp.ID, cp.Name, cp.ZIndex())
	}
	assertVec(t, "copy position", cp.Transform.Position, mgl64.Vec2{3, 4})
	if v.Root().FindParentOf(cp) != grp {
		t.Error("copy not placed in the original's group")
	}
	if cp.SpriteRenderer() == orig.SpriteRenderer() || cp.SpriteRenderer().Batch() == nil {
		t.Error("copy sprite not independent and batched")
	}
	if !cp.HasComponent(KindUser) {
		t.Error("Cloner component not copied")
	}
	if !v.IsSelected(cp) || v.IsSelected(orig) {
		t.Error("selection should move to the copy")
	}

	v.Undo()
	if v.ObjectByID(cp.ID) != nil {
		t.Error("undo did not remove the copy")
	}
	v.Redo()
	if v.ObjectByID(cp.ID) != cp || v.Root().FindParentOf(cp) != grp {
		t.Error("redo did not restore the copy into the group")
	}
}

func TestMoveObjectsAndSetPosition(t *testing.T) {
	v, _ := newTestView(t)
	a := v.CreateObject("a", at(0, 0), 0)
	b := v.CreateObject("b", at(1, 1), 0)
	v.MoveObjects(map[uint32]mgl64.Vec2{a.ID: {5, 5}, b.ID: {6, 6}, 99: {7, 7}})
	assertVec(t, "a", a.Transform.Position, mgl64.Vec2{5, 5})
	assertVec(t, "b", b.Transform.Position, mgl64.Vec2{6, 6})
	v.SetObjectPosition(a, mgl64.Vec2{-1, -1})
	v.Undo()
	assertVec(t, "a after undo", a.Transform.Position, mgl64.Vec2{5, 5})
	v.Undo()
	assertVec(t, "b after undo", b.Transform.Position, mgl64.Vec2{1, 1})
}

func TestPickAt(t *testing.T) {
	v, _ := newTestView(t)
	big := v.CreateObject("big", NewTransform(mgl64.Vec2{50, 50}, mgl64.Vec2{100, 100}), 0, NewColorSprite(ColorWhite))
	top := v.CreateObject("top", NewTransform(mgl64.Vec2{50, 50}, mgl64.Vec2{10, 10}), 3, NewColorSprite(ColorWhite))
	v.CreateObject("bare", NewTransform(mgl64.Vec2{50, 50}, mgl64.Vec2{10, 10}), 9)

	if got := v.PickAt(mgl64.Vec2{50, 50}); got != top {
		t.Errorf("PickAt centre = %v, want top", got)
	}
	if got := v.PickAt(mgl64.Vec2{10, 10}); got != big {
		t.Errorf("PickAt corner = %v, want big", got)
	}
	if got := v.PickAt(mgl64.Vec2{500, 500}); got != nil {
		t.Errorf("PickAt outside = %v, want nil", got)
	}

	tie := v.CreateObject("tie", NewTransform(mgl64.Vec2{50, 50}, mgl64.Vec2{10, 10}), 3, NewColorSprite(ColorWhite))
	if got := v.PickAt(mgl64.Vec2{50, 50}); got != tie {
		t.Error("later object should win a z tie")
	}
}

func TestClearEmptiesView(t *testing.T) {
	v, gpu := newTestView(t)
	g := v.CreateObject("a", at(0, 0), 0, NewColorSprite(ColorWhite))
	v.Select(g)
	v.SetObjectPosition(g, mgl64.Vec2{1, 1})
	v.Root().AddGroup(NewGroup("x"))
	v.Clear()
	if len(v.Objects()) != 0 || len(v.Root().Groups()) != 0 || len(v.Selected()) != 0 {
		t.Error("view not empty")
	}
	if v.History().CanUndo() {
		t.Error("history not cleared")
	}
	if len(gpu.live) != 0 {
		t.Errorf("%d GPU buffers leaked", len(gpu.live))
	}
}

func TestStopRestoresGroupTree(t *testing.T) {
	v, _ := newTestView(t)
	kept := NewGroup("kept")
	v.Root().AddGroup(kept)
	a := NewGameObject(0, "a", at(1, 1), 0)
	a.AddComponent(NewColorSprite(ColorWhite))
	v.InsertObject(a, kept)
	b := v.CreateObject("b", at(2, 2), 0, NewColorSprite(ColorWhite))

	v.Play()
	v.Select(b)
	v.GroupSelection("play group")
	v.Root().RemoveGroup(kept)
	v.Stop()

	if got := v.Root().Groups(); len(got) != 1 || got[0] != kept {
		t.Fatalf("root groups = %d, want only kept", len(got))
	}
	if kept.Parent() != v.Root() {
		t.Error("kept group lost its parent")
	}
	if v.Root().FindParentOf(a) != kept {
		t.Error("a not back in its group")
	}
	if v.Root().FindParentOf(b) != v.Root() {
		t.Error("b not back in root")
	}
	if n := len(v.Root().AllObjects()); n != 2 {
		t.Errorf("tree holds %d objects, want 2", n)
	}
}

func TestStopRestoresHistory(t *testing.T) {
	v, _ := newTestView(t)
	a := v.CreateObject("a", at(0, 0), 0, NewColorSprite(ColorWhite))
	v.SetObjectPosition(a, mgl64.Vec2{5, 0})

	v.Play()
	v.Select(a)
	v.DuplicateSelection()
	v.Undo()
	v.Stop()

	if n := len(v.History().UndoActions()); n != 1 {
		t.Fatalf("undo stack = %d, want 1", n)
	}
	if v.History().CanRedo() {
		t.Error("play-mode undo left a redo entry")
	}
	v.Undo()
	assertVec(t, "undone", a.Transform.Position, mgl64.Vec2{0, 0})
	v.Redo()
	assertVec(t, "redone", a.Transform.Position, mgl64.Vec2{5, 0})
	if len(v.Objects()) != 1 {
		t.Errorf("objects = %d, want 1", len(v.Objects()))
	}
}

func TestStopClosesScripts(t *testing.T) {
	mover := &stubBehavior{}
	loader := &stubLoader{behaviors: map[string]*stubBehavior{"Mover": mover}}
	v := NewView("test", ViewConfig{GPU: newFakeGPU(), Scripts: loader})
	g := v.CreateObject("m", at(0, 0), 0, NewScriptComponent("", "Mover"))

	v.Play()
	v.Update(0.1)
	live := g.GetComponent(KindScript).(*ScriptComponent)
	v.Stop()
	if !mover.closed {
		t.Error("behavior not closed on stop")
	}
	if live.Behavior() != nil {
		t.Error("play-mode component kept its behavior")
	}
	restored := g.GetComponent(KindScript).(*ScriptComponent)
	if restored.Behavior() != mover {
		t.Error("restored component was not reloaded")
	}

	v.Play()
	v.Update(0.1)
	if mover.inits != 2 {
		t.Errorf("inits = %d, want 2", mover.inits)
	}
}
