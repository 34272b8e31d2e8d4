package arbor

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// DefaultHistoryLimit caps the undo stack of a View when ViewConfig leaves
// HistoryLimit at zero.
const DefaultHistoryLimit = 256

// ViewConfig wires a View to its collaborators. Only GPU is needed for
// rendering; every other field may be left zero.
type ViewConfig struct {
	Logger   *zap.Logger
	Events   *EventBus
	Assets   *AssetRegistry
	GPU      GPU // defaults to an EbitenGPU
	Renderer RendererConfig

	Physics   Physics      // stepped only in play mode
	Scripts   ScriptLoader // loads ScriptComponents on insert
	ScriptDir string       // root directory scripts are resolved against

	HistoryLimit int // <0 disables the cap
}

// View owns one editable scene: the object arena, the group tree, the
// selection, the renderer and the undo history. Objects live in the arena
// and are addressed by id; groups only hold references for organisation.
//
// A View starts in edit mode. Play snapshots the scene, turns on physics and
// scripts, and Stop restores the snapshot.
type View struct {
	Name string

	log      *zap.Logger
	events   *EventBus
	assets   *AssetRegistry
	renderer *Renderer
	physics  Physics
	scripts  ScriptLoader
	env      *ScriptEnv

	scriptDir string

	ids     IDGenerator
	objects []*GameObject
	byID    map[uint32]*GameObject
	root    *Group

	selection []*GameObject
	history   *History
	input     *InputState

	started  bool
	playing  bool
	snapshot []playSnapshot
	tree     []groupSnapshot
	playRoot *Group
	played   historyState

	updateBuf []*GameObject
}

type playSnapshot struct {
	obj    *GameObject
	state  *GameObject
	parent *Group
}

// groupSnapshot is one group's membership at Play.
type groupSnapshot struct {
	group   *Group
	objects []*GameObject
	groups  []*Group
}

func snapshotTree(root *Group) []groupSnapshot {
	all := append([]*Group{root}, root.AllGroups()...)
	tree := make([]groupSnapshot, 0, len(all))
	for _, g := range all {
		tree = append(tree, groupSnapshot{
			group:   g,
			objects: slices.Clone(g.objects),
			groups:  slices.Clone(g.groups),
		})
	}
	return tree
}

func restoreTree(tree []groupSnapshot) {
	for _, s := range tree {
		for _, c := range s.group.groups {
			c.parent = nil
		}
	}
	for _, s := range tree {
		s.group.objects = slices.Clone(s.objects)
		s.group.groups = slices.Clone(s.groups)
		for _, c := range s.groups {
			c.parent = s.group
		}
	}
}

// NewView creates an empty view.
func NewView(name string, cfg ViewConfig) *View {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	events := cfg.Events
	if events == nil {
		events = NewEventBus()
	}
	assets := cfg.Assets
	if assets == nil {
		assets = NewAssetRegistry("", log, events)
	}
	gpu := cfg.GPU
	if gpu == nil {
		gpu = NewEbitenGPU()
	}
	limit := cfg.HistoryLimit
	if limit == 0 {
		limit = DefaultHistoryLimit
	}

	v := &View{
		Name:      name,
		log:       log.With(zap.String("view", name)),
		events:    events,
		assets:    assets,
		physics:   cfg.Physics,
		scripts:   cfg.Scripts,
		scriptDir: cfg.ScriptDir,
		byID:      make(map[uint32]*GameObject),
		root:      NewGroup("Root"),
		input:     NewInputState(),
	}
	v.renderer = NewRenderer(gpu, cfg.Renderer, v.log)
	v.history = NewHistory(v, limit)
	v.env = &ScriptEnv{Input: v.input, Objects: v, Log: v.log}
	return v
}

// Logger returns the view's logger.
func (v *View) Logger() *zap.Logger { return v.log }

// Events returns the view's event bus.
func (v *View) Events() *EventBus { return v.events }

// Assets returns the texture registry.
func (v *View) Assets() *AssetRegistry { return v.assets }

// Renderer returns the batch renderer.
func (v *View) Renderer() *Renderer { return v.renderer }

// History returns the undo/redo history.
func (v *View) History() *History { return v.history }

// Input returns the input snapshot scripts read from.
func (v *View) Input() *InputState { return v.input }

// Root returns the root group.
func (v *View) Root() *Group { return v.root }

// Playing reports whether the view is in play mode.
func (v *View) Playing() bool { return v.playing }

// --- Object arena ---

// CreateObject creates an object with a fresh id, attaches comps in order and
// inserts it into the root group.
func (v *View) CreateObject(name string, t Transform, zIndex int, comps ...Component) *GameObject {
	g := NewGameObject(v.ids.Next(), name, t, zIndex)
	for _, c := range comps {
		g.AddComponent(c)
	}
	v.InsertObject(g, nil)
	return g
}

// AddObject inserts g into the root group. An id of 0 is replaced by a fresh
// one.
func (v *View) AddObject(g *GameObject) {
	v.InsertObject(g, nil)
}

// InsertObject registers g and places it in parent, or in the root group when
// parent is nil or detached from the tree. Inserting an object that is
// already registered only fixes up its group.
// Panics if another object already holds g's id.
func (v *View) InsertObject(g *GameObject, parent *Group) {
	if g == nil {
		panic("arbor: cannot insert nil object")
	}
	if g.ID == 0 {
		g.ID = v.ids.Next()
	} else if g.ID > v.ids.last {
		v.ids.last = g.ID
	}
	if cur, ok := v.byID[g.ID]; ok && cur != g {
		panic(fmt.Sprintf("arbor: duplicate object id %d", g.ID))
	}
	if parent == nil || (parent != v.root && !v.root.ContainsGroupRecursively(parent)) {
		parent = v.root
	}
	if v.root.FindParentOf(g) == nil {
		parent.Add(g)
	}
	if _, ok := v.byID[g.ID]; ok {
		return
	}
	v.objects = append(v.objects, g)
	v.byID[g.ID] = g
	v.register(g)
}

// register wires a freshly inserted object into the renderer, the script
// loader and, in play mode, the physics world.
func (v *View) register(g *GameObject) {
	v.renderer.Add(g)
	if sc, ok := ComponentAs[*ScriptComponent](g, KindScript); ok {
		sc.OnError(v.scriptFailed)
		if v.scripts != nil && sc.Behavior() == nil {
			if sc.Dir == "" {
				sc.Dir = v.scriptDir
			}
			if err := sc.Load(v.scripts, v.env); err != nil {
				v.scriptFailed(sc, err)
			}
		}
	}
	if v.started {
		v.startObject(g)
	}
	if v.playing && v.physics != nil {
		v.physics.Add(g)
	}
}

// RemoveObject unregisters g: it leaves the arena, its group, the selection,
// the physics world and its render batch. Reports whether g was registered.
func (v *View) RemoveObject(g *GameObject) bool {
	if g == nil || v.byID[g.ID] != g {
		return false
	}
	delete(v.byID, g.ID)
	if i := slices.Index(v.objects, g); i >= 0 {
		v.objects = slices.Delete(v.objects, i, i+1)
	}
	v.root.RemoveRecursively(g)
	v.deselect(g)
	if v.physics != nil {
		v.physics.Destroy(g)
	}
	v.renderer.DestroyIfExists(g)
	return true
}

// ObjectByID returns the registered object with the given id, or nil.
func (v *View) ObjectByID(id uint32) *GameObject {
	return v.byID[id]
}

// Objects returns the arena in insertion order. The returned slice MUST NOT
// be mutated.
func (v *View) Objects() []*GameObject {
	return v.objects
}

// FindByName returns the first object named name, or nil.
func (v *View) FindByName(name string) *GameObject {
	for _, g := range v.objects {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// PickAt returns the topmost object whose quad contains p: highest z-index
// first, later insertions winning ties. Objects without a sprite are skipped.
func (v *View) PickAt(p mgl64.Vec2) *GameObject {
	var best *GameObject
	for _, g := range v.objects {
		if g.SpriteRenderer() == nil || !g.Transform.ContainsPoint(p) {
			continue
		}
		if best == nil || g.zIndex >= best.zIndex {
			best = g
		}
	}
	return best
}

// Clear removes every object and group and empties the history.
func (v *View) Clear() {
	for len(v.objects) > 0 {
		v.RemoveObject(v.objects[len(v.objects)-1])
	}
	v.root = NewGroup("Root")
	v.selection = v.selection[:0]
	v.history.Clear()
	v.renderer.Clear()
}

// --- Selection ---

// Select replaces the selection. Unregistered objects are ignored.
func (v *View) Select(objs ...*GameObject) {
	sel := make([]*GameObject, 0, len(objs))
	for _, g := range objs {
		if v.byID[g.ID] == g && !slices.Contains(sel, g) {
			sel = append(sel, g)
		}
	}
	v.selection = sel
}

// Selected returns the selection in selection order. The returned slice MUST
// NOT be mutated.
func (v *View) Selected() []*GameObject {
	return v.selection
}

// IsSelected reports whether g is selected.
func (v *View) IsSelected(g *GameObject) bool {
	return slices.Contains(v.selection, g)
}

// ClearSelection empties the selection.
func (v *View) ClearSelection() {
	v.selection = v.selection[:0]
}

func (v *View) deselect(g *GameObject) {
	if i := slices.Index(v.selection, g); i >= 0 {
		v.selection = slices.Delete(v.selection, i, i+1)
	}
}

// --- Editor operations (tracked in History) ---

// MoveSelection moves every selected object by delta as one undoable step.
func (v *View) MoveSelection(delta mgl64.Vec2) {
	if len(v.selection) == 0 {
		return
	}
	old := make(map[uint32]mgl64.Vec2, len(v.selection))
	moved := make(map[uint32]mgl64.Vec2, len(v.selection))
	for _, g := range v.selection {
		old[g.ID] = g.Transform.Position
		moved[g.ID] = g.Transform.Position.Add(delta)
	}
	v.history.Execute(NewMoveAction(old, moved))
}

// MoveObjects moves the given objects to new positions as one undoable step.
func (v *View) MoveObjects(to map[uint32]mgl64.Vec2) {
	old := make(map[uint32]mgl64.Vec2, len(to))
	for id := range to {
		if g := v.byID[id]; g != nil {
			old[id] = g.Transform.Position
		}
	}
	v.history.Execute(NewMoveAction(old, to))
}

// SetObjectPosition moves one object as an undoable step.
func (v *View) SetObjectPosition(g *GameObject, p mgl64.Vec2) {
	v.history.Execute(PositionChange(g.ID, g.Transform.Position, p))
}

// DeleteSelection removes the selected objects as one undoable step. Undo
// restores each object to the group it was deleted from.
func (v *View) DeleteSelection() {
	if len(v.selection) == 0 {
		return
	}
	objs := slices.Clone(v.selection)
	v.history.Execute(NewDeleteAction(v, objs...))
	v.ClearSelection()
}

// DuplicateSelection copies the selected objects into the groups of their
// originals and selects the copies. Returns the copies.
func (v *View) DuplicateSelection() []*GameObject {
	if len(v.selection) == 0 {
		return nil
	}
	copies := make([]*GameObject, 0, len(v.selection))
	for _, g := range v.selection {
		c := CloneObject(g, v.ids.Next())
		v.InsertObject(c, v.root.FindParentOf(g))
		copies = append(copies, c)
	}
	v.history.Record(NewCreateAction(v, copies...))
	v.Select(copies...)
	return copies
}

// GroupSelection moves the selected objects into a new group under the root
// as one undoable step and returns the group.
func (v *View) GroupSelection(name string) *Group {
	if len(v.selection) == 0 {
		return nil
	}
	grp := NewGroup(name)
	v.history.Execute(NewGroupAction(v, grp, v.root, v.selection...))
	return grp
}

// Undo reverses the last editor operation.
func (v *View) Undo() bool { return v.history.Undo() }

// Redo re-applies the last undone editor operation.
func (v *View) Redo() bool { return v.history.Redo() }

// --- Frame loop ---

// Start starts every object. Objects inserted later are started on insert.
func (v *View) Start() {
	if v.started {
		return
	}
	v.started = true
	for _, g := range slices.Clone(v.objects) {
		v.startObject(g)
	}
}

func (v *View) startObject(g *GameObject) {
	defer func() {
		if r := recover(); r != nil {
			v.log.Error("object start panicked",
				zap.Uint32("id", g.ID),
				zap.String("name", g.Name),
				zap.Any("panic", r),
			)
		}
	}()
	g.Start()
}

// Update advances every object by dt seconds, then steps physics in play
// mode. Objects are iterated over a copy of the arena, so components may add
// or remove objects. A panicking object is logged and skipped; the rest of
// the frame continues. Scripts only run in play mode.
func (v *View) Update(dt float64) {
	v.updateBuf = append(v.updateBuf[:0], v.objects...)
	for i, g := range v.updateBuf {
		v.updateBuf[i] = nil
		if v.byID[g.ID] != g {
			continue
		}
		v.updateObject(g, dt)
	}
	if v.playing && v.physics != nil {
		v.physics.Step(dt)
	}
}

func (v *View) updateObject(g *GameObject, dt float64) {
	defer func() {
		if r := recover(); r != nil {
			v.log.Error("object update panicked",
				zap.Uint32("id", g.ID),
				zap.String("name", g.Name),
				zap.Any("panic", r),
			)
		}
	}()
	if v.playing {
		g.Update(dt)
	} else {
		g.update(dt, KindScript)
	}
}

// Render draws the scene through the renderer.
func (v *View) Render() {
	v.renderer.Render()
}

// --- Play mode ---

// Play snapshots the scene and enters play mode: physics bodies are created
// and scripts start running on the next Update.
func (v *View) Play() {
	if v.playing {
		return
	}
	v.snapshot = v.snapshot[:0]
	for _, g := range v.objects {
		v.snapshot = append(v.snapshot, playSnapshot{
			obj:    g,
			state:  CloneObject(g, g.ID),
			parent: v.root.FindParentOf(g),
		})
	}
	v.playRoot = v.root
	v.tree = snapshotTree(v.root)
	v.played = v.history.save()
	v.playing = true
	if v.physics != nil {
		for _, g := range v.objects {
			v.physics.Add(g)
		}
	}
	v.log.Info("play started", zap.Int("objects", len(v.objects)))
	v.events.Publish(Event{Kind: EventPlayStarted, Subject: v.Name})
}

// Stop leaves play mode and restores the scene to its state at Play: objects
// created during play are removed, deleted ones come back, and every object
// gets its pre-play transform and components. The group tree and the undo
// history are put back as they were, so nothing done in play mode can be
// undone or redone into the edited scene.
func (v *View) Stop() {
	if !v.playing {
		return
	}
	v.playing = false

	for _, g := range slices.Clone(v.objects) {
		v.RemoveObject(g)
		unloadScripts(g)
	}
	v.root = v.playRoot
	restoreTree(v.tree)
	for _, s := range v.snapshot {
		s.obj.restoreFrom(s.state)
		v.InsertObject(s.obj, s.parent)
	}
	v.history.restore(v.played)
	clear(v.snapshot)
	v.snapshot = v.snapshot[:0]
	v.tree = nil
	v.playRoot = nil
	v.played = historyState{}
	v.selection = v.selection[:0]

	v.log.Info("play stopped", zap.Int("objects", len(v.objects)))
	v.events.Publish(Event{Kind: EventPlayStopped, Subject: v.Name})
}

// --- Scripts ---

// ReloadScripts recompiles and reloads every script component. Every script
// is attempted; the first failure is returned.
func (v *View) ReloadScripts() error {
	if v.scripts == nil {
		return nil
	}
	var first error
	for _, g := range v.objects {
		sc, ok := ComponentAs[*ScriptComponent](g, KindScript)
		if !ok {
			continue
		}
		if err := sc.Load(v.scripts, v.env); err != nil {
			v.scriptFailed(sc, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (v *View) scriptFailed(sc *ScriptComponent, err error) {
	name := ""
	if g := sc.Owner(); g != nil {
		name = g.Name
	}
	v.log.Warn("script failed",
		zap.String("object", name),
		zap.String("script", sc.Name),
		zap.Error(err),
	)
	v.events.Report(EventScriptFailed, sc.Name, err)
}
