package arbor

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// ActionContext is what an EditorAction resolves its targets against. Actions
// store object ids, never live references for lookups, so an object that was
// removed and re-inserted is still found. View implements it.
type ActionContext interface {
	ObjectByID(id uint32) *GameObject
	Root() *Group
	// InsertObject registers g with the scene and places it in parent (the
	// root group when parent is nil or no longer part of the tree).
	InsertObject(g *GameObject, parent *Group)
	// RemoveObject unregisters g and detaches it from its group.
	RemoveObject(g *GameObject) bool
	Logger() *zap.Logger
}

// EditorAction is a reversible editor operation.
type EditorAction interface {
	Apply(ctx ActionContext)
	Reverse(ctx ActionContext)
	// Name is a short label for history panels ("Move").
	Name() string
	// Detail is a longer description ("Move 3 objects").
	Detail() string
}

// Redoer is implemented by actions whose redo differs from Apply.
type Redoer interface {
	Redo(ctx ActionContext)
}

func skipMissing(ctx ActionContext, action string, id uint32) {
	ctx.Logger().Debug("action target missing, skipped",
		zap.String("action", action),
		zap.Uint32("id", id),
	)
}

// ValueChange sets one field of one object. The field is addressed by a
// setter so the same type serves position, scale, name and the rest.
type ValueChange[T any] struct {
	name     string
	id       uint32
	old, new T
	set      func(g *GameObject, v T)
}

// NewValueChange creates a value change applying set with new on Apply and
// old on Reverse.
func NewValueChange[T any](name string, id uint32, old, new T, set func(*GameObject, T)) *ValueChange[T] {
	return &ValueChange[T]{name: name, id: id, old: old, new: new, set: set}
}

// Apply writes the new value.
func (a *ValueChange[T]) Apply(ctx ActionContext) { a.write(ctx, a.new) }

// Reverse writes the old value.
func (a *ValueChange[T]) Reverse(ctx ActionContext) { a.write(ctx, a.old) }

func (a *ValueChange[T]) write(ctx ActionContext, v T) {
	g := ctx.ObjectByID(a.id)
	if g == nil {
		skipMissing(ctx, a.name, a.id)
		return
	}
	a.set(g, v)
}

// Name returns the action label.
func (a *ValueChange[T]) Name() string { return a.name }

// Detail describes the change.
func (a *ValueChange[T]) Detail() string {
	return fmt.Sprintf("%s #%d: %v -> %v", a.name, a.id, a.old, a.new)
}

// ID returns the target object id.
func (a *ValueChange[T]) ID() uint32 { return a.id }

// PositionChange moves one object.
func PositionChange(id uint32, old, new mgl64.Vec2) *ValueChange[mgl64.Vec2] {
	return NewValueChange("Position", id, old, new, func(g *GameObject, v mgl64.Vec2) {
		g.Transform.Position = v
	})
}

// ScaleChange rescales one object.
func ScaleChange(id uint32, old, new mgl64.Vec2) *ValueChange[mgl64.Vec2] {
	return NewValueChange("Scale", id, old, new, func(g *GameObject, v mgl64.Vec2) {
		g.Transform.Scale = v
	})
}

// RotationChange rotates one object (radians).
func RotationChange(id uint32, old, new float64) *ValueChange[float64] {
	return NewValueChange("Rotation", id, old, new, func(g *GameObject, v float64) {
		g.Transform.Rotation = v
	})
}

// RoundnessChange changes corner roundness. Values are clamped on write.
func RoundnessChange(id uint32, old, new float64) *ValueChange[float64] {
	return NewValueChange("Roundness", id, old, new, func(g *GameObject, v float64) {
		g.Transform.SetRoundness(v)
	})
}

// NameChange renames one object.
func NameChange(id uint32, old, new string) *ValueChange[string] {
	return NewValueChange("Rename", id, old, new, func(g *GameObject, v string) {
		g.Name = v
	})
}

// ZIndexChange moves one object to another draw layer.
func ZIndexChange(id uint32, old, new int) *ValueChange[int] {
	return NewValueChange("Z-Index", id, old, new, func(g *GameObject, v int) {
		g.SetZIndex(v)
	})
}

// ComponentValueChange sets one field of a component. The component is
// located by object id and kind each time the action runs, because it may
// have been replaced since the action was recorded.
type ComponentValueChange[T any] struct {
	name     string
	id       uint32
	kind     ComponentKind
	old, new T
	set      func(c Component, v T)
}

// NewComponentValueChange creates a component-scoped value change.
func NewComponentValueChange[T any](name string, id uint32, kind ComponentKind, old, new T, set func(Component, T)) *ComponentValueChange[T] {
	return &ComponentValueChange[T]{name: name, id: id, kind: kind, old: old, new: new, set: set}
}

// Apply writes the new value.
func (a *ComponentValueChange[T]) Apply(ctx ActionContext) { a.write(ctx, a.new) }

// Reverse writes the old value.
func (a *ComponentValueChange[T]) Reverse(ctx ActionContext) { a.write(ctx, a.old) }

func (a *ComponentValueChange[T]) write(ctx ActionContext, v T) {
	g := ctx.ObjectByID(a.id)
	if g == nil {
		skipMissing(ctx, a.name, a.id)
		return
	}
	c := g.GetComponent(a.kind)
	if c == nil {
		ctx.Logger().Debug("action component missing, skipped",
			zap.String("action", a.name),
			zap.Uint32("id", a.id),
			zap.Stringer("kind", a.kind),
		)
		return
	}
	a.set(c, v)
}

// Name returns the action label.
func (a *ComponentValueChange[T]) Name() string { return a.name }

// Detail describes the change.
func (a *ComponentValueChange[T]) Detail() string {
	return fmt.Sprintf("%s %s #%d: %v -> %v", a.kind, a.name, a.id, a.old, a.new)
}

// ColorChange changes a sprite's colour.
func ColorChange(id uint32, old, new Color) *ComponentValueChange[Color] {
	return NewComponentValueChange("Color", id, KindSpriteRenderer, old, new, func(c Component, v Color) {
		if sr, ok := c.(*SpriteRenderer); ok {
			sr.SetColor(v)
		}
	})
}

// TextureChange swaps a sprite's texture. nil makes the sprite colour-only.
func TextureChange(id uint32, old, new *Texture) *ComponentValueChange[*Texture] {
	return NewComponentValueChange("Texture", id, KindSpriteRenderer, old, new, func(c Component, v *Texture) {
		if sr, ok := c.(*SpriteRenderer); ok {
			sr.SetTexture(v)
		}
	})
}

// BodyTypeChange switches a rigid body between static, dynamic and kinematic.
func BodyTypeChange(id uint32, old, new BodyType) *ComponentValueChange[BodyType] {
	return NewComponentValueChange("Body Type", id, KindRigidBody, old, new, func(c Component, v BodyType) {
		if rb, ok := c.(*RigidBody); ok {
			rb.Type = v
		}
	})
}

// MoveAction moves several objects at once. Positions are copied into the
// action when it is built, so later changes to the objects do not leak in.
type MoveAction struct {
	ids      []uint32
	old, new map[uint32]mgl64.Vec2
}

// NewMoveAction builds a move from per-id old and new positions. Ids present
// in only one of the maps are ignored.
func NewMoveAction(old, new map[uint32]mgl64.Vec2) *MoveAction {
	a := &MoveAction{
		old: make(map[uint32]mgl64.Vec2, len(old)),
		new: make(map[uint32]mgl64.Vec2, len(new)),
	}
	for id, p := range old {
		np, ok := new[id]
		if !ok {
			continue
		}
		a.ids = append(a.ids, id)
		a.old[id] = p
		a.new[id] = np
	}
	slices.Sort(a.ids)
	return a
}

// Apply moves every object to its new position.
func (a *MoveAction) Apply(ctx ActionContext) { a.write(ctx, a.new) }

// Reverse moves every object back.
func (a *MoveAction) Reverse(ctx ActionContext) { a.write(ctx, a.old) }

func (a *MoveAction) write(ctx ActionContext, pos map[uint32]mgl64.Vec2) {
	for _, id := range a.ids {
		g := ctx.ObjectByID(id)
		if g == nil {
			skipMissing(ctx, "Move", id)
			continue
		}
		g.Transform.Position = pos[id]
	}
}

// Name returns "Move".
func (a *MoveAction) Name() string { return "Move" }

// Detail describes the move.
func (a *MoveAction) Detail() string { return fmt.Sprintf("Move %s", plural(len(a.ids))) }

// IDs returns the moved object ids in ascending order.
func (a *MoveAction) IDs() []uint32 { return a.ids }

// placement remembers an object removed from (or added to) the scene and the
// group it belongs in. The instance is kept so it can be re-inserted; lookups
// still go through its id.
type placement struct {
	id     uint32
	obj    *GameObject
	parent *Group
}

func snapshotPlacements(ctx ActionContext, objs []*GameObject) []placement {
	ps := make([]placement, 0, len(objs))
	root := ctx.Root()
	for _, g := range objs {
		ps = append(ps, placement{id: g.ID, obj: g, parent: root.FindParentOf(g)})
	}
	return ps
}

func (p *placement) insert(ctx ActionContext) {
	if ctx.ObjectByID(p.id) != nil {
		return
	}
	ctx.InsertObject(p.obj, p.parent)
}

func (p *placement) remove(ctx ActionContext, action string) {
	g := ctx.ObjectByID(p.id)
	if g == nil {
		skipMissing(ctx, action, p.id)
		return
	}
	if parent := ctx.Root().FindParentOf(g); parent != nil {
		p.parent = parent
	}
	p.obj = g
	ctx.RemoveObject(g)
}

// CreateAction records objects added to the scene. Reverse removes them;
// Apply re-inserts them into the groups they were in.
type CreateAction struct {
	placements []placement
}

// NewCreateAction snapshots the current group of every object. Objects not
// yet in the scene are placed in the root group on Apply.
func NewCreateAction(ctx ActionContext, objs ...*GameObject) *CreateAction {
	return &CreateAction{placements: snapshotPlacements(ctx, objs)}
}

// Apply inserts the objects.
func (a *CreateAction) Apply(ctx ActionContext) {
	for i := range a.placements {
		a.placements[i].insert(ctx)
	}
}

// Reverse removes the objects.
func (a *CreateAction) Reverse(ctx ActionContext) {
	for i := len(a.placements) - 1; i >= 0; i-- {
		a.placements[i].remove(ctx, "Create")
	}
}

// Name returns "Create".
func (a *CreateAction) Name() string { return "Create" }

// Detail describes the creation.
func (a *CreateAction) Detail() string {
	return fmt.Sprintf("Create %s", plural(len(a.placements)))
}

// DeleteAction removes objects from the scene. The group of each object is
// captured when the action is built so Reverse restores the exact placement.
type DeleteAction struct {
	placements []placement
}

// NewDeleteAction snapshots the objects' parent groups.
func NewDeleteAction(ctx ActionContext, objs ...*GameObject) *DeleteAction {
	return &DeleteAction{placements: snapshotPlacements(ctx, objs)}
}

// Apply removes the objects.
func (a *DeleteAction) Apply(ctx ActionContext) {
	for i := range a.placements {
		a.placements[i].remove(ctx, "Delete")
	}
}

// Reverse re-inserts the objects into their groups.
func (a *DeleteAction) Reverse(ctx ActionContext) {
	for i := range a.placements {
		a.placements[i].insert(ctx)
	}
}

// Name returns "Delete".
func (a *DeleteAction) Name() string { return "Delete" }

// Detail describes the deletion.
func (a *DeleteAction) Detail() string {
	return fmt.Sprintf("Delete %s", plural(len(a.placements)))
}

// GroupAction wraps objects into a new group under parent.
type GroupAction struct {
	group   *Group
	parent  *Group
	members []placement
}

// NewGroupAction creates an action moving objs from their current groups
// into group, which is attached to parent (the root when nil).
func NewGroupAction(ctx ActionContext, group, parent *Group, objs ...*GameObject) *GroupAction {
	if parent == nil {
		parent = ctx.Root()
	}
	return &GroupAction{group: group, parent: parent, members: snapshotPlacements(ctx, objs)}
}

// Apply attaches the group and moves the members into it.
func (a *GroupAction) Apply(ctx ActionContext) {
	if err := a.parent.AddGroup(a.group); err != nil {
		ctx.Logger().Warn("group action rejected", zap.String("group", a.group.Name), zap.Error(err))
		return
	}
	root := ctx.Root()
	for _, m := range a.members {
		g := ctx.ObjectByID(m.id)
		if g == nil {
			skipMissing(ctx, "Group", m.id)
			continue
		}
		root.RemoveRecursively(g)
		a.group.Add(g)
	}
}

// Reverse returns the members to their previous groups and detaches the group.
func (a *GroupAction) Reverse(ctx ActionContext) {
	root := ctx.Root()
	for _, m := range a.members {
		g := ctx.ObjectByID(m.id)
		if g == nil {
			skipMissing(ctx, "Group", m.id)
			continue
		}
		a.group.Remove(g)
		parent := m.parent
		if parent == nil || (parent != root && !root.ContainsGroupRecursively(parent)) {
			parent = root
		}
		parent.Add(g)
	}
	a.parent.RemoveGroup(a.group)
}

// Name returns "Group".
func (a *GroupAction) Name() string { return "Group" }

// Detail describes the grouping.
func (a *GroupAction) Detail() string {
	return fmt.Sprintf("Group %s into %q", plural(len(a.members)), a.group.Name)
}

// Group returns the group the action creates.
func (a *GroupAction) Group() *Group { return a.group }

// CompositeAction applies several actions as one history entry. Reverse
// walks them backwards.
type CompositeAction struct {
	name    string
	actions []EditorAction
}

// NewCompositeAction bundles actions under one name.
func NewCompositeAction(name string, actions ...EditorAction) *CompositeAction {
	return &CompositeAction{name: name, actions: actions}
}

// Apply applies each action in order.
func (a *CompositeAction) Apply(ctx ActionContext) {
	for _, act := range a.actions {
		act.Apply(ctx)
	}
}

// Reverse reverses each action in reverse order.
func (a *CompositeAction) Reverse(ctx ActionContext) {
	for i := len(a.actions) - 1; i >= 0; i-- {
		a.actions[i].Reverse(ctx)
	}
}

// Redo redoes each action in order, honouring their own Redo.
func (a *CompositeAction) Redo(ctx ActionContext) {
	for _, act := range a.actions {
		redo(ctx, act)
	}
}

// Name returns the composite's name.
func (a *CompositeAction) Name() string { return a.name }

// Detail lists the bundled actions.
func (a *CompositeAction) Detail() string {
	return fmt.Sprintf("%s (%d actions)", a.name, len(a.actions))
}

// Actions returns the bundled actions.
func (a *CompositeAction) Actions() []EditorAction { return a.actions }

func redo(ctx ActionContext, a EditorAction) {
	if r, ok := a.(Redoer); ok {
		r.Redo(ctx)
		return
	}
	a.Apply(ctx)
}

func plural(n int) string {
	if n == 1 {
		return "1 object"
	}
	return fmt.Sprintf("%d objects", n)
}
