package arbor

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrGroupCycle is returned by AddGroup when the child is the group itself or
// one of its ancestors.
var ErrGroupCycle = errors.New("arbor: adding group would create a cycle")

// Group is a named node in an organizational tree over GameObjects. A group
// holds objects by reference (no duplicates) and child groups. The tree is
// acyclic; AddGroup enforces it.
//
// Objects do not point back to their group. Use FindParentOf on the root.
// A group has at most one parent group.
type Group struct {
	Name    string
	parent  *Group
	objects []*GameObject
	groups  []*Group
}

// NewGroup creates an empty group.
func NewGroup(name string) *Group {
	return &Group{Name: name}
}

// Add appends obj unless it is already a direct member.
func (g *Group) Add(obj *GameObject) {
	if obj == nil {
		panic("arbor: cannot add nil object to group")
	}
	if g.Contains(obj) {
		return
	}
	g.objects = append(g.objects, obj)
}

// Remove drops obj from the direct members. No-op when absent.
func (g *Group) Remove(obj *GameObject) bool {
	for i, o := range g.objects {
		if o == obj {
			copy(g.objects[i:], g.objects[i+1:])
			g.objects[len(g.objects)-1] = nil
			g.objects = g.objects[:len(g.objects)-1]
			return true
		}
	}
	return false
}

// Contains reports whether obj is a direct member.
func (g *Group) Contains(obj *GameObject) bool {
	for _, o := range g.objects {
		if o == obj {
			return true
		}
	}
	return false
}

// AddGroup appends child unless it is already a direct child. A child that
// belongs to another group is detached from it first. Returns ErrGroupCycle
// if child is g or contains g anywhere in its subtree.
func (g *Group) AddGroup(child *Group) error {
	if child == nil {
		panic("arbor: cannot add nil group")
	}
	if child == g || child.ContainsGroupRecursively(g) {
		return ErrGroupCycle
	}
	if child.parent == g {
		return nil
	}
	if child.parent != nil {
		child.parent.RemoveGroup(child)
	}
	child.parent = g
	g.groups = append(g.groups, child)
	return nil
}

// RemoveGroup detaches a direct child group. No-op when absent.
func (g *Group) RemoveGroup(child *Group) bool {
	for i, c := range g.groups {
		if c == child {
			copy(g.groups[i:], g.groups[i+1:])
			g.groups[len(g.groups)-1] = nil
			g.groups = g.groups[:len(g.groups)-1]
			child.parent = nil
			return true
		}
	}
	return false
}

// Parent returns the group g is attached to, or nil.
func (g *Group) Parent() *Group { return g.parent }

// Objects returns the direct members. The returned slice MUST NOT be mutated.
func (g *Group) Objects() []*GameObject {
	return g.objects
}

// Groups returns the direct child groups. The returned slice MUST NOT be mutated.
func (g *Group) Groups() []*Group {
	return g.groups
}

// Centroid returns the mean position of the direct members, or (0,0) when
// the group has none.
func (g *Group) Centroid() mgl64.Vec2 {
	return centroid(g.objects)
}

func centroid(objs []*GameObject) mgl64.Vec2 {
	if len(objs) == 0 {
		return mgl64.Vec2{}
	}
	var sum mgl64.Vec2
	for _, o := range objs {
		sum = sum.Add(o.Transform.Position)
	}
	return sum.Mul(1 / float64(len(objs)))
}

// anchor is the point MoveTo measures its delta from: the centroid of the
// direct members, or of the whole subtree when there are no direct members.
func (g *Group) anchor() (mgl64.Vec2, bool) {
	if len(g.objects) > 0 {
		return centroid(g.objects), true
	}
	all := g.AllObjects()
	if len(all) == 0 {
		return mgl64.Vec2{}, false
	}
	return centroid(all), true
}

// MoveTo translates the direct members so their centroid lands on p, then
// moves every child group by the same delta (each child re-anchored on its
// own centroid, recursively). A group with no objects anywhere below it is
// left alone.
func (g *Group) MoveTo(p mgl64.Vec2) {
	a, ok := g.anchor()
	if !ok {
		return
	}
	delta := p.Sub(a)
	for _, o := range g.objects {
		o.Transform.Position = o.Transform.Position.Add(delta)
	}
	for _, c := range g.groups {
		if ca, ok := c.anchor(); ok {
			c.MoveTo(ca.Add(delta))
		}
	}
}

// MoveBy translates the direct members only. Child groups are not moved.
func (g *Group) MoveBy(delta mgl64.Vec2) {
	for _, o := range g.objects {
		o.Transform.Position = o.Transform.Position.Add(delta)
	}
}

// ContainsRecursively reports whether obj is a member of g or any descendant.
func (g *Group) ContainsRecursively(obj *GameObject) bool {
	return g.FindParentOf(obj) != nil
}

// ContainsGroupRecursively reports whether grp is a descendant of g.
func (g *Group) ContainsGroupRecursively(grp *Group) bool {
	return g.FindParentOfGroup(grp) != nil
}

// FindParentOf returns the group directly holding obj, searching depth-first
// from g, or nil.
func (g *Group) FindParentOf(obj *GameObject) *Group {
	if g.Contains(obj) {
		return g
	}
	for _, c := range g.groups {
		if p := c.FindParentOf(obj); p != nil {
			return p
		}
	}
	return nil
}

// FindParentOfGroup returns the group directly holding grp, or nil.
func (g *Group) FindParentOfGroup(grp *Group) *Group {
	for _, c := range g.groups {
		if c == grp {
			return g
		}
		if p := c.FindParentOfGroup(grp); p != nil {
			return p
		}
	}
	return nil
}

// FindGroup returns the first group named name in pre-order, g included.
func (g *Group) FindGroup(name string) *Group {
	if g.Name == name {
		return g
	}
	for _, c := range g.groups {
		if f := c.FindGroup(name); f != nil {
			return f
		}
	}
	return nil
}

// RemoveRecursively removes obj from whichever group in the subtree holds it.
func (g *Group) RemoveRecursively(obj *GameObject) bool {
	if p := g.FindParentOf(obj); p != nil {
		return p.Remove(obj)
	}
	return false
}

// AllObjects flattens the subtree in pre-order: g's own members first, then
// each child group's.
func (g *Group) AllObjects() []*GameObject {
	return g.appendObjects(nil)
}

func (g *Group) appendObjects(buf []*GameObject) []*GameObject {
	buf = append(buf, g.objects...)
	for _, c := range g.groups {
		buf = c.appendObjects(buf)
	}
	return buf
}

// AllGroups flattens the descendants of g (g excluded) in pre-order.
func (g *Group) AllGroups() []*Group {
	return g.appendGroups(nil)
}

func (g *Group) appendGroups(buf []*Group) []*Group {
	for _, c := range g.groups {
		buf = append(buf, c)
		buf = c.appendGroups(buf)
	}
	return buf
}
