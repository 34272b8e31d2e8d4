package arbor

// Cloner is implemented by user components that can be duplicated. Built-in
// components are cloned without it.
type Cloner interface {
	Clone() Component
}

// CloneObject returns a detached copy of g with the given id. Components are
// copied by value; runtime state such as batch placement, physics handles and
// loaded script behaviors is not carried over. Components that are neither
// built in nor Cloners are dropped.
func CloneObject(g *GameObject, id uint32) *GameObject {
	c := NewGameObject(id, g.Name, g.Transform, g.zIndex)
	for _, comp := range g.components {
		if cc := cloneComponent(comp); cc != nil {
			c.AddComponent(cc)
		}
	}
	return c
}

func cloneComponent(c Component) Component {
	switch v := c.(type) {
	case *SpriteRenderer:
		return &SpriteRenderer{color: v.color, texture: v.texture, dirty: true}
	case *ShapeRenderer:
		return &ShapeRenderer{shape: v.shape, roundness: v.roundness}
	case *Animation:
		frames := make([]Frame, len(v.frames))
		copy(frames, v.frames)
		return &Animation{Loop: v.Loop, frames: frames, playing: v.playing}
	case *Tween:
		return &Tween{property: v.property, to: v.to, duration: v.duration, fn: v.fn}
	case *RigidBody:
		rb := *v
		rb.BaseComponent = BaseComponent{}
		rb.handle = nil
		return &rb
	case *CircleCollider:
		return &CircleCollider{Radius: v.Radius, Offset: v.Offset}
	case *BoxCollider:
		return &BoxCollider{HalfSize: v.HalfSize, Offset: v.Offset}
	case *CapsuleCollider:
		return &CapsuleCollider{Radius: v.Radius, Height: v.Height, Offset: v.Offset}
	case *ScriptComponent:
		return NewScriptComponent(v.Dir, v.Name)
	case Cloner:
		return v.Clone()
	}
	return nil
}

// restoreFrom overwrites g's state with a detached copy's. g must not be
// registered with a renderer or physics world while this runs. Loaded script
// behaviors on the replaced components are closed.
func (g *GameObject) restoreFrom(src *GameObject) {
	unloadScripts(g)
	g.Name = src.Name
	g.Transform = src.Transform
	g.zIndex = src.zIndex
	g.started = false
	clear(g.components)
	g.components = g.components[:0]
	for _, c := range src.components {
		c.base().owner = g
		g.components = append(g.components, c)
	}
	src.components = nil
}
