package arbor

// IDGenerator hands out GameObject ids. Ids start at 1 and are never reused
// within a session. Not safe for concurrent use; arbor is single-threaded.
type IDGenerator struct {
	last uint32
}

// Next returns a fresh id.
func (g *IDGenerator) Next() uint32 {
	g.last++
	return g.last
}

// Last returns the most recently issued id, or 0.
func (g *IDGenerator) Last() uint32 {
	return g.last
}

// GameObject is a named, uniquely identified container composing a Transform
// and an ordered list of Components. Insertion order is update order.
//
// A GameObject does not know which Group holds it; use Group.FindParentOf.
type GameObject struct {
	ID        uint32
	Name      string
	Transform Transform

	zIndex     int
	components []Component
	started    bool
}

// NewGameObject creates a GameObject. Most callers go through
// View.CreateObject, which supplies the id.
func NewGameObject(id uint32, name string, t Transform, zIndex int) *GameObject {
	return &GameObject{ID: id, Name: name, Transform: t, zIndex: zIndex}
}

// ZIndex returns the draw layer. Higher values draw on top.
func (g *GameObject) ZIndex() int {
	return g.zIndex
}

// SetZIndex changes the draw layer. The object's sprite, if batched, is
// queued for rebatching because its batch no longer matches.
func (g *GameObject) SetZIndex(z int) {
	if g.zIndex == z {
		return
	}
	g.zIndex = z
	if sr := g.SpriteRenderer(); sr != nil {
		sr.requestRebatch()
	}
}

// AddComponent appends c and binds its owner to g.
// Panics if c is nil or already attached to another object.
func (g *GameObject) AddComponent(c Component) {
	if c == nil {
		panic("arbor: cannot add nil component")
	}
	b := c.base()
	if b.owner != nil && b.owner != g {
		panic("arbor: component is already attached to another object")
	}
	b.owner = g
	g.components = append(g.components, c)
}

// GetComponent returns the first component of the given kind, or nil.
func (g *GameObject) GetComponent(kind ComponentKind) Component {
	for _, c := range g.components {
		if c.Kind() == kind {
			return c
		}
	}
	return nil
}

// HasComponent reports whether g carries a component of the given kind.
func (g *GameObject) HasComponent(kind ComponentKind) bool {
	return g.GetComponent(kind) != nil
}

// RemoveComponent removes the first component of the given kind and returns
// it, or returns nil when there is none.
func (g *GameObject) RemoveComponent(kind ComponentKind) Component {
	for i, c := range g.components {
		if c.Kind() != kind {
			continue
		}
		if d, ok := c.(detacher); ok {
			d.detach()
		}
		copy(g.components[i:], g.components[i+1:])
		g.components[len(g.components)-1] = nil
		g.components = g.components[:len(g.components)-1]
		c.base().owner = nil
		return c
	}
	return nil
}

// Components returns the component list. The returned slice MUST NOT be mutated.
func (g *GameObject) Components() []Component {
	return g.components
}

// SpriteRenderer returns the object's sprite renderer, or nil.
func (g *GameObject) SpriteRenderer() *SpriteRenderer {
	sr, _ := ComponentAs[*SpriteRenderer](g, KindSpriteRenderer)
	return sr
}

// Start calls Start on every component in insertion order. Only the first
// call has an effect.
func (g *GameObject) Start() {
	if g.started {
		return
	}
	g.started = true
	for i := 0; i < len(g.components); i++ {
		g.components[i].Start()
	}
}

// Started reports whether Start has run.
func (g *GameObject) Started() bool {
	return g.started
}

// Update calls Update on every component in insertion order. A component may
// observe state another component changed earlier in the same tick.
func (g *GameObject) Update(dt float64) {
	g.update(dt, KindNone)
}

// update runs every component except those of kind skip.
func (g *GameObject) update(dt float64, skip ComponentKind) {
	for i := 0; i < len(g.components); i++ {
		c := g.components[i]
		if skip != KindNone && c.Kind() == skip {
			continue
		}
		c.Update(dt)
	}
}
