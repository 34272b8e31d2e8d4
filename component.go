package arbor

// Component is a typed unit of behavior or data attached to exactly one
// GameObject. Implementations embed BaseComponent, which binds the owner and
// supplies no-op defaults for the optional capabilities.
type Component interface {
	// Kind identifies the variant; lookups on a GameObject use it.
	Kind() ComponentKind
	// Owner returns the GameObject this component is attached to, or nil.
	Owner() *GameObject
	// Start is called once before the first Update.
	Start()
	// Update advances the component by dt seconds.
	Update(dt float64)
	// Inspect describes the component's editable state for UI panels.
	Inspect() []Field
	// ColorOnly reports whether the component draws a flat colour without a
	// texture.
	ColorOnly() bool

	base() *BaseComponent
}

// Field is one row of an inspector description.
type Field struct {
	Label string
	Value any
}

// BaseComponent provides owner binding and default no-op capabilities.
type BaseComponent struct {
	owner *GameObject
}

// Owner returns the GameObject this component is attached to.
func (b *BaseComponent) Owner() *GameObject { return b.owner }

// Start is a no-op.
func (b *BaseComponent) Start() {}

// Update is a no-op.
func (b *BaseComponent) Update(float64) {}

// Inspect returns no fields.
func (b *BaseComponent) Inspect() []Field { return nil }

// ColorOnly returns false.
func (b *BaseComponent) ColorOnly() bool { return false }

func (b *BaseComponent) base() *BaseComponent { return b }

// detacher is implemented by components that hold resources outside the
// GameObject (a batch slot, for instance) and must release them when removed.
type detacher interface {
	detach()
}

// ComponentAs returns the first component of the given kind on g as T.
// The second result is false when g has no such component or it is not a T.
func ComponentAs[T Component](g *GameObject, kind ComponentKind) (T, bool) {
	var zero T
	c := g.GetComponent(kind)
	if c == nil {
		return zero, false
	}
	t, ok := c.(T)
	return t, ok
}
