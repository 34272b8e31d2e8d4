package arbor

// SpriteRenderer draws its owner as a quad: textured when a Texture is set,
// otherwise a flat colour. It tracks its owner's transform by value and marks
// itself dirty when the transform changed since the last sync, so the batch
// holding it regenerates only the vertices that changed.
type SpriteRenderer struct {
	BaseComponent

	color   Color
	texture *Texture

	lastTransform Transform
	dirty         bool

	renderer *Renderer
	batch    *RenderBatch
	queued   bool // waiting in the renderer's rebatch queue
}

// NewSpriteRenderer creates a textured sprite with a white tint.
func NewSpriteRenderer(tex *Texture) *SpriteRenderer {
	return &SpriteRenderer{color: ColorWhite, texture: tex, dirty: true}
}

// NewColorSprite creates a colour-only sprite.
func NewColorSprite(c Color) *SpriteRenderer {
	return &SpriteRenderer{color: c, dirty: true}
}

// Kind returns KindSpriteRenderer.
func (s *SpriteRenderer) Kind() ComponentKind { return KindSpriteRenderer }

// ColorOnly reports whether the sprite has no texture.
func (s *SpriteRenderer) ColorOnly() bool { return s.texture == nil }

// Start captures the owner's transform.
func (s *SpriteRenderer) Start() {
	if s.owner != nil {
		s.lastTransform = s.owner.Transform
	}
	s.dirty = true
}

// Update re-syncs the cached transform.
func (s *SpriteRenderer) Update(float64) {
	s.SyncTransform()
}

// SyncTransform compares the cached transform snapshot with the owner's
// current transform. On mismatch it refreshes the cache, marks the sprite
// dirty and returns true.
func (s *SpriteRenderer) SyncTransform() bool {
	if s.owner == nil || s.lastTransform.Equal(s.owner.Transform) {
		return false
	}
	s.lastTransform = s.owner.Transform
	s.dirty = true
	return true
}

// Color returns the tint (or the flat colour for colour-only sprites).
func (s *SpriteRenderer) Color() Color { return s.color }

// SetColor changes the tint.
func (s *SpriteRenderer) SetColor(c Color) {
	if s.color == c {
		return
	}
	s.color = c
	s.dirty = true
}

// Texture returns the sprite texture, or nil for colour-only sprites.
func (s *SpriteRenderer) Texture() *Texture { return s.texture }

// SetTexture swaps the texture. A batched sprite is queued for rebatching
// because its batch may not have the new texture bound or a free slot.
func (s *SpriteRenderer) SetTexture(tex *Texture) {
	if s.texture == tex {
		return
	}
	s.texture = tex
	s.dirty = true
	s.requestRebatch()
}

// IsDirty reports whether the sprite's vertices need regenerating.
func (s *SpriteRenderer) IsDirty() bool { return s.dirty }

// MarkDirty forces vertex regeneration on the next render.
func (s *SpriteRenderer) MarkDirty() { s.dirty = true }

func (s *SpriteRenderer) clearDirty() { s.dirty = false }

// Batch returns the batch currently holding the sprite, or nil.
func (s *SpriteRenderer) Batch() *RenderBatch { return s.batch }

// ZIndex returns the owner's z-index, or 0 when unattached.
func (s *SpriteRenderer) ZIndex() int {
	if s.owner == nil {
		return 0
	}
	return s.owner.zIndex
}

// Inspect describes the sprite for UI panels.
func (s *SpriteRenderer) Inspect() []Field {
	if s.texture == nil {
		return []Field{{Label: "Color", Value: s.color}}
	}
	return []Field{
		{Label: "Texture", Value: s.texture.Path},
		{Label: "Tint", Value: s.color},
	}
}

func (s *SpriteRenderer) requestRebatch() {
	if s.renderer != nil {
		s.renderer.RequestRebatch(s)
	}
}

func (s *SpriteRenderer) detach() {
	if s.renderer != nil {
		s.renderer.removeSprite(s)
	}
}
