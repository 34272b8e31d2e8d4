package arbor

import "fmt"

// Vertex layout. Every vertex is VertexFloats float32 values:
//
//	position(2) color(4) uv(2) texture slot(1) roundness(1)
//
// Texture slot 0 is the untextured slot; slot i (1-based) samples the batch's
// i-th bound texture.
const (
	posOffset    = 0
	colorOffset  = 2
	uvOffset     = 6
	slotOffset   = 8
	roundOffset  = 9
	VertexFloats = 10

	verticesPerQuad = 4
	indicesPerQuad  = 6
)

// Default batch limits.
const (
	DefaultMaxBatchSprites = 1000
	DefaultTextureSlots    = 8
)

// quadCorners are the unit-quad corner offsets in winding order:
// bottom-right, bottom-left, top-left, top-right (Y grows downward).
var quadCorners = [verticesPerQuad][2]float64{
	{0.5, 0.5},
	{-0.5, 0.5},
	{-0.5, -0.5},
	{0.5, -0.5},
}

// quadUVs match quadCorners.
var quadUVs = [verticesPerQuad][2]float32{
	{1, 1},
	{0, 1},
	{0, 0},
	{1, 0},
}

// quadIndices are the two triangles of a quad, sharing the BR-TL diagonal.
var quadIndices = [indicesPerQuad]uint32{0, 1, 2, 2, 3, 0}

type batchState uint8

const (
	batchConstructing batchState = iota // accepting sprites, no GPU buffers
	batchStarted                        // buffers allocated, can render
)

// RenderBatch holds up to a fixed number of same-z sprites sharing a small
// set of bound textures, drawn with a single submission.
//
// Invariants: every sprite has the batch's z-index; the sprite count never
// exceeds capacity; at most maxTextures distinct textures are bound.
type RenderBatch struct {
	zIndex      int
	sprites     []*SpriteRenderer // fixed length == capacity, first numSprites used
	numSprites  int
	textures    []*Texture
	maxTextures int

	vertices []float32
	indices  []uint32
	state    batchState
	buffer   BufferID
	rebuffer bool
}

func newRenderBatch(maxSprites, maxTextures, zIndex int) *RenderBatch {
	if maxSprites <= 0 {
		maxSprites = DefaultMaxBatchSprites
	}
	if maxTextures <= 0 {
		maxTextures = DefaultTextureSlots
	}
	return &RenderBatch{
		zIndex:      zIndex,
		sprites:     make([]*SpriteRenderer, maxSprites),
		textures:    make([]*Texture, 0, maxTextures),
		maxTextures: maxTextures,
		vertices:    make([]float32, maxSprites*verticesPerQuad*VertexFloats),
	}
}

// Start allocates the batch's GPU buffers and uploads the index buffer,
// precomputed for full capacity. Only the first call has an effect.
func (b *RenderBatch) Start(gpu GPU) error {
	if b.state == batchStarted {
		return nil
	}
	b.indices = generateIndices(len(b.sprites))
	id, err := gpu.Alloc(len(b.vertices), b.indices)
	if err != nil {
		return fmt.Errorf("allocate batch buffers (z=%d): %w", b.zIndex, err)
	}
	b.buffer = id
	b.state = batchStarted
	b.rebuffer = true
	return nil
}

// generateIndices builds the index buffer for n quads.
func generateIndices(n int) []uint32 {
	inds := make([]uint32, n*indicesPerQuad)
	for q := 0; q < n; q++ {
		base := uint32(q * verticesPerQuad)
		for i, idx := range quadIndices {
			inds[q*indicesPerQuad+i] = base + idx
		}
	}
	return inds
}

// Started reports whether GPU buffers have been allocated.
func (b *RenderBatch) Started() bool { return b.state == batchStarted }

// ZIndex returns the batch's z-index.
func (b *RenderBatch) ZIndex() int { return b.zIndex }

// Len returns the number of sprites in the batch.
func (b *RenderBatch) Len() int { return b.numSprites }

// Cap returns the batch's sprite capacity.
func (b *RenderBatch) Cap() int { return len(b.sprites) }

// HasRoom reports whether another sprite fits.
func (b *RenderBatch) HasRoom() bool { return b.numSprites < len(b.sprites) }

// HasTextureRoom reports whether another texture can be bound.
func (b *RenderBatch) HasTextureRoom() bool { return len(b.textures) < b.maxTextures }

// HasTexture reports whether tex is bound in this batch.
func (b *RenderBatch) HasTexture(tex *Texture) bool {
	return b.textureSlot(tex) >= 0
}

// Textures returns the bound textures. The returned slice MUST NOT be mutated.
func (b *RenderBatch) Textures() []*Texture { return b.textures }

// Sprites returns the sprites in the batch. The returned slice MUST NOT be mutated.
func (b *RenderBatch) Sprites() []*SpriteRenderer { return b.sprites[:b.numSprites] }

// CanHost reports whether s may be inserted: same z-index, free capacity, and
// either no texture, an already-bound texture or a free texture slot.
func (b *RenderBatch) CanHost(s *SpriteRenderer) bool {
	if s.ZIndex() != b.zIndex || !b.HasRoom() {
		return false
	}
	tex := s.texture
	return tex == nil || b.HasTexture(tex) || b.HasTextureRoom()
}

// add inserts s if CanHost allows it. Capacity is checked before any write.
func (b *RenderBatch) add(s *SpriteRenderer) bool {
	if !b.CanHost(s) {
		return false
	}
	if s.texture != nil && !b.HasTexture(s.texture) {
		b.textures = append(b.textures, s.texture)
	}
	idx := b.numSprites
	b.sprites[idx] = s
	b.numSprites++
	s.batch = b
	b.loadVertexProperties(idx)
	s.clearDirty()
	b.rebuffer = true
	return true
}

// remove takes s out of the batch and compacts the sprite array so the
// freed capacity is reusable. Textures no longer referenced are unbound.
func (b *RenderBatch) remove(s *SpriteRenderer) bool {
	at := -1
	for i := 0; i < b.numSprites; i++ {
		if b.sprites[i] == s {
			at = i
			break
		}
	}
	if at < 0 {
		return false
	}
	copy(b.sprites[at:b.numSprites], b.sprites[at+1:b.numSprites])
	b.numSprites--
	b.sprites[b.numSprites] = nil
	s.batch = nil

	if b.unbindUnused() {
		// Slot numbers shifted: every vertex needs its slot rewritten.
		at = 0
	}
	for i := at; i < b.numSprites; i++ {
		b.loadVertexProperties(i)
	}
	b.rebuffer = true
	return true
}

// unbindUnused drops bound textures no sprite references any more.
// Reports whether anything was dropped.
func (b *RenderBatch) unbindUnused() bool {
	kept := b.textures[:0]
	for _, tex := range b.textures {
		for i := 0; i < b.numSprites; i++ {
			if b.sprites[i].texture == tex {
				kept = append(kept, tex)
				break
			}
		}
	}
	dropped := len(kept) != len(b.textures)
	for i := len(kept); i < len(b.textures); i++ {
		b.textures[i] = nil
	}
	b.textures = kept
	return dropped
}

func (b *RenderBatch) textureSlot(tex *Texture) int {
	for i, t := range b.textures {
		if t == tex {
			return i
		}
	}
	return -1
}

// loadVertexProperties writes the four vertices of the sprite at index.
func (b *RenderBatch) loadVertexProperties(index int) {
	s := b.sprites[index]
	t := s.owner.Transform
	m := localMatrix(t)
	c := s.color

	var slot float32
	if s.texture != nil {
		slot = float32(b.textureSlot(s.texture) + 1)
	}
	round := float32(t.Roundness())

	off := index * verticesPerQuad * VertexFloats
	for i, corner := range quadCorners {
		x, y := transformPoint(m, corner[0], corner[1])
		v := b.vertices[off : off+VertexFloats]
		v[posOffset] = float32(x)
		v[posOffset+1] = float32(y)
		v[colorOffset] = float32(c.R)
		v[colorOffset+1] = float32(c.G)
		v[colorOffset+2] = float32(c.B)
		v[colorOffset+3] = float32(c.A)
		v[uvOffset] = quadUVs[i][0]
		v[uvOffset+1] = quadUVs[i][1]
		v[slotOffset] = slot
		v[roundOffset] = round
		off += VertexFloats
	}
}

// render syncs sprite transforms, regenerates vertices of dirty sprites, re-uploads the vertex buffer
// if anything changed, and submits one draw call. Returns whether a draw
// call was issued.
func (b *RenderBatch) render(gpu GPU) bool {
	if b.state != batchStarted || b.numSprites == 0 {
		return false
	}
	for i := 0; i < b.numSprites; i++ {
		s := b.sprites[i]
		s.SyncTransform()
		if s.dirty {
			b.loadVertexProperties(i)
			s.clearDirty()
			b.rebuffer = true
		}
	}
	if b.rebuffer {
		gpu.Upload(b.buffer, b.vertices[:b.numSprites*verticesPerQuad*VertexFloats])
		b.rebuffer = false
	}
	gpu.Draw(DrawCall{
		Buffer:     b.buffer,
		IndexCount: b.numSprites * indicesPerQuad,
		Textures:   b.textures,
	})
	return true
}

// dispose frees GPU buffers and detaches every sprite.
func (b *RenderBatch) dispose(gpu GPU) {
	for i := 0; i < b.numSprites; i++ {
		b.sprites[i].batch = nil
		b.sprites[i] = nil
	}
	b.numSprites = 0
	b.textures = b.textures[:0]
	if b.state == batchStarted {
		gpu.Free(b.buffer)
		b.state = batchConstructing
	}
}
