package arbor

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// RendererConfig sets batch limits. Zero values fall back to the defaults.
type RendererConfig struct {
	MaxBatchSprites int
	TextureSlots    int
	// Debug logs per-frame stats and verifies batch invariants after every
	// rebatch pass.
	Debug bool
}

// Renderer assigns sprites to batches and draws the batches in z order.
//
// Placement is first-fit: batches are scanned in z order and the first one
// with the sprite's z-index, free capacity and a usable texture slot wins.
// When none qualifies a new batch is started and inserted after every batch
// with a lower or equal z-index, so ties keep insertion order.
type Renderer struct {
	gpu     GPU
	cfg     RendererConfig
	log     *zap.Logger
	batches []*RenderBatch
	pending []*SpriteRenderer
	stats   RenderStats
}

// NewRenderer creates a renderer drawing through gpu.
func NewRenderer(gpu GPU, cfg RendererConfig, log *zap.Logger) *Renderer {
	if cfg.MaxBatchSprites <= 0 {
		cfg.MaxBatchSprites = DefaultMaxBatchSprites
	}
	if cfg.TextureSlots <= 0 {
		cfg.TextureSlots = DefaultTextureSlots
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{gpu: gpu, cfg: cfg, log: log}
}

// Add batches g's sprite, if it has one.
func (r *Renderer) Add(g *GameObject) {
	if sr := g.SpriteRenderer(); sr != nil {
		r.AddSprite(sr)
	}
}

// AddSprite places s in a batch. No-op if s is already batched here.
// Panics if s is not attached to a GameObject.
func (r *Renderer) AddSprite(s *SpriteRenderer) {
	if s.owner == nil {
		panic("arbor: cannot batch a sprite without an owner")
	}
	if s.renderer == r && s.batch != nil {
		return
	}
	if s.renderer != nil && s.renderer != r {
		s.renderer.removeSprite(s)
	}
	s.renderer = r
	r.place(s)
}

// place runs first-fit placement, starting a new batch when nothing fits.
func (r *Renderer) place(s *SpriteRenderer) {
	z := s.ZIndex()
	for _, b := range r.batches {
		if b.zIndex > z {
			break
		}
		if b.add(s) {
			return
		}
	}
	b := newRenderBatch(r.cfg.MaxBatchSprites, r.cfg.TextureSlots, z)
	if err := b.Start(r.gpu); err != nil {
		r.log.Error("start render batch", zap.Int("z", z), zap.Error(err))
	}
	b.add(s)
	r.insertBatch(b)
}

// insertBatch keeps r.batches stably sorted by z-index.
func (r *Renderer) insertBatch(b *RenderBatch) {
	i := sort.Search(len(r.batches), func(i int) bool {
		return r.batches[i].zIndex > b.zIndex
	})
	r.batches = append(r.batches, nil)
	copy(r.batches[i+1:], r.batches[i:])
	r.batches[i] = b
}

// DestroyIfExists removes g's sprite from its batch and from the rebatch
// queue. Reports whether the sprite was batched.
func (r *Renderer) DestroyIfExists(g *GameObject) bool {
	sr := g.SpriteRenderer()
	if sr == nil || sr.renderer != r {
		return false
	}
	return r.removeSprite(sr)
}

func (r *Renderer) removeSprite(s *SpriteRenderer) bool {
	removed := r.unplace(s)
	r.dequeue(s)
	s.renderer = nil
	return removed
}

// unplace takes s out of its batch. The scan is over batches, not sprites.
func (r *Renderer) unplace(s *SpriteRenderer) bool {
	for _, b := range r.batches {
		if s.batch == b {
			return b.remove(s)
		}
	}
	return false
}

func (r *Renderer) dequeue(s *SpriteRenderer) {
	if !s.queued {
		return
	}
	s.queued = false
	for i, p := range r.pending {
		if p == s {
			copy(r.pending[i:], r.pending[i+1:])
			r.pending[len(r.pending)-1] = nil
			r.pending = r.pending[:len(r.pending)-1]
			return
		}
	}
}

// RequestRebatch queues s for removal and reinsertion. Call it when the
// sprite's texture or z-index changed after placement. The queue is drained
// at the start of Render, before any batch is drawn.
func (r *Renderer) RequestRebatch(s *SpriteRenderer) {
	if s.renderer != r || s.queued {
		return
	}
	s.queued = true
	r.pending = append(r.pending, s)
}

// Pending returns the number of sprites waiting to be rebatched.
func (r *Renderer) Pending() int {
	return len(r.pending)
}

// processRebatches drains the rebatch queue.
func (r *Renderer) processRebatches() int {
	n := len(r.pending)
	for i, s := range r.pending {
		r.pending[i] = nil
		s.queued = false
		if s.renderer != r || s.owner == nil {
			continue
		}
		r.unplace(s)
		r.place(s)
	}
	r.pending = r.pending[:0]
	return n
}

// Render drains the rebatch queue and draws every non-empty batch in z order.
func (r *Renderer) Render() {
	var t0 time.Time
	if r.cfg.Debug {
		t0 = time.Now()
	}

	stats := RenderStats{Rebatched: r.processRebatches()}
	if r.cfg.Debug && stats.Rebatched > 0 {
		if err := r.VerifyBatches(); err != nil {
			r.log.Error("batch invariant violated", zap.Error(err))
		}
	}

	for _, b := range r.batches {
		if b.render(r.gpu) {
			stats.DrawCalls++
			stats.Sprites += b.numSprites
		}
	}
	stats.Batches = len(r.batches)

	if r.cfg.Debug {
		stats.RenderTime = time.Since(t0)
		r.debugLog(stats)
	}
	r.stats = stats
}

// Batches returns the z-sorted batch list. The returned slice MUST NOT be mutated.
func (r *Renderer) Batches() []*RenderBatch {
	return r.batches
}

// Stats returns the numbers gathered by the last Render.
func (r *Renderer) Stats() RenderStats {
	return r.stats
}

// Clear detaches every sprite and frees all batches.
func (r *Renderer) Clear() {
	for _, s := range r.pending {
		s.queued = false
	}
	r.pending = r.pending[:0]
	for _, b := range r.batches {
		for i := 0; i < b.numSprites; i++ {
			b.sprites[i].renderer = nil
		}
		b.dispose(r.gpu)
	}
	r.batches = r.batches[:0]
}
