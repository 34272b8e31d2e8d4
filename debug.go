package arbor

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RenderStats holds per-frame batching metrics.
type RenderStats struct {
	Batches    int // batches allocated
	DrawCalls  int // batches actually submitted
	Sprites    int // sprites drawn
	Rebatched  int // sprites moved by the rebatch queue this frame
	RenderTime time.Duration
}

// debugLog writes frame stats at debug level.
func (r *Renderer) debugLog(stats RenderStats) {
	r.log.Debug("render",
		zap.Duration("time", stats.RenderTime),
		zap.Int("batches", stats.Batches),
		zap.Int("drawCalls", stats.DrawCalls),
		zap.Int("sprites", stats.Sprites),
		zap.Int("rebatched", stats.Rebatched),
	)
}

// VerifyBatches checks the batching invariants: batches sorted by z, every
// sprite sharing its batch's z-index and back-pointer, capacity respected,
// and no more distinct textures than slots. Sprites still waiting in the
// rebatch queue are exempt from the z check.
func (r *Renderer) VerifyBatches() error {
	for i, b := range r.batches {
		if i > 0 && r.batches[i-1].zIndex > b.zIndex {
			return fmt.Errorf("batch %d: z %d sorted after z %d", i, b.zIndex, r.batches[i-1].zIndex)
		}
		if b.numSprites > len(b.sprites) {
			return fmt.Errorf("batch %d: %d sprites exceed capacity %d", i, b.numSprites, len(b.sprites))
		}
		distinct := make(map[*Texture]struct{}, len(b.textures))
		for j := 0; j < b.numSprites; j++ {
			s := b.sprites[j]
			if s == nil {
				return fmt.Errorf("batch %d: nil sprite at %d", i, j)
			}
			if s.batch != b {
				return fmt.Errorf("batch %d: sprite %d has a stale batch pointer", i, j)
			}
			if !s.queued && s.ZIndex() != b.zIndex {
				return fmt.Errorf("batch %d: sprite z %d in batch z %d", i, s.ZIndex(), b.zIndex)
			}
			if s.texture != nil {
				distinct[s.texture] = struct{}{}
			}
		}
		if len(distinct) > b.maxTextures {
			return fmt.Errorf("batch %d: %d textures exceed %d slots", i, len(distinct), b.maxTextures)
		}
	}
	return nil
}
