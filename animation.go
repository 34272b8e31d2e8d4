package arbor

// Frame is one step of a flip-book animation.
type Frame struct {
	Texture  *Texture
	Duration float64 // seconds
}

// Animation flips the owner's sprite texture through a list of frames. Each
// texture change goes through SpriteRenderer.SetTexture, so the sprite is
// rebatched when the new frame's texture is not bound in its batch.
type Animation struct {
	BaseComponent

	Loop bool

	frames  []Frame
	current int
	elapsed float64
	playing bool
}

// NewAnimation creates a playing animation.
func NewAnimation(frames []Frame, loop bool) *Animation {
	return &Animation{frames: frames, Loop: loop, playing: true}
}

// Kind returns KindAnimation.
func (a *Animation) Kind() ComponentKind { return KindAnimation }

// Start shows the current frame.
func (a *Animation) Start() {
	a.show()
}

// Play resumes playback.
func (a *Animation) Play() { a.playing = true }

// Stop pauses playback on the current frame.
func (a *Animation) Stop() { a.playing = false }

// Playing reports whether the animation advances on Update.
func (a *Animation) Playing() bool { return a.playing }

// Frame returns the index of the frame being shown.
func (a *Animation) Frame() int { return a.current }

// Reset rewinds to the first frame.
func (a *Animation) Reset() {
	a.current = 0
	a.elapsed = 0
	a.show()
}

// Update advances playback by dt seconds. A non-looping animation stops on
// its last frame.
func (a *Animation) Update(dt float64) {
	if !a.playing || len(a.frames) == 0 {
		return
	}
	a.elapsed += dt
	changed := false
	for a.playing {
		d := a.frames[a.current].Duration
		if d > 0 && a.elapsed < d {
			break
		}
		if d > 0 {
			a.elapsed -= d
		} else {
			a.elapsed = 0
		}
		next := a.current + 1
		if next >= len(a.frames) {
			if !a.Loop {
				a.playing = false
				break
			}
			next = 0
		}
		a.current = next
		changed = true
		if d <= 0 {
			break
		}
	}
	if changed {
		a.show()
	}
}

// Inspect describes the animation for UI panels.
func (a *Animation) Inspect() []Field {
	return []Field{
		{Label: "Frames", Value: len(a.frames)},
		{Label: "Frame", Value: a.current},
		{Label: "Loop", Value: a.Loop},
		{Label: "Playing", Value: a.playing},
	}
}

func (a *Animation) show() {
	if a.owner == nil || len(a.frames) == 0 {
		return
	}
	if sr := a.owner.SpriteRenderer(); sr != nil {
		sr.SetTexture(a.frames[a.current].Texture)
	}
}
