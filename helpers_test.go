package arbor

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

// fakeGPU records every call the batching engine makes.
type fakeGPU struct {
	next     BufferID
	live     map[BufferID]int // buffer -> vertex float count
	indices  map[BufferID][]uint32
	uploads  map[BufferID]int
	last     map[BufferID][]float32
	draws    []DrawCall
	freed    []BufferID
	allocErr error
}

func newFakeGPU() *fakeGPU {
	return &fakeGPU{
		live:    make(map[BufferID]int),
		indices: make(map[BufferID][]uint32),
		uploads: make(map[BufferID]int),
		last:    make(map[BufferID][]float32),
	}
}

func (g *fakeGPU) Alloc(vertexFloats int, indices []uint32) (BufferID, error) {
	if g.allocErr != nil {
		return 0, g.allocErr
	}
	g.next++
	g.live[g.next] = vertexFloats
	g.indices[g.next] = append([]uint32(nil), indices...)
	return g.next, nil
}

func (g *fakeGPU) Upload(id BufferID, vertices []float32) {
	g.uploads[id]++
	g.last[id] = append(g.last[id][:0], vertices...)
}

func (g *fakeGPU) Draw(call DrawCall) {
	call.Textures = append([]*Texture(nil), call.Textures...)
	g.draws = append(g.draws, call)
}

func (g *fakeGPU) Free(id BufferID) {
	delete(g.live, id)
	g.freed = append(g.freed, id)
}

func (g *fakeGPU) resetDraws() { g.draws = g.draws[:0] }

var errNoVRAM = errors.New("out of video memory")

// newTestView returns a view drawing into a fake GPU.
func newTestView(t *testing.T) (*View, *fakeGPU) {
	t.Helper()
	gpu := newFakeGPU()
	v := NewView("test", ViewConfig{GPU: gpu})
	return v, gpu
}

func at(x, y float64) Transform {
	return NewTransform(mgl64.Vec2{x, y}, mgl64.Vec2{1, 1})
}

func newObject(id uint32, name string, x, y float64, z int) *GameObject {
	return NewGameObject(id, name, at(x, y), z)
}

func newColorObject(id uint32, name string, z int) *GameObject {
	g := NewGameObject(id, name, NewTransform(mgl64.Vec2{}, mgl64.Vec2{10, 10}), z)
	g.AddComponent(NewColorSprite(Color{R: 1, A: 1}))
	return g
}

func newTexturedObject(id uint32, name string, z int, tex *Texture) *GameObject {
	g := NewGameObject(id, name, NewTransform(mgl64.Vec2{}, mgl64.Vec2{10, 10}), z)
	g.AddComponent(NewSpriteRenderer(tex))
	return g
}

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertVec(t *testing.T, name string, got, want mgl64.Vec2) {
	t.Helper()
	if math.Abs(got.X()-want.X()) > epsilon || math.Abs(got.Y()-want.Y()) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertPanics(t *testing.T, name, contains string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Errorf("%s: expected panic", name)
			return
		}
		if msg, ok := r.(string); ok && !strings.Contains(msg, contains) {
			t.Errorf("%s: panic %q does not mention %q", name, msg, contains)
		}
	}()
	fn()
}

func verify(t *testing.T, r *Renderer) {
	t.Helper()
	if err := r.VerifyBatches(); err != nil {
		t.Fatalf("VerifyBatches: %v", err)
	}
}

// vertex returns the floats of corner c of the sprite at index i in b.
func vertex(b *RenderBatch, i, c int) []float32 {
	off := (i*verticesPerQuad + c) * VertexFloats
	return b.vertices[off : off+VertexFloats]
}

// countingComponent records Start/Update calls into a shared log.
type countingComponent struct {
	BaseComponent
	kind    ComponentKind
	label   string
	log     *[]string
	starts  int
	updates int
	panicOn bool
}

func (c *countingComponent) Kind() ComponentKind { return c.kind }

func (c *countingComponent) Start() {
	c.starts++
	if c.log != nil {
		*c.log = append(*c.log, c.label+".start")
	}
}

func (c *countingComponent) Update(float64) {
	c.updates++
	if c.log != nil {
		*c.log = append(*c.log, c.label+".update")
	}
	if c.panicOn {
		panic("boom")
	}
}

func (c *countingComponent) Clone() Component {
	return &countingComponent{kind: c.kind, label: c.label, log: c.log}
}
