package arbor

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// whitePixel is the 1x1 source image for colour-only quads.
var whitePixel *ebiten.Image

func ensureWhitePixel() *ebiten.Image {
	if whitePixel == nil {
		whitePixel = ebiten.NewImage(1, 1)
		whitePixel.Fill(color.White)
	}
	return whitePixel
}

type ebitenBuffer struct {
	vertices []float32
	indices  []uint32
}

// EbitenGPU implements GPU on top of Ebitengine. Ebitengine binds one source
// image per DrawTriangles32 call, so a batch is submitted as one call per
// texture slot in use. Roundness is carried in the vertex data but not
// rendered by this backend.
type EbitenGPU struct {
	target  *ebiten.Image
	buffers map[BufferID]*ebitenBuffer
	nextID  BufferID

	// scratch, reused across frames
	verts []ebiten.Vertex
	inds  []uint32
	slots []float32
}

// NewEbitenGPU creates a backend. Set the target with SetTarget before each
// frame's Render.
func NewEbitenGPU() *EbitenGPU {
	return &EbitenGPU{buffers: make(map[BufferID]*ebitenBuffer)}
}

// SetTarget sets the image subsequent draw calls render into.
func (g *EbitenGPU) SetTarget(img *ebiten.Image) {
	g.target = img
}

// Alloc implements GPU.
func (g *EbitenGPU) Alloc(vertexFloats int, indices []uint32) (BufferID, error) {
	g.nextID++
	inds := make([]uint32, len(indices))
	copy(inds, indices)
	g.buffers[g.nextID] = &ebitenBuffer{
		vertices: make([]float32, vertexFloats),
		indices:  inds,
	}
	return g.nextID, nil
}

// Upload implements GPU.
func (g *EbitenGPU) Upload(id BufferID, vertices []float32) {
	if buf, ok := g.buffers[id]; ok {
		copy(buf.vertices, vertices)
	}
}

// Free implements GPU.
func (g *EbitenGPU) Free(id BufferID) {
	delete(g.buffers, id)
}

// Draw implements GPU.
func (g *EbitenGPU) Draw(call DrawCall) {
	buf, ok := g.buffers[call.Buffer]
	if !ok || g.target == nil || call.IndexCount == 0 {
		return
	}
	quads := call.IndexCount / indicesPerQuad
	nverts := quads * verticesPerQuad

	if cap(g.verts) < nverts {
		g.verts = make([]ebiten.Vertex, nverts)
		g.slots = make([]float32, quads)
	}
	g.verts = g.verts[:nverts]
	g.slots = g.slots[:quads]

	for q := 0; q < quads; q++ {
		base := q * verticesPerQuad * VertexFloats
		slot := buf.vertices[base+slotOffset]
		g.slots[q] = slot
		img := g.slotImage(call.Textures, int(slot))
		b := img.Bounds()
		w, h := float32(b.Dx()), float32(b.Dy())
		for v := 0; v < verticesPerQuad; v++ {
			src := buf.vertices[base+v*VertexFloats : base+(v+1)*VertexFloats]
			a := src[colorOffset+3]
			g.verts[q*verticesPerQuad+v] = ebiten.Vertex{
				DstX:   src[posOffset],
				DstY:   src[posOffset+1],
				SrcX:   float32(b.Min.X) + src[uvOffset]*w,
				SrcY:   float32(b.Min.Y) + src[uvOffset+1]*h,
				ColorR: src[colorOffset] * a,
				ColorG: src[colorOffset+1] * a,
				ColorB: src[colorOffset+2] * a,
				ColorA: a,
			}
		}
	}

	var op ebiten.DrawTrianglesOptions
	op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha

	for slot := 0; slot <= len(call.Textures); slot++ {
		g.inds = g.inds[:0]
		for q := 0; q < quads; q++ {
			if int(g.slots[q]) != slot {
				continue
			}
			g.inds = append(g.inds, buf.indices[q*indicesPerQuad:(q+1)*indicesPerQuad]...)
		}
		if len(g.inds) == 0 {
			continue
		}
		g.target.DrawTriangles32(g.verts, g.inds, g.slotImage(call.Textures, slot), &op)
	}
}

// slotImage resolves a texture slot to a source image. Missing textures draw
// as magenta.
func (g *EbitenGPU) slotImage(textures []*Texture, slot int) *ebiten.Image {
	if slot <= 0 || slot > len(textures) {
		return ensureWhitePixel()
	}
	tex := textures[slot-1]
	if tex == nil || tex.Missing || tex.Image == nil {
		return ensureMagentaImage()
	}
	return tex.Image
}
