package arbor

// BufferID names a vertex/index buffer pair allocated on a GPU.
type BufferID uint32

// DrawCall submits the first IndexCount indices of a buffer with the given
// textures bound to slots 1..len(Textures). Slot 0 is the untextured slot
// used by colour-only sprites.
type DrawCall struct {
	Buffer     BufferID
	IndexCount int
	Textures   []*Texture
}

// GPU is the narrow contract the batching engine needs from a graphics
// backend. Vertices use the layout described by VertexFloats.
type GPU interface {
	// Alloc creates a buffer pair sized for vertexFloats floats and uploads
	// the static index buffer.
	Alloc(vertexFloats int, indices []uint32) (BufferID, error)
	// Upload replaces the leading part of a buffer's vertex data.
	Upload(id BufferID, vertices []float32)
	// Draw submits a draw call.
	Draw(call DrawCall)
	// Free releases a buffer pair.
	Free(id BufferID)
}
