package libgl

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.5-core/gl"
)

const (
	FloatSize = 4
	IntSize   = 4
)

var ErrVertexDataSize = errors.New("vertex buffer data must be divisible by the number of entries per vertex")

// VertexBuffer is a list of float vertex attribute data stored GPU-side.
// The number of vertices is len(entries) / entriesPerVertex.
type VertexBuffer struct {
	buffer           UnboundBuffer
	entriesPerVertex int
	entries          int
}

func checkVertexData(entriesPerVertex int, entries []float32) error {
	if entriesPerVertex < 1 {
		return fmt.Errorf("entries per vertex must be positive, got %d", entriesPerVertex)
	}
	if len(entries)%entriesPerVertex != 0 {
		return fmt.Errorf("%w: %d entries, %d per vertex", ErrVertexDataSize, len(entries), entriesPerVertex)
	}
	return nil
}

// NewVertexBuffer creates a buffer populated with entries, which may be empty.
// Invalid data is rejected before any GL object is created.
func NewVertexBuffer(entriesPerVertex int, entries []float32) (*VertexBuffer, error) {
	if err := checkVertexData(entriesPerVertex, entries); err != nil {
		return nil, err
	}
	vb := &VertexBuffer{
		buffer:           NewBuffer(),
		entriesPerVertex: entriesPerVertex,
	}
	vb.upload(entries)
	return vb, nil
}

// Set replaces the entire contents. The device buffer is only reallocated when it has to grow.
func (vb *VertexBuffer) Set(entries []float32) error {
	if err := checkVertexData(vb.entriesPerVertex, entries); err != nil {
		return err
	}
	vb.upload(entries)
	return nil
}

func (vb *VertexBuffer) upload(entries []float32) {
	size := len(entries) * FloatSize
	if size > vb.buffer.Size() {
		vb.buffer.AllocateMutable(entries, gl.DYNAMIC_DRAW)
	} else if size > 0 {
		vb.buffer.Write(0, entries)
	}
	vb.entries = len(entries)
}

func (vb *VertexBuffer) EntriesPerVertex() int {
	return vb.entriesPerVertex
}

func (vb *VertexBuffer) NumberOfVertices() int {
	return vb.entries / vb.entriesPerVertex
}

// Capacity is the size of the device buffer in bytes.
func (vb *VertexBuffer) Capacity() int {
	return vb.buffer.Size()
}

func (vb *VertexBuffer) Buffer() UnboundBuffer {
	return vb.buffer
}

func (vb *VertexBuffer) SetDebugLabel(label string) {
	vb.buffer.SetDebugLabel(label)
}

// Delete frees the device buffer. Calling it more than once is safe.
func (vb *VertexBuffer) Delete() {
	vb.buffer.Delete()
	vb.entries = 0
}

// IndexBuffer holds 32 bit element indices GPU-side.
type IndexBuffer struct {
	buffer  UnboundBuffer
	entries int
}

func NewIndexBuffer(entries []uint32) *IndexBuffer {
	ib := &IndexBuffer{
		buffer: NewBuffer(),
	}
	ib.Set(entries)
	return ib
}

// Set replaces the entire contents. The device buffer is only reallocated when it has to grow.
func (ib *IndexBuffer) Set(entries []uint32) {
	size := len(entries) * IntSize
	if size > ib.buffer.Size() {
		ib.buffer.AllocateMutable(entries, gl.DYNAMIC_DRAW)
	} else if size > 0 {
		ib.buffer.Write(0, entries)
	}
	ib.entries = len(entries)
}

func (ib *IndexBuffer) Len() int {
	return ib.entries
}

func (ib *IndexBuffer) Capacity() int {
	return ib.buffer.Size()
}

func (ib *IndexBuffer) Delete() {
	ib.buffer.Delete()
	ib.entries = 0
}
