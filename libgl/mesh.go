package libgl

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.5-core/gl"
)

type PrimitiveMode uint32

const (
	Points        PrimitiveMode = gl.POINTS
	LineStrip     PrimitiveMode = gl.LINE_STRIP
	LineLoop      PrimitiveMode = gl.LINE_LOOP
	Lines         PrimitiveMode = gl.LINES
	TriangleStrip PrimitiveMode = gl.TRIANGLE_STRIP
	TriangleFan   PrimitiveMode = gl.TRIANGLE_FAN
	Triangles     PrimitiveMode = gl.TRIANGLES
)

// Mesh is a collection of vertex buffers drawn with one primitive mode.
// Vertex buffer i feeds attribute location i. The mesh does not own its buffers.
type Mesh struct {
	mode          PrimitiveMode
	vao           UnboundVertexArray
	indexBuffer   *IndexBuffer
	vertexBuffers []*VertexBuffer
}

func NewMesh(mode PrimitiveMode, indexBuffer *IndexBuffer, vertexBuffers ...*VertexBuffer) (*Mesh, error) {
	if len(vertexBuffers) == 0 {
		return nil, errors.New("mesh needs at least one vertex buffer")
	}
	if _, err := countVertices(vertexBuffers); err != nil {
		return nil, err
	}

	vao := NewVertexArray()
	for i, vb := range vertexBuffers {
		vao.Layout(i, i, vb.entriesPerVertex, gl.FLOAT, false, 0)
		vao.BindBuffer(i, vb.buffer, 0, vb.entriesPerVertex*FloatSize)
	}
	if indexBuffer != nil {
		vao.BindElementBuffer(indexBuffer.buffer)
	}

	return &Mesh{
		mode:          mode,
		vao:           vao,
		indexBuffer:   indexBuffer,
		vertexBuffers: vertexBuffers,
	}, nil
}

func countVertices(vertexBuffers []*VertexBuffer) (int, error) {
	count := vertexBuffers[0].NumberOfVertices()
	for i, vb := range vertexBuffers[1:] {
		if vb.NumberOfVertices() != count {
			return 0, fmt.Errorf("vertex buffer %d has %d vertices, expected %d", i+1, vb.NumberOfVertices(), count)
		}
	}
	return count, nil
}

// Draw issues one draw call for the whole mesh using the currently bound pipeline and framebuffer.
func (m *Mesh) Draw() error {
	count, err := countVertices(m.vertexBuffers)
	if err != nil {
		return err
	}
	m.vao.Bind()
	if m.indexBuffer != nil {
		gl.DrawElements(uint32(m.mode), int32(m.indexBuffer.Len()), gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(uint32(m.mode), 0, int32(count))
	}
	return nil
}

func (m *Mesh) SetDebugLabel(label string) {
	m.vao.SetDebugLabel(label)
}

func (m *Mesh) Delete() {
	m.vao.Delete()
}
