package opengl

import (
	gl "github.com/go-gl/gl/v4.3-core/gl"
)

// quadVertices is two clip-space triangles covering the viewport.
var quadVertices = [12]float32{
	-1, -1,
	1, -1,
	1, 1,

	-1, -1,
	1, 1,
	-1, 1,
}

// Quad is the fullscreen geometry every pass draws. It carries no per-pass
// state.
type Quad struct {
	vao uint32
	vbo uint32
}

// NewQuad uploads the quad to a VAO with the position on attribute 0.
func NewQuad() *Quad {
	q := &Quad{}
	gl.GenVertexArrays(1, &q.vao)
	gl.GenBuffers(1, &q.vbo)

	gl.BindVertexArray(q.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, q.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(&quadVertices[0]), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 2*4, 0)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return q
}

// Draw issues the six-vertex draw call.
func (q *Quad) Draw() {
	gl.BindVertexArray(q.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
}

// Delete frees the VAO and VBO.
func (q *Quad) Delete() {
	if q.vbo != 0 {
		gl.DeleteBuffers(1, &q.vbo)
		q.vbo = 0
	}
	if q.vao != 0 {
		gl.DeleteVertexArrays(1, &q.vao)
		q.vao = 0
	}
}
