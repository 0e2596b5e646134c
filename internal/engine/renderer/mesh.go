package renderer

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/modelviewer/internal/engine/model"
)

// gpuMesh is an uploaded mesh.
type gpuMesh struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
}

// meshCache uploads meshes on first use. Scene meshes are immutable, so the
// mesh pointer identifies its GPU copy for the whole session.
type meshCache struct {
	meshes map[*model.Mesh]*gpuMesh
}

func newMeshCache() *meshCache {
	return &meshCache{meshes: make(map[*model.Mesh]*gpuMesh)}
}

func (c *meshCache) get(m *model.Mesh) *gpuMesh {
	if g, ok := c.meshes[m]; ok {
		return g
	}
	g := uploadMesh(m)
	c.meshes[m] = g
	return g
}

func (c *meshCache) len() int {
	return len(c.meshes)
}

func (c *meshCache) clear() {
	for k, g := range c.meshes {
		g.destroy()
		delete(c.meshes, k)
	}
}

func uploadMesh(m *model.Mesh) *gpuMesh {
	g := &gpuMesh{indexCount: int32(len(m.Indices))}
	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return g
	}

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	vertexSize := int(unsafe.Sizeof(model.Vertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*vertexSize, unsafe.Pointer(&m.Vertices[0]), gl.STATIC_DRAW)

	// Position
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(vertexSize), 0)
	// Normal
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, int32(vertexSize), 3*4)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return g
}

func (g *gpuMesh) draw() {
	if g.vao == 0 || g.indexCount == 0 {
		return
	}
	gl.BindVertexArray(g.vao)
	gl.DrawElements(gl.TRIANGLES, g.indexCount, gl.UNSIGNED_INT, nil)
}

func (g *gpuMesh) destroy() {
	if g.vao != 0 {
		gl.DeleteVertexArrays(1, &g.vao)
	}
	if g.vbo != 0 {
		gl.DeleteBuffers(1, &g.vbo)
	}
	if g.ebo != 0 {
		gl.DeleteBuffers(1, &g.ebo)
	}
}
