// Package model holds the CPU side of renderable geometry: meshes, their GPU vertex layout
// and the per-instance data the renderer uploads every frame.
package model

import (
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/oxy-gaze/common"
)

// mesh is the implementation of the Mesh interface.
type mesh struct {
	name           string
	vertices       []GPUVertex
	indices        []uint32
	vertexData     []byte
	indexData      []byte
	boundingRadius float32
}

// Mesh is an immutable indexed triangle list.
// The renderer uploads a mesh once and keys its GPU buffers by Name, so names must be unique
// among the meshes drawn by one renderer.
type Mesh interface {
	// Name retrieves the mesh identifier.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// VertexCount returns the number of vertices.
	VertexCount() int

	// IndexCount returns the number of indices.
	IndexCount() int

	// VertexData returns the vertices packed as GPUVertex structs.
	//
	// Returns:
	//   - []byte: VertexCount() * GPUVertexSize bytes
	VertexData() []byte

	// IndexData returns the indices packed as little-endian uint32.
	//
	// Returns:
	//   - []byte: IndexCount() * 4 bytes
	IndexData() []byte

	// BoundingRadius returns the largest vertex distance from the model-space origin.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32
}

var _ Mesh = &mesh{}

// NewMesh creates a Mesh from the given options.
// Panics if an index points past the vertex list or the index count is not a multiple of 3.
//
// Parameters:
//   - options: functional options to configure the mesh
//
// Returns:
//   - Mesh: the newly created mesh
func NewMesh(options ...MeshBuilderOption) Mesh {
	m := &mesh{}
	for _, opt := range options {
		opt(m)
	}
	if len(m.indices)%3 != 0 {
		panic(fmt.Sprintf("model: mesh %q has %d indices, not a multiple of 3", m.name, len(m.indices)))
	}
	for _, idx := range m.indices {
		if int(idx) >= len(m.vertices) {
			panic(fmt.Sprintf("model: mesh %q index %d out of range (%d vertices)", m.name, idx, len(m.vertices)))
		}
	}

	m.vertexData = make([]byte, 0, len(m.vertices)*GPUVertexSize)
	for i := range m.vertices {
		v := &m.vertices[i]
		m.vertexData = append(m.vertexData, v.Marshal()...)
		if r := common.Length3(v.Position); r > m.boundingRadius {
			m.boundingRadius = r
		}
	}
	m.indexData = make([]byte, len(m.indices)*4)
	for i, idx := range m.indices {
		binary.LittleEndian.PutUint32(m.indexData[i*4:], idx)
	}
	return m
}

func (m *mesh) Name() string {
	return m.name
}

func (m *mesh) VertexCount() int {
	return len(m.vertices)
}

func (m *mesh) IndexCount() int {
	return len(m.indices)
}

func (m *mesh) VertexData() []byte {
	return m.vertexData
}

func (m *mesh) IndexData() []byte {
	return m.indexData
}

func (m *mesh) BoundingRadius() float32 {
	return m.boundingRadius
}
