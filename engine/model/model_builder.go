package model

// MeshBuilderOption is a functional option applied to a mesh during construction via NewMesh.
type MeshBuilderOption func(*mesh)

// WithName sets the mesh identifier.
//
// Parameters:
//   - name: the mesh name
//
// Returns:
//   - MeshBuilderOption: a function that applies the name option to a mesh
func WithName(name string) MeshBuilderOption {
	return func(m *mesh) {
		m.name = name
	}
}

// WithVertices sets the vertex list. The slice is copied.
//
// Parameters:
//   - vertices: the vertices
//
// Returns:
//   - MeshBuilderOption: a function that applies the vertices option to a mesh
func WithVertices(vertices []GPUVertex) MeshBuilderOption {
	return func(m *mesh) {
		m.vertices = append([]GPUVertex(nil), vertices...)
	}
}

// WithIndices sets the triangle list indices. The slice is copied.
//
// Parameters:
//   - indices: three indices per triangle
//
// Returns:
//   - MeshBuilderOption: a function that applies the indices option to a mesh
func WithIndices(indices []uint32) MeshBuilderOption {
	return func(m *mesh) {
		m.indices = append([]uint32(nil), indices...)
	}
}
