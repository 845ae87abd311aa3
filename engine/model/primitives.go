package model

import (
	"math"
	"sync"
)

// Names of the built-in primitive shapes a node can be drawn as.
const (
	ShapeBox    = "box"
	ShapeSphere = "sphere"
)

const (
	sphereRings    = 16
	sphereSegments = 24
)

var (
	primitivesOnce sync.Once
	primitives     map[string]Mesh
)

// Primitive returns the shared unit mesh for a built-in shape name.
//
// Parameters:
//   - shape: ShapeBox or ShapeSphere
//
// Returns:
//   - Mesh: the mesh, centred on the origin with a size of 1 along each axis
//   - bool: false if shape is not a built-in shape
func Primitive(shape string) (Mesh, bool) {
	primitivesOnce.Do(func() {
		primitives = map[string]Mesh{
			ShapeBox:    NewBox(ShapeBox),
			ShapeSphere: NewSphere(ShapeSphere, sphereRings, sphereSegments),
		}
	})
	m, ok := primitives[shape]
	return m, ok
}

// NewBox creates a unit cube centred on the origin with flat per-face normals.
//
// Parameters:
//   - name: the mesh name
//
// Returns:
//   - Mesh: 24 vertices and 36 indices
func NewBox(name string) Mesh {
	type face struct {
		positions [4][3]float32
		normal    [3]float32
	}
	faces := []face{
		{[4][3]float32{{0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, 0.5, 0.5}, {0.5, -0.5, 0.5}}, [3]float32{1, 0, 0}},
		{[4][3]float32{{-0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5}, {-0.5, -0.5, -0.5}}, [3]float32{-1, 0, 0}},
		{[4][3]float32{{-0.5, 0.5, -0.5}, {-0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}, {0.5, 0.5, -0.5}}, [3]float32{0, 1, 0}},
		{[4][3]float32{{-0.5, -0.5, 0.5}, {-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}}, [3]float32{0, -1, 0}},
		{[4][3]float32{{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}}, [3]float32{0, 0, 1}},
		{[4][3]float32{{0.5, -0.5, -0.5}, {-0.5, -0.5, -0.5}, {-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5}}, [3]float32{0, 0, -1}},
	}

	vertices := make([]GPUVertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for fi, f := range faces {
		for _, p := range f.positions {
			vertices = append(vertices, GPUVertex{Position: p, Normal: f.normal})
		}
		base := uint32(fi * 4)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return NewMesh(WithName(name), WithVertices(vertices), WithIndices(indices))
}

// NewSphere creates a UV sphere of radius 0.5 centred on the origin.
// The poles lie on the Y axis. Rings below 2 and segments below 3 are raised to those minimums.
//
// Parameters:
//   - name: the mesh name
//   - rings: number of latitude bands
//   - segments: number of longitude bands
//
// Returns:
//   - Mesh: (rings+1)*(segments+1) vertices and rings*segments*6 indices
func NewSphere(name string, rings, segments int) Mesh {
	rings = max(rings, 2)
	segments = max(segments, 3)

	vertices := make([]GPUVertex, 0, (rings+1)*(segments+1))
	for r := 0; r <= rings; r++ {
		theta := math.Pi * float64(r) / float64(rings)
		sinT, cosT := math.Sincos(theta)
		for s := 0; s <= segments; s++ {
			phi := 2 * math.Pi * float64(s) / float64(segments)
			sinP, cosP := math.Sincos(phi)
			n := [3]float32{float32(sinT * cosP), float32(cosT), float32(sinT * sinP)}
			vertices = append(vertices, GPUVertex{
				Position: [3]float32{n[0] * 0.5, n[1] * 0.5, n[2] * 0.5},
				Normal:   n,
			})
		}
	}

	stride := uint32(segments + 1)
	indices := make([]uint32, 0, rings*segments*6)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a := uint32(r)*stride + uint32(s)
			b := a + stride
			indices = append(indices, a, a+1, b, a+1, b+1, b)
		}
	}
	return NewMesh(WithName(name), WithVertices(vertices), WithIndices(indices))
}
