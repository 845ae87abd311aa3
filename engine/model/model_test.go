package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-gaze/common"
)

func floatAt(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestGPUInstanceLayout(t *testing.T) {
	inst := GPUInstance{Model: common.IdentityMatrix(), Color: [4]float32{0.1, 0.2, 0.3, 1}}
	inst.Model[12] = 5

	buf := MarshalInstances([]GPUInstance{{}, inst})
	if len(buf) != 2*GPUInstanceSize {
		t.Fatalf("MarshalInstances length\nhave %d\nwant %d", len(buf), 2*GPUInstanceSize)
	}
	second := buf[GPUInstanceSize:]
	if got := floatAt(second, 12*4); got != 5 {
		t.Errorf("translation x\nhave %v\nwant 5", got)
	}
	if got := floatAt(second, 64+8); got != 0.3 {
		t.Errorf("colour blue\nhave %v\nwant 0.3", got)
	}
	if string(inst.Marshal()) != string(second) {
		t.Error("Marshal and MarshalInstances disagree")
	}
}

func TestGPUFrameLayout(t *testing.T) {
	f := GPUFrame{
		LightDir:   [4]float32{0, -1, 0, 0},
		LightColor: [4]float32{1, 0.5, 0.25, 0},
		Ambient:    [4]float32{0.4, 0.4, 0.4, 0},
	}
	f.ViewProj[15] = 1
	buf := f.Marshal()
	if len(buf) != GPUFrameSize {
		t.Fatalf("GPUFrame.Marshal length\nhave %d\nwant %d", len(buf), GPUFrameSize)
	}
	checks := []struct {
		off  int
		want float32
	}{{60, 1}, {68, -1}, {84, 0.5}, {96, 0.4}}
	for _, c := range checks {
		if got := floatAt(buf, c.off); got != c.want {
			t.Errorf("offset %d\nhave %v\nwant %v", c.off, got, c.want)
		}
	}
}

func TestNewBox(t *testing.T) {
	box := NewBox("crate")
	if box.Name() != "crate" || box.VertexCount() != 24 || box.IndexCount() != 36 {
		t.Fatalf("NewBox\nhave %q %d vertices %d indices\nwant crate 24 36", box.Name(), box.VertexCount(), box.IndexCount())
	}
	if len(box.VertexData()) != 24*GPUVertexSize || len(box.IndexData()) != 36*4 {
		t.Errorf("packed sizes\nhave %d %d", len(box.VertexData()), len(box.IndexData()))
	}
	want := float32(math.Sqrt(0.75))
	if math.Abs(float64(box.BoundingRadius()-want)) > 1e-6 {
		t.Errorf("BoundingRadius\nhave %v\nwant %v", box.BoundingRadius(), want)
	}

	// Every vertex normal points away from the centre.
	data := box.VertexData()
	for i := 0; i < box.VertexCount(); i++ {
		off := i * GPUVertexSize
		var dot float32
		for k := 0; k < 3; k++ {
			dot += floatAt(data, off+k*4) * floatAt(data, off+12+k*4)
		}
		if dot <= 0 {
			t.Fatalf("vertex %d normal points inward", i)
		}
	}
}

func TestNewSphere(t *testing.T) {
	s := NewSphere("ball", 8, 12)
	if s.VertexCount() != 9*13 || s.IndexCount() != 8*12*6 {
		t.Fatalf("NewSphere counts\nhave %d %d\nwant %d %d", s.VertexCount(), s.IndexCount(), 9*13, 8*12*6)
	}
	data := s.VertexData()
	for i := 0; i < s.VertexCount(); i++ {
		off := i * GPUVertexSize
		p := [3]float32{floatAt(data, off), floatAt(data, off+4), floatAt(data, off+8)}
		if r := common.Length3(p); math.Abs(float64(r-0.5)) > 1e-5 {
			t.Fatalf("vertex %d radius\nhave %v\nwant 0.5", i, r)
		}
	}

	tiny := NewSphere("tiny", 0, 0)
	if tiny.VertexCount() != 3*4 {
		t.Errorf("NewSphere minimums\nhave %d vertices\nwant 12", tiny.VertexCount())
	}
}

func TestPrimitive(t *testing.T) {
	box, ok := Primitive(ShapeBox)
	if !ok || box.Name() != ShapeBox {
		t.Fatalf("Primitive(box)\nhave %v, %v", box, ok)
	}
	again, _ := Primitive(ShapeBox)
	if again != box {
		t.Error("Primitive returned a new mesh for the same shape")
	}
	if _, ok := Primitive(ShapeSphere); !ok {
		t.Error("Primitive(sphere) not found")
	}
	if _, ok := Primitive("teapot"); ok {
		t.Error("Primitive(teapot) reported a mesh")
	}
}

func TestNewMeshPanicsOnBadIndices(t *testing.T) {
	cases := map[string][]uint32{
		"out of range": {0, 1, 3},
		"partial":      {0, 1},
	}
	vertices := make([]GPUVertex, 3)
	for name, indices := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("NewMesh did not panic")
				}
			}()
			NewMesh(WithName(name), WithVertices(vertices), WithIndices(indices))
		})
	}
}

func TestPrimitiveWindingFacesOutward(t *testing.T) {
	for _, shape := range []string{ShapeBox, ShapeSphere} {
		m, _ := Primitive(shape)
		data, idx := m.VertexData(), m.IndexData()
		pos := func(i uint32) [3]float32 {
			off := int(i) * GPUVertexSize
			return [3]float32{floatAt(data, off), floatAt(data, off+4), floatAt(data, off+8)}
		}
		for tri := 0; tri < m.IndexCount()/3; tri++ {
			a := pos(binary.LittleEndian.Uint32(idx[tri*12:]))
			b := pos(binary.LittleEndian.Uint32(idx[tri*12+4:]))
			c := pos(binary.LittleEndian.Uint32(idx[tri*12+8:]))
			e1 := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
			e2 := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
			n := [3]float32{e1[1]*e2[2] - e1[2]*e2[1], e1[2]*e2[0] - e1[0]*e2[2], e1[0]*e2[1] - e1[1]*e2[0]}
			if common.Length3(n) < 1e-9 {
				continue // collapsed triangles at the sphere poles
			}
			centroid := [3]float32{(a[0] + b[0] + c[0]) / 3, (a[1] + b[1] + c[1]) / 3, (a[2] + b[2] + c[2]) / 3}
			if common.Dot3(n, centroid) <= 0 {
				t.Fatalf("%s triangle %d winds clockwise seen from outside", shape, tri)
			}
		}
	}
}
