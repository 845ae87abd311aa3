package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-gaze/common"
	"github.com/Carmen-Shannon/oxy-gaze/engine/model"
)

const faceGLTF = `{
  "asset": {"version": "2.0", "generator": "test"},
  "scene": 0,
  "scenes": [{"name": "Face", "nodes": [0]}],
  "nodes": [
    {"name": "Head", "translation": [0, 1.5, 0], "children": [1, 2]},
    {"name": "LeftEye", "translation": [-0.3, 0.1, 0.4], "rotation": [0, 0.70710678, 0, 0.70710678]},
    {"name": "RightEye", "translation": [0.3, 0.1, 0.4], "scale": [2, 2, 2]}
  ]
}`

func near(a, b, tol float32) bool {
	return float32(math.Abs(float64(a-b))) <= tol
}

// makeGLB wraps JSON (and an optional binary payload) in a GLB container.
func makeGLB(t *testing.T, jsonDoc string, bin []byte, includeJSON bool) []byte {
	t.Helper()
	js := []byte(jsonDoc)
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}
	for len(bin)%4 != 0 {
		bin = append(bin, 0)
	}

	var body bytes.Buffer
	if includeJSON {
		binary.Write(&body, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(js)), ChunkType: gltfGLBChunkJSON})
		body.Write(js)
	}
	if len(bin) > 0 {
		binary.Write(&body, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(bin)), ChunkType: gltfGLBChunkBIN})
		body.Write(bin)
	}

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, gltfGLBHeader{
		Magic:   gltfGLBMagic,
		Version: gltfGLBVersion,
		Length:  uint32(12 + body.Len()),
	})
	out.Write(body.Bytes())
	return out.Bytes()
}

func checkFace(t *testing.T, h *Hierarchy) {
	t.Helper()
	if h.Name != "Face" {
		t.Errorf("Name\nhave %q\nwant %q", h.Name, "Face")
	}
	if len(h.Roots) != 1 || h.Roots[0].Name() != "Head" {
		t.Fatalf("Roots\nhave %v\nwant [Head]", h.Roots)
	}
	if h.NodeCount != 3 {
		t.Errorf("NodeCount\nhave %d\nwant 3", h.NodeCount)
	}

	left := h.Find("LeftEye")
	if left == nil {
		t.Fatal("LeftEye not found")
	}
	if left.Parent() != h.Roots[0] {
		t.Errorf("LeftEye parent\nhave %v\nwant Head", left.Parent())
	}
	rx, ry, rz := left.Rotation()
	if !near(rx, 0, 1e-5) || !near(ry, float32(math.Pi/2), 1e-5) || !near(rz, 0, 1e-5) {
		t.Errorf("LeftEye rotation\nhave (%v, %v, %v)\nwant (0, pi/2, 0)", rx, ry, rz)
	}

	right := h.Find("RightEye")
	if right == nil {
		t.Fatal("RightEye not found")
	}
	if sx, sy, sz := right.Scale(); sx != 2 || sy != 2 || sz != 2 {
		t.Errorf("RightEye scale\nhave (%v, %v, %v)\nwant (2, 2, 2)", sx, sy, sz)
	}
	world := right.WorldMatrix()
	if !near(world[13], 1.6, 1e-5) {
		t.Errorf("RightEye world y\nhave %v\nwant 1.6", world[13])
	}
}

func TestParseHierarchyJSON(t *testing.T) {
	h, err := ParseHierarchy(strings.NewReader(faceGLTF), false)
	if err != nil {
		t.Fatalf("ParseHierarchy: %v", err)
	}
	checkFace(t, h)
}

func TestParseHierarchyGLB(t *testing.T) {
	data := makeGLB(t, faceGLTF, []byte{1, 2, 3}, true)
	h, err := ParseHierarchy(bytes.NewReader(data), true)
	if err != nil {
		t.Fatalf("ParseHierarchy: %v", err)
	}
	checkFace(t, h)
}

func TestLoadHierarchyFromFile(t *testing.T) {
	dir := t.TempDir()
	gltfPath := filepath.Join(dir, "face.gltf")
	glbPath := filepath.Join(dir, "face.glb")
	if err := os.WriteFile(gltfPath, []byte(faceGLTF), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(glbPath, makeGLB(t, faceGLTF, nil, true), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{gltfPath, glbPath} {
		h, err := LoadHierarchy(path)
		if err != nil {
			t.Fatalf("LoadHierarchy(%s): %v", path, err)
		}
		checkFace(t, h)
	}

	if _, err := LoadHierarchy(filepath.Join(dir, "face.obj")); err == nil {
		t.Error("LoadHierarchy(.obj) returned no error")
	}
}

func TestParseHierarchyErrors(t *testing.T) {
	badMagic := makeGLB(t, faceGLTF, nil, true)
	binary.LittleEndian.PutUint32(badMagic[0:], 0xdeadbeef)
	badVersion := makeGLB(t, faceGLTF, nil, true)
	binary.LittleEndian.PutUint32(badVersion[4:], 1)
	truncated := makeGLB(t, faceGLTF, nil, true)
	truncated = truncated[:len(truncated)-8]

	tests := []struct {
		name  string
		data  []byte
		isGLB bool
		want  error
	}{
		{"gltf version 1", []byte(`{"asset": {"version": "1.0"}}`), false, ErrInvalidGLTFVersion},
		{"glb magic", badMagic, true, ErrInvalidGLBMagic},
		{"glb version", badVersion, true, ErrInvalidGLBVersion},
		{"glb without json", makeGLB(t, "", []byte{1, 2, 3, 4}, false), true, ErrMissingJSONChunk},
		{"glb truncated chunk", truncated, true, ErrTruncatedGLB},
		{"glb too small", []byte{1, 2, 3}, true, ErrTruncatedGLB},
		{
			"child out of range",
			[]byte(`{"asset": {"version": "2.0"}, "scenes": [{"nodes": [0]}], "nodes": [{"name": "a", "children": [5]}]}`),
			false, ErrNodeIndexOutOfRange,
		},
		{
			"cycle",
			[]byte(`{"asset": {"version": "2.0"}, "scenes": [{"nodes": [0]}], "nodes": [{"children": [1]}, {"children": [0]}]}`),
			false, ErrNodeCycle,
		},
		{
			"shared child",
			[]byte(`{"asset": {"version": "2.0"}, "scenes": [{"nodes": [0, 1]}], "nodes": [{"children": [2]}, {"children": [2]}, {}]}`),
			false, ErrNodeCycle,
		},
		{
			"unknown shape",
			[]byte(`{"asset": {"version": "2.0"}, "nodes": [{"name": "a", "extras": {"shape": "teapot"}}]}`),
			false, ErrUnknownShape,
		},
		{
			"scene out of range",
			[]byte(`{"asset": {"version": "2.0"}, "scene": 3, "scenes": [{"nodes": []}], "nodes": []}`),
			false, ErrSceneIndexOutOfRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHierarchy(bytes.NewReader(tt.data), tt.isGLB)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseHierarchy\nhave %v\nwant %v", err, tt.want)
			}
		})
	}
}

func TestParseHierarchyWithoutScenes(t *testing.T) {
	doc := `{"asset": {"version": "2.0"}, "nodes": [{"name": "eye"}, {"name": "face", "children": [0]}, {"name": "lamp"}]}`
	h, err := NewLoader(BackendTypeGLTF).LoadReader("loose", strings.NewReader(doc), false)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if h.Name != "loose" {
		t.Errorf("Name\nhave %q\nwant %q", h.Name, "loose")
	}
	if len(h.Roots) != 2 || h.Roots[0].Name() != "face" || h.Roots[1].Name() != "lamp" {
		t.Errorf("Roots\nhave %v\nwant [face lamp]", h.Roots)
	}
	if eye := h.Find("eye"); eye == nil || eye.Parent() != h.Roots[0] {
		t.Errorf("eye is not a child of face")
	}
}

func TestWithSceneSelectsScene(t *testing.T) {
	doc := `{"asset": {"version": "2.0"}, "scene": 0,
	  "scenes": [{"name": "a", "nodes": [0]}, {"name": "b", "nodes": [1]}],
	  "nodes": [{"name": "first"}, {"name": "second"}]}`
	h, err := NewLoader(BackendTypeGLTF, WithScene(1)).LoadReader("", strings.NewReader(doc), false)
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if h.Name != "b" || len(h.Roots) != 1 || h.Roots[0].Name() != "second" {
		t.Errorf("scene 1\nhave %q %v\nwant b [second]", h.Name, h.Roots)
	}
}

func TestDecomposeMatrix(t *testing.T) {
	var m [16]float32
	common.BuildModelMatrix(m[:], 1, 2, 3, 0.3, -0.4, 0.2, 2, 3, 0.5)

	pos, rot, scale := decomposeMatrix(m[:])
	want := [][2][3]float32{
		{pos, {1, 2, 3}},
		{rot, {0.3, -0.4, 0.2}},
		{scale, {2, 3, 0.5}},
	}
	for i, w := range want {
		for j := range 3 {
			if !near(w[0][j], w[1][j], 1e-4) {
				t.Errorf("component %d\nhave %v\nwant %v", i, w[0], w[1])
				break
			}
		}
	}
}

func TestNodeMatrixIsDecomposed(t *testing.T) {
	doc := `{"asset": {"version": "2.0"}, "nodes": [{"name": "n", "matrix": [2,0,0,0, 0,2,0,0, 0,0,2,0, 4,5,6,1]}]}`
	h, err := ParseHierarchy(strings.NewReader(doc), false)
	if err != nil {
		t.Fatalf("ParseHierarchy: %v", err)
	}
	n := h.Find("n")
	if x, y, z := n.Position(); x != 4 || y != 5 || z != 6 {
		t.Errorf("Position\nhave (%v, %v, %v)\nwant (4, 5, 6)", x, y, z)
	}
	if sx, sy, sz := n.Scale(); sx != 2 || sy != 2 || sz != 2 {
		t.Errorf("Scale\nhave (%v, %v, %v)\nwant (2, 2, 2)", sx, sy, sz)
	}
}

func TestNodeExtras(t *testing.T) {
	doc := `{"asset": {"version": "2.0"}, "nodes": [
		{"name": "eye", "extras": {"shape": "sphere", "color": [0.1, 0.2, 0.3, 1]}},
		{"name": "plain", "extras": {"author": "someone"}},
		{"name": "bare"}
	]}`
	h, err := ParseHierarchy(strings.NewReader(doc), false)
	if err != nil {
		t.Fatalf("ParseHierarchy: %v", err)
	}

	eye := h.Find("eye")
	sphere, _ := model.Primitive(model.ShapeSphere)
	if eye.Mesh() != sphere {
		t.Errorf("eye mesh\nhave %v\nwant the shared sphere", eye.Mesh())
	}
	if eye.Color() != [4]float32{0.1, 0.2, 0.3, 1} {
		t.Errorf("eye colour\nhave %v\nwant {0.1 0.2 0.3 1}", eye.Color())
	}
	for _, name := range []string{"plain", "bare"} {
		n := h.Find(name)
		if n.Mesh() != nil || n.Color() != [4]float32{1, 1, 1, 1} {
			t.Errorf("%s\nhave mesh %v colour %v\nwant no mesh, white", name, n.Mesh(), n.Color())
		}
	}
}

func TestLoadExampleAsset(t *testing.T) {
	h, err := LoadHierarchy(filepath.Join("..", "..", "examples", "assets", "face.gltf"))
	if err != nil {
		t.Fatalf("LoadHierarchy: %v", err)
	}
	if h.NodeCount != 8 || len(h.Roots) != 1 {
		t.Fatalf("hierarchy\nhave %d nodes %d roots\nwant 8 nodes 1 root", h.NodeCount, len(h.Roots))
	}
	for _, name := range []string{"LeftEye", "RightEye", "Jaw", "Skull", "LeftPupil", "RightPupil"} {
		n := h.Find(name)
		if n == nil {
			t.Fatalf("Find(%q) returned nil", name)
		}
		if n.Mesh() == nil {
			t.Errorf("%s has no mesh", name)
		}
	}
	if h.Find("LeftPupil").Parent() != h.Find("LeftEye") {
		t.Error("LeftPupil is not a child of LeftEye")
	}
	world := h.Find("LeftEye").WorldMatrix()
	want := [3]float32{-0.35, 0.55, 0.8}
	for i := range want {
		if math.Abs(float64(world[12+i]-want[i])) > 1e-6 {
			t.Errorf("LeftEye world position\nhave %v\nwant %v", world[12:15], want)
			break
		}
	}
}
