package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

const litVertexSource = `
/* camera and light, shared with the fragment stage */
struct Frame {
    view_proj: mat4x4<f32>,
    light_dir: vec4<f32>,
}

struct Bone {
    offset: vec3<f32>,
    weight: f32,
}

struct Skeleton {
    bones: array<Bone, 4>,
    count: u32,
}

struct VertexInput {
    @location(0) position: vec3<f32>, // model space
    @location(1) uv: vec2<f32>,
    @location(2) color: vec4<f32>,
}

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> frame: Frame;
@group(0) @binding(2) var<storage, read> skeleton: Skeleton;
@group(1) @binding(0) var<storage, read_write> weights: array<f32>;
// @group(3) @binding(0) var<uniform> disabled: Frame;

@vertex
fn main_vs(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip = frame.view_proj * vec4<f32>(in.position, 1.0);
    out.color = in.color;
    return out;
}
`

func TestNewShaderVertex(t *testing.T) {
	s := NewShader("lit_vert", ShaderTypeVertex, litVertexSource)

	if s.EntryPoint() != "main_vs" {
		t.Errorf("EntryPoint\nhave %q\nwant \"main_vs\"", s.EntryPoint())
	}
	if s.Module().Label != "lit_vert" || s.Module().WGSLDescriptor.Code != litVertexSource {
		t.Error("Module does not carry the key and source")
	}

	layouts := s.VertexLayouts()
	if len(layouts) != 1 {
		t.Fatalf("VertexLayouts\nhave %d\nwant 1", len(layouts))
	}
	want := []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x4, Offset: 20, ShaderLocation: 2},
	}
	if layouts[0].ArrayStride != 36 || len(layouts[0].Attributes) != len(want) {
		t.Fatalf("layout\nhave %+v\nwant stride 36 with %d attributes", layouts[0], len(want))
	}
	for i, a := range layouts[0].Attributes {
		if a != want[i] {
			t.Errorf("attribute %d\nhave %+v\nwant %+v", i, a, want[i])
		}
	}

	groups := s.BindGroupLayoutDescriptors()
	if len(groups) != 2 {
		t.Fatalf("bind groups\nhave %d\nwant 2 (commented declarations are ignored)", len(groups))
	}
	g0 := groups[0].Entries
	if len(g0) != 2 || g0[0].Binding != 0 || g0[1].Binding != 2 {
		t.Fatalf("group 0 entries\nhave %+v\nwant bindings 0 and 2", g0)
	}
	if g0[0].Buffer.Type != wgpu.BufferBindingTypeUniform || g0[0].Buffer.MinBindingSize != 80 {
		t.Errorf("frame\nhave %+v\nwant uniform of 80 bytes", g0[0].Buffer)
	}
	// 4 bones of stride 16, then a u32 rounded up to the struct alignment
	if g0[1].Buffer.Type != wgpu.BufferBindingTypeReadOnlyStorage || g0[1].Buffer.MinBindingSize != 80 {
		t.Errorf("skeleton\nhave %+v\nwant read-only storage of 80 bytes", g0[1].Buffer)
	}
	if g0[0].Visibility != wgpu.ShaderStageVertex {
		t.Errorf("visibility\nhave %v\nwant vertex", g0[0].Visibility)
	}
	g1 := groups[1].Entries
	if len(g1) != 1 || g1[0].Buffer.Type != wgpu.BufferBindingTypeStorage || g1[0].Buffer.MinBindingSize != 4 {
		t.Errorf("group 1\nhave %+v\nwant read-write storage with a 4 byte minimum", g1)
	}

	if s.BindGroupVarName(0, 2) != "skeleton" || s.BindGroupVarName(2, 0) != "" {
		t.Errorf("BindGroupVarName\nhave %q %q\nwant \"skeleton\" \"\"", s.BindGroupVarName(0, 2), s.BindGroupVarName(2, 0))
	}
}

func TestNewShaderFragment(t *testing.T) {
	src := `
struct Frame { view_proj: mat4x4<f32>, light_dir: vec4<f32> }
struct FragmentInput { @location(0) color: vec4<f32> }
@group(0) @binding(0) var<uniform> frame: Frame;
@group(0) @binding(1) var tex: texture_2d<f32>;
@fragment fn shade(in: FragmentInput) -> @location(0) vec4<f32> { return in.color; }
`
	s := NewShader("frag", ShaderTypeFragment, src)
	if s.EntryPoint() != "shade" {
		t.Errorf("EntryPoint\nhave %q\nwant \"shade\"", s.EntryPoint())
	}
	if len(s.VertexLayouts()) != 0 {
		t.Errorf("fragment shader has %d vertex layouts", len(s.VertexLayouts()))
	}
	entries := s.BindGroupLayoutDescriptors()[0].Entries
	if len(entries) != 1 || entries[0].Visibility != wgpu.ShaderStageFragment {
		t.Errorf("entries\nhave %+v\nwant the uniform only, fragment visible", entries)
	}
}

func TestNewShaderPanicsWithoutSource(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewShader did not panic")
		}
	}()
	NewShader("empty", ShaderTypeVertex, "")
}

func TestMergeBindGroupLayouts(t *testing.T) {
	entry := func(binding uint32, stage wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
		e := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: stage}
		e.Buffer.Type = wgpu.BufferBindingTypeUniform
		return e
	}
	vertex := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{entry(1, wgpu.ShaderStageVertex), entry(0, wgpu.ShaderStageVertex)}},
	}
	fragment := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{entry(0, wgpu.ShaderStageFragment)}},
		2: {Entries: []wgpu.BindGroupLayoutEntry{entry(0, wgpu.ShaderStageFragment)}},
	}

	merged := MergeBindGroupLayouts(vertex, fragment)
	if len(merged) != 2 {
		t.Fatalf("groups\nhave %d\nwant 2", len(merged))
	}
	g0 := merged[0].Entries
	if len(g0) != 2 || g0[0].Binding != 0 || g0[1].Binding != 1 {
		t.Fatalf("group 0\nhave %+v\nwant bindings 0, 1", g0)
	}
	if g0[0].Visibility != wgpu.ShaderStageVertex|wgpu.ShaderStageFragment {
		t.Errorf("shared binding visibility\nhave %v\nwant vertex|fragment", g0[0].Visibility)
	}
	if g0[1].Visibility != wgpu.ShaderStageVertex {
		t.Errorf("vertex-only binding visibility\nhave %v\nwant vertex", g0[1].Visibility)
	}
	if merged[2].Entries[0].Visibility != wgpu.ShaderStageFragment {
		t.Errorf("fragment-only group visibility\nhave %v", merged[2].Entries[0].Visibility)
	}
}

func TestResolveTypeLayout(t *testing.T) {
	known := map[string]wgslTypeLayout{"Light": {32, 16}}
	tests := []struct {
		typeName string
		want     wgslTypeLayout
		ok       bool
	}{
		{"vec3<f32>", wgslTypeLayout{12, 16}, true},
		{"Light", wgslTypeLayout{32, 16}, true},
		{"array<vec3<f32>, 3>", wgslTypeLayout{48, 16}, true},
		{"array<Light>", wgslTypeLayout{32, 16}, true},
		{"array<f32, n>", wgslTypeLayout{}, false},
		{"texture_2d<f32>", wgslTypeLayout{}, false},
	}
	for _, tt := range tests {
		got, ok := resolveTypeLayout(tt.typeName, known)
		if ok != tt.ok || got != tt.want {
			t.Errorf("resolveTypeLayout(%q)\nhave %v, %v\nwant %v, %v", tt.typeName, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStripComments(t *testing.T) {
	src := "a /* outer /* inner */ still */ b // tail\nc"
	if got := stripComments(src); got != "a  b \nc\n" {
		t.Errorf("stripComments\nhave %q\nwant %q", got, "a  b \nc\n")
	}
}
