package pipeline

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-gaze/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const vertexSource = `
struct Frame { view_proj: mat4x4<f32> }
struct VertexInput { @location(0) position: vec3<f32> }
@group(1) @binding(0) var<uniform> frame: Frame;
@vertex fn vs(in: VertexInput) -> @builtin(position) vec4<f32> {
    return frame.view_proj * vec4<f32>(in.position, 1.0);
}
`

const fragmentSource = `
struct Tint { color: vec4<f32> }
@group(1) @binding(1) var<uniform> tint: Tint;
@fragment fn fs() -> @location(0) vec4<f32> { return tint.color; }
`

func newTestPipeline(opts ...PipelineBuilderOption) Pipeline {
	opts = append([]PipelineBuilderOption{
		WithVertexShader(shader.NewShader("vs", shader.ShaderTypeVertex, vertexSource)),
		WithFragmentShader(shader.NewShader("fs", shader.ShaderTypeFragment, fragmentSource)),
	}, opts...)
	return NewPipeline("test", opts...)
}

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("empty")
	if !p.DepthTestEnabled() || !p.DepthWriteEnabled() || p.BlendEnabled() {
		t.Errorf("depth test %v, depth write %v, blend %v\nwant true, true, false",
			p.DepthTestEnabled(), p.DepthWriteEnabled(), p.BlendEnabled())
	}
	if p.CullMode() != wgpu.CullModeNone || p.Topology() != wgpu.PrimitiveTopologyTriangleList || p.FrontFace() != wgpu.FrontFaceCCW {
		t.Errorf("primitive state\nhave %v %v %v\nwant none, triangle list, ccw", p.CullMode(), p.Topology(), p.FrontFace())
	}
	if p.RenderPipeline() != nil || p.BindGroupLayouts() != nil {
		t.Error("an empty pipeline reports GPU state")
	}
}

func TestValidate(t *testing.T) {
	if err := newTestPipeline().Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	noFragment := NewPipeline("partial", WithVertexShader(shader.NewShader("vs", shader.ShaderTypeVertex, vertexSource)))
	if err := noFragment.Validate(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Validate without fragment\nhave %v\nwant %v", err, ErrIncomplete)
	}

	// vertex source parsed as a fragment stage has no @fragment entry point
	wrongStage := newTestPipeline(WithFragmentShader(shader.NewShader("vs", shader.ShaderTypeFragment, vertexSource)))
	if err := wrongStage.Validate(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Validate with wrong stage\nhave %v\nwant %v", err, ErrIncomplete)
	}
}

func TestBindGroupLayoutsAreDense(t *testing.T) {
	groups := newTestPipeline().BindGroupLayouts()
	if len(groups) != 2 {
		t.Fatalf("groups\nhave %d\nwant 2", len(groups))
	}
	if len(groups[0].Entries) != 0 {
		t.Errorf("group 0\nhave %+v\nwant empty", groups[0].Entries)
	}
	g1 := groups[1].Entries
	if len(g1) != 2 || g1[0].Visibility != wgpu.ShaderStageVertex || g1[1].Visibility != wgpu.ShaderStageFragment {
		t.Errorf("group 1\nhave %+v\nwant vertex binding 0 and fragment binding 1", g1)
	}
	if groups[1].Label != "test group 1" {
		t.Errorf("Label\nhave %q\nwant \"test group 1\"", groups[1].Label)
	}
}

func TestRenderPipelineDescriptor(t *testing.T) {
	p := newTestPipeline(
		WithCullMode(wgpu.CullModeBack),
		WithDepthTestEnabled(false),
		WithDepthWriteEnabled(false),
		WithBlendEnabled(true),
		WithWriteMask(wgpu.ColorWriteMaskRed),
	)
	desc := p.RenderPipelineDescriptor(wgpu.TextureFormatRGBA8Unorm, nil, nil, nil)

	if desc.Vertex.EntryPoint != "vs" || desc.Fragment.EntryPoint != "fs" {
		t.Errorf("entry points\nhave %q %q\nwant vs fs", desc.Vertex.EntryPoint, desc.Fragment.EntryPoint)
	}
	if len(desc.Vertex.Buffers) != 1 || desc.Vertex.Buffers[0].ArrayStride != 12 {
		t.Errorf("vertex buffers\nhave %+v\nwant one of stride 12", desc.Vertex.Buffers)
	}
	target := desc.Fragment.Targets[0]
	if target.Format != wgpu.TextureFormatRGBA8Unorm || target.WriteMask != wgpu.ColorWriteMaskRed || target.Blend != p.BlendState() {
		t.Errorf("colour target\nhave %+v\nwant rgba8unorm, red only, default blend", target)
	}
	if desc.Primitive.CullMode != wgpu.CullModeBack {
		t.Errorf("CullMode\nhave %v\nwant back", desc.Primitive.CullMode)
	}
	ds := desc.DepthStencil
	if ds.Format != DepthFormat || ds.DepthWriteEnabled || ds.DepthCompare != wgpu.CompareFunctionAlways {
		t.Errorf("depth stencil\nhave %+v\nwant %v without writes, compare always", ds, DepthFormat)
	}

	opaque := newTestPipeline().RenderPipelineDescriptor(wgpu.TextureFormatRGBA8Unorm, nil, nil, nil)
	if opaque.Fragment.Targets[0].Blend != nil || opaque.DepthStencil.DepthCompare != wgpu.CompareFunctionLess {
		t.Errorf("opaque pipeline\nhave blend %v compare %v\nwant no blend, compare less",
			opaque.Fragment.Targets[0].Blend, opaque.DepthStencil.DepthCompare)
	}
}
