// Package pipeline describes a render pipeline: its shader stages and fixed-function state.
// The renderer backend turns a Pipeline into the GPU object.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-gaze/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// DepthFormat is the depth attachment format every pipeline renders against.
const DepthFormat = wgpu.TextureFormatDepth24Plus

// ErrIncomplete is returned by Validate when a stage is missing or has no entry point.
var ErrIncomplete = errors.New("pipeline: incomplete render pipeline")

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	renderPipeline *wgpu.RenderPipeline

	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
}

// Pipeline is a render pipeline made of a vertex and a fragment shader.
type Pipeline interface {
	// PipelineKey returns the unique key of this pipeline, used as the GPU object label.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader of a stage.
	//
	// Parameters:
	//   - shaderType: the stage
	//
	// Returns:
	//   - shader.Shader: the shader, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Validate checks that both stages are set and have entry points.
	//
	// Returns:
	//   - error: nil, or an error wrapping ErrIncomplete
	Validate() error

	// BindGroupLayouts returns the merged layouts of both stages as a dense slice indexed by
	// group. Unused groups below the highest one are empty descriptors.
	//
	// Returns:
	//   - []wgpu.BindGroupLayoutDescriptor: one descriptor per group index
	BindGroupLayouts() []wgpu.BindGroupLayoutDescriptor

	// RenderPipelineDescriptor builds the descriptor for the GPU pipeline.
	//
	// Parameters:
	//   - colorFormat: the format of the colour target
	//   - layout: the pipeline layout built from BindGroupLayouts
	//   - vs: the compiled vertex module
	//   - fs: the compiled fragment module
	//
	// Returns:
	//   - *wgpu.RenderPipelineDescriptor: the descriptor
	RenderPipelineDescriptor(colorFormat wgpu.TextureFormat, layout *wgpu.PipelineLayout, vs, fs *wgpu.ShaderModule) *wgpu.RenderPipelineDescriptor

	// RenderPipeline returns the GPU pipeline, or nil before SetRenderPipeline.
	RenderPipeline() *wgpu.RenderPipeline

	// SetRenderPipeline sets the GPU pipeline created from this description.
	//
	// Parameters:
	//   - rp: the WebGPU render pipeline
	SetRenderPipeline(rp *wgpu.RenderPipeline)

	DepthTestEnabled() bool
	DepthWriteEnabled() bool
	BlendEnabled() bool
	CullMode() wgpu.CullMode
	Topology() wgpu.PrimitiveTopology
	FrontFace() wgpu.FrontFace
	WriteMask() wgpu.ColorWriteMask
	BlendState() *wgpu.BlendState
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render pipeline description. Depth test and write are on, blending
// is off, triangles are counter-clockwise and nothing is culled unless options say otherwise.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: functional options to configure the pipeline
//
// Returns:
//   - Pipeline: the new pipeline description
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) Validate() error {
	for _, st := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
		s := p.Shader(st)
		if s == nil {
			return fmt.Errorf("%w: %s has no %s shader", ErrIncomplete, p.pipelineKey, st)
		}
		if s.EntryPoint() == "" {
			return fmt.Errorf("%w: %s shader %s has no entry point", ErrIncomplete, st, s.Key())
		}
	}
	return nil
}

func (p *pipeline) BindGroupLayouts() []wgpu.BindGroupLayoutDescriptor {
	if p.vertexShader == nil || p.fragmentShader == nil {
		return nil
	}
	merged := shader.MergeBindGroupLayouts(
		p.vertexShader.BindGroupLayoutDescriptors(),
		p.fragmentShader.BindGroupLayoutDescriptors(),
	)
	maxGroup := -1
	for g := range merged {
		maxGroup = max(maxGroup, g)
	}
	layouts := make([]wgpu.BindGroupLayoutDescriptor, maxGroup+1)
	for g, desc := range merged {
		desc.Label = fmt.Sprintf("%s group %d", p.pipelineKey, g)
		layouts[g] = desc
	}
	return layouts
}

func (p *pipeline) RenderPipelineDescriptor(colorFormat wgpu.TextureFormat, layout *wgpu.PipelineLayout, vs, fs *wgpu.ShaderModule) *wgpu.RenderPipelineDescriptor {
	target := wgpu.ColorTargetState{
		Format:    colorFormat,
		WriteMask: p.writeMask,
	}
	if p.blendEnabled {
		target.Blend = p.blendState
	}
	depthCompare := wgpu.CompareFunctionLess
	if !p.depthTestEnabled {
		depthCompare = wgpu.CompareFunctionAlways
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.pipelineKey + " Render Pipeline",
		Layout: layout,
		Fragment: &wgpu.FragmentState{
			Module:  fs,
			Targets: []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: p.depthWriteEnabled,
			DepthCompare:      depthCompare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	}
	desc.Vertex.Module = vs
	if p.vertexShader != nil {
		desc.Vertex.EntryPoint = p.vertexShader.EntryPoint()
		desc.Vertex.Buffers = p.vertexShader.VertexLayouts()
	}
	if p.fragmentShader != nil {
		desc.Fragment.EntryPoint = p.fragmentShader.EntryPoint()
	}
	return desc
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}
