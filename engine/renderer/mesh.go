package renderer

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-gaze/common"
	"github.com/Carmen-Shannon/oxy-gaze/engine/model"
	"github.com/Carmen-Shannon/oxy-gaze/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-gaze/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/mesh_vert.wgsl
var meshVertexSource string

//go:embed assets/mesh_frag.wgsl
var meshFragmentSource string

// Lighting is the single directional light and ambient term shared by every draw.
type Lighting struct {
	Direction        [3]float32 // direction the light travels, need not be normalized
	Color            [3]float32
	Intensity        float32
	Ambient          [3]float32
	AmbientIntensity float32
}

// DefaultLighting returns a white key light shining from (5, 10, 7.5) towards the origin
// at full intensity, plus white ambient light at 0.4.
func DefaultLighting() Lighting {
	return Lighting{
		Direction:        [3]float32{-5, -10, -7.5},
		Color:            [3]float32{1, 1, 1},
		Intensity:        1,
		Ambient:          [3]float32{1, 1, 1},
		AmbientIntensity: 0.4,
	}
}

// frame builds the per-frame uniform. A zero direction falls back to straight down.
func (l Lighting) frame(viewProj [16]float32) model.GPUFrame {
	dir := common.Normalize3(l.Direction)
	if dir == ([3]float32{}) {
		dir = [3]float32{0, -1, 0}
	}
	return model.GPUFrame{
		ViewProj:   viewProj,
		LightDir:   [4]float32{dir[0], dir[1], dir[2], 0},
		LightColor: [4]float32{l.Color[0] * l.Intensity, l.Color[1] * l.Intensity, l.Color[2] * l.Intensity, 0},
		Ambient: [4]float32{
			l.Ambient[0] * l.AmbientIntensity,
			l.Ambient[1] * l.AmbientIntensity,
			l.Ambient[2] * l.AmbientIntensity,
			0,
		},
	}
}

// meshDraw is one instanced draw call into the packed instance buffer.
type meshDraw struct {
	mesh          model.Mesh
	firstInstance uint32
	instanceCount uint32
}

// packBatches lays the instances of all batches out back to back. Batches without a mesh or
// instances produce no draw.
func packBatches(batches []model.DrawBatch) ([]model.GPUInstance, []meshDraw) {
	var instances []model.GPUInstance
	draws := make([]meshDraw, 0, len(batches))
	for _, b := range batches {
		if b.Mesh == nil || len(b.Instances) == 0 || b.Mesh.IndexCount() == 0 {
			continue
		}
		draws = append(draws, meshDraw{
			mesh:          b.Mesh,
			firstInstance: uint32(len(instances)),
			instanceCount: uint32(len(b.Instances)),
		})
		instances = append(instances, b.Instances...)
	}
	return instances, draws
}

// newMeshPipeline describes the lit static mesh pipeline. The primitives are closed and wound
// counter-clockwise, so back faces are culled.
func newMeshPipeline() pipeline.Pipeline {
	return pipeline.NewPipeline("mesh",
		pipeline.WithVertexShader(shader.NewShader("mesh_vert", shader.ShaderTypeVertex, meshVertexSource)),
		pipeline.WithFragmentShader(shader.NewShader("mesh_frag", shader.ShaderTypeFragment, meshFragmentSource)),
		pipeline.WithCullMode(wgpu.CullModeBack),
	)
}
