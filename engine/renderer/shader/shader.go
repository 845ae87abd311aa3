// Package shader parses WGSL source into the layouts a render pipeline is built from:
// entry points, vertex buffer layouts and bind group layout descriptors.
package shader

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader runs in.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage of a render pipeline.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment stage, used in pair with a vertex shader.
	ShaderTypeFragment
)

// String returns the lower-case stage name.
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	entryPoint                 string
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              []wgpu.VertexBufferLayout
}

// Shader is a parsed WGSL stage. Everything is extracted once at construction.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used as the GPU object label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL source code.
	Source() string

	// ShaderType returns the stage the shader was parsed for.
	ShaderType() ShaderType

	// EntryPoint returns the name of the stage's entry point function.
	//
	// Returns:
	//   - string: the entry point name, or "" if the source has none for this stage
	EntryPoint() string

	// BindGroupLayoutDescriptors retrieves the parsed bind group layout descriptors.
	// Every entry's visibility is this shader's stage.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the WGSL variable name bound at group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or "" if nothing is bound there
	BindGroupVarName(group, binding int) string

	// VertexLayouts retrieves one buffer layout per vertex input struct, in source order.
	// Fragment shaders have none.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the vertex buffer layouts
	VertexLayouts() []wgpu.VertexBufferLayout

	// Module returns a shader module descriptor for the source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: descriptor labelled with Key
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader parses WGSL source for one pipeline stage.
// Panics if source is empty.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage to parse the source for
//   - source: the WGSL source
//
// Returns:
//   - Shader: the parsed shader
func NewShader(key string, shaderType ShaderType, source string) Shader {
	if source == "" {
		panic(fmt.Sprintf("shader: %s must have WGSL source", key))
	}
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
	}

	s.entryPoint = parseEntryPoint(source, shaderType)
	visibility := wgpu.ShaderStageFragment
	if shaderType == ShaderTypeVertex {
		s.vertexLayouts = parseVertexLayouts(source)
		visibility = wgpu.ShaderStageVertex
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(source, visibility)
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
}

// MergeBindGroupLayouts combines the layouts of a vertex and a fragment shader into one set
// for a pipeline layout. A binding declared by both stages gets the union of their visibility.
//
// Parameters:
//   - vertex: the vertex shader's descriptors
//   - fragment: the fragment shader's descriptors
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: merged descriptors keyed by group index, entries sorted by binding
func MergeBindGroupLayouts(vertex, fragment map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	entries := make(map[int]map[uint32]wgpu.BindGroupLayoutEntry)
	add := func(layouts map[int]wgpu.BindGroupLayoutDescriptor) {
		for g, desc := range layouts {
			if entries[g] == nil {
				entries[g] = make(map[uint32]wgpu.BindGroupLayoutEntry)
			}
			for _, e := range desc.Entries {
				if existing, ok := entries[g][e.Binding]; ok {
					existing.Visibility |= e.Visibility
					e = existing
				}
				entries[g][e.Binding] = e
			}
		}
	}
	add(vertex)
	add(fragment)

	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, byBinding := range entries {
		merged[g] = wgpu.BindGroupLayoutDescriptor{Entries: sortedEntries(byBinding)}
	}
	return merged
}
