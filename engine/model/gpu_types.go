package model

import (
	"encoding/binary"
	"math"
)

// Byte sizes of the GPU structs. They match the WGSL structs in the renderer's mesh shader.
const (
	GPUVertexSize   = 24
	GPUInstanceSize = 80
	GPUFrameSize    = 112
)

// GPUVertex is one mesh vertex as read by the vertex shader's VertexInput struct.
type GPUVertex struct {
	Position [3]float32 // offset  0: model-space position (12 bytes)
	Normal   [3]float32 // offset 12: unit normal (12 bytes)
}

// Marshal serializes the vertex into a 24-byte little-endian buffer.
//
// Returns:
//   - []byte: buffer ready for GPU upload
func (v *GPUVertex) Marshal() []byte {
	buf := make([]byte, GPUVertexSize)
	putFloats(buf, v.Position[:])
	putFloats(buf[12:], v.Normal[:])
	return buf
}

// GPUInstance is the per-object data of an instanced draw, read from a storage buffer.
type GPUInstance struct {
	Model [16]float32 // offset  0: column-major world matrix (64 bytes)
	Color [4]float32  // offset 64: linear RGBA base colour (16 bytes)
}

// Marshal serializes the instance into an 80-byte little-endian buffer.
//
// Returns:
//   - []byte: buffer ready for GPU upload
func (g *GPUInstance) Marshal() []byte {
	buf := make([]byte, GPUInstanceSize)
	putFloats(buf, g.Model[:])
	putFloats(buf[64:], g.Color[:])
	return buf
}

// GPUFrame is the per-frame uniform shared by every draw: camera and lighting.
type GPUFrame struct {
	ViewProj   [16]float32 // offset  0: column-major view-projection matrix (64 bytes)
	LightDir   [4]float32  // offset 64: direction the light travels, xyz normalized, w unused (16 bytes)
	LightColor [4]float32  // offset 80: rgb colour pre-multiplied by intensity (16 bytes)
	Ambient    [4]float32  // offset 96: rgb ambient colour pre-multiplied by intensity (16 bytes)
}

// Marshal serializes the frame uniform into a 112-byte little-endian buffer.
//
// Returns:
//   - []byte: buffer ready for GPU upload
func (f *GPUFrame) Marshal() []byte {
	buf := make([]byte, GPUFrameSize)
	putFloats(buf, f.ViewProj[:])
	putFloats(buf[64:], f.LightDir[:])
	putFloats(buf[80:], f.LightColor[:])
	putFloats(buf[96:], f.Ambient[:])
	return buf
}

// DrawBatch is every instance of one mesh drawn in a frame.
type DrawBatch struct {
	Mesh      Mesh
	Instances []GPUInstance
}

// MarshalInstances packs instances back to back for a storage buffer upload.
//
// Parameters:
//   - instances: the instances to pack
//
// Returns:
//   - []byte: len(instances) * GPUInstanceSize bytes
func MarshalInstances(instances []GPUInstance) []byte {
	buf := make([]byte, len(instances)*GPUInstanceSize)
	for i := range instances {
		off := i * GPUInstanceSize
		putFloats(buf[off:], instances[i].Model[:])
		putFloats(buf[off+64:], instances[i].Color[:])
	}
	return buf
}

func putFloats(buf []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}
