package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-gaze/engine/model"
	"github.com/Carmen-Shannon/oxy-gaze/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-gaze/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	clearColor           [4]float64
	lighting             Lighting
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode

	meshPipeline pipeline.Pipeline
}

// Renderer presents frames to a window surface.
//
// Each frame is cleared to the configured background colour and then any number of Draw
// calls add lit meshes. The frame sequence is BeginFrame, Draw, EndFrame, Present; all of
// them must be called from the thread that created the renderer.
type Renderer interface {
	// Resize reconfigures the surface for a new framebuffer size.
	//
	// Parameters:
	//   - width, height: framebuffer size in pixels
	Resize(width, height int)

	// SetPresentMode sets how frames are delivered to the display.
	// Takes effect at the next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// ClearColor returns the background colour as RGBA in [0, 1].
	//
	// Returns:
	//   - [4]float64: the clear colour
	ClearColor() [4]float64

	// SetClearColor sets the background colour.
	//
	// Parameters:
	//   - r, g, b, a: colour components in [0, 1]
	SetClearColor(r, g, b, a float64)

	// Lighting returns the light applied to every mesh.
	//
	// Returns:
	//   - Lighting: the current lighting
	Lighting() Lighting

	// SetLighting replaces the light applied to every mesh from the next Draw on.
	//
	// Parameters:
	//   - l: the new lighting
	SetLighting(l Lighting)

	// BeginFrame acquires the next surface image and opens the clearing pass.
	//
	// Returns:
	//   - error: error if the surface image could not be acquired
	BeginFrame() error

	// Draw records lit, depth-tested draws into the open frame, one instanced draw per batch.
	// Mesh buffers are uploaded on first use and cached by mesh name.
	//
	// Parameters:
	//   - viewProj: column-major view-projection matrix of the camera
	//   - batches: the meshes to draw with their per-instance transforms and colours
	//
	// Returns:
	//   - error: error if no frame is open or a GPU buffer could not be created
	Draw(viewProj [16]float32, batches []model.DrawBatch) error

	// EndFrame closes the pass and submits it to the GPU queue.
	//
	// Returns:
	//   - error: error if no frame is open or submission failed
	EndFrame() error

	// Present shows the submitted frame.
	Present()

	// Release frees the GPU device and surface.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer drawing into the given window.
// Panics if no GPU adapter or device can be obtained.
//
// Parameters:
//   - backendType: the GPU backend to use
//   - window: the window providing the surface
//   - options: functional options to configure the renderer
//
// Returns:
//   - Renderer: the newly created renderer
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		clearColor:  [4]float64{0.1, 0.1, 0.1, 1.0},
		lighting:    DefaultLighting(),
	}

	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.backend.SetClearColor(toWGPUColor(r.clearColor))
	r.backend.ConfigureSurface(window.Width(), window.Height())

	r.meshPipeline = newMeshPipeline()
	if err := r.backend.RegisterRenderPipeline(r.meshPipeline); err != nil {
		panic(fmt.Sprintf("renderer: mesh pipeline: %v", err))
	}
	return r
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) ClearColor() [4]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clearColor
}

func (r *renderer) SetClearColor(red, green, blue, alpha float64) {
	r.mu.Lock()
	r.clearColor = [4]float64{red, green, blue, alpha}
	c := r.clearColor
	r.mu.Unlock()
	r.backend.SetClearColor(toWGPUColor(c))
}

func (r *renderer) Lighting() Lighting {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lighting
}

func (r *renderer) SetLighting(l Lighting) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lighting = l
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) Draw(viewProj [16]float32, batches []model.DrawBatch) error {
	instances, draws := packBatches(batches)
	r.mu.Lock()
	frame := r.lighting.frame(viewProj)
	r.mu.Unlock()
	return r.backend.Draw(r.meshPipeline, frame.Marshal(), model.MarshalInstances(instances), draws)
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.backend.Release()
}

func toWGPUColor(c [4]float64) wgpu.Color {
	return wgpu.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
}
