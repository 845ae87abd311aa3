package renderer

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-gaze/engine/model"
	"github.com/Carmen-Shannon/oxy-gaze/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-gaze/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// errNoFrame is returned by Draw and EndFrame when BeginFrame has not opened a frame.
var errNoFrame = errors.New("no frame in progress")

// initialInstanceCapacity is the number of instances the storage buffer holds before it first grows.
const initialInstanceCapacity = 64

// meshBuffers are the GPU copies of one mesh.
type meshBuffers struct {
	vertex     *wgpu.Buffer
	index      *wgpu.Buffer
	indexCount uint32
}

// pipelineResources are the GPU objects created for a registered render pipeline.
type pipelineResources struct {
	bindGroupLayouts []*wgpu.BindGroupLayout
	layout           *wgpu.PipelineLayout
	modules          []*wgpu.ShaderModule
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	renderPassDescriptor *wgpu.RenderPassDescriptor
	configured           bool

	presentMode wgpu.PresentMode // defaults to PresentModeFifo (VSync)
	clearColor  wgpu.Color

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView

	pipelines        map[string]*pipelineResources
	frameUniform     *wgpu.Buffer
	instanceBuffer   *wgpu.Buffer
	instanceCapacity int
	meshBindGroup    *wgpu.BindGroup
	meshes           map[string]*meshBuffers

	// Frame state between BeginFrame and Present
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

type wgpuRendererBackend interface {
	// ConfigureSurface (re)configures the swapchain for the given framebuffer size.
	// A zero-sized framebuffer (minimized window) leaves the surface unconfigured and
	// BeginFrame reports an error until a non-zero size is configured.
	//
	// Parameters:
	//   - width, height: framebuffer size in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the present mode applied at the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the colour the frame is cleared to.
	SetClearColor(c wgpu.Color)

	// RegisterRenderPipeline creates the GPU pipeline for p and stores it with SetRenderPipeline.
	// The surface must have been configured once so its format is known.
	//
	// Parameters:
	//   - p: the pipeline description
	//
	// Returns:
	//   - error: error if the description is incomplete or a GPU object could not be created
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// BeginFrame acquires the next surface texture and opens a clearing render pass.
	//
	// Returns:
	//   - error: error if no frame could be acquired
	BeginFrame() error

	// Draw uploads the frame uniform and instance data and records one instanced draw per
	// entry of draws with p into the open render pass.
	//
	// Parameters:
	//   - p: a pipeline registered with RegisterRenderPipeline whose group 0 binds the frame
	//     uniform at binding 0 and the instance storage buffer at binding 1
	//   - frame: the marshalled model.GPUFrame
	//   - instances: the marshalled instances referenced by draws
	//   - draws: the draw calls
	//
	// Returns:
	//   - error: error if no frame is open, the pipeline is unknown or a buffer could not be created
	Draw(p pipeline.Pipeline, frame, instances []byte, draws []meshDraw) error

	// EndFrame ends the render pass and submits the command buffer.
	//
	// Returns:
	//   - error: error if no frame is in progress or the command buffer could not be finished
	EndFrame() error

	// Present presents the acquired surface texture and releases the frame's resources.
	Present()

	// Release frees all GPU objects held by the backend.
	Release()
}

var _ wgpuRendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) wgpuRendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		clearColor:  wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		pipelines:   make(map[string]*pipelineResources),
		meshes:      make(map[string]*meshBuffers),
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	if width <= 0 || height <= 0 {
		b.configured = false
		return
	}

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.configured = true

	if err := b.createDepthTarget(width, height); err != nil {
		log.Printf("[Renderer] depth buffer disabled: %v", err)
	}

	// The color attachment's View is set per frame to the swapchain view.
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: b.clearColor,
			},
		},
	}
	if b.depthView != nil {
		b.renderPassDescriptor.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1,
		}
	}
}

// createDepthTarget replaces the depth texture with one matching the surface size.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) createDepthTarget(width, height int) error {
	b.releaseDepthTarget()

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Usage:         wgpu.TextureUsageRenderAttachment,
		Dimension:     wgpu.TextureDimension2D,
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		Format:        pipeline.DepthFormat,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	b.depthTexture = tex
	b.depthView = view
	return nil
}

func (b *wgpuRendererBackendImpl) releaseDepthTarget() {
	if b.depthView != nil {
		b.depthView.Release()
		b.depthView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	if err := p.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceFormat == nil {
		return errors.New("surface format unknown, configure the surface first")
	}

	res := &pipelineResources{}
	fail := func(err error) error {
		res.release()
		return err
	}

	for _, desc := range p.BindGroupLayouts() {
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return fail(fmt.Errorf("failed to create bind group layout %q: %w", desc.Label, err))
		}
		res.bindGroupLayouts = append(res.bindGroupLayouts, layout)
	}

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: res.bindGroupLayouts,
	})
	if err != nil {
		return fail(err)
	}
	res.layout = layout

	vertexShader, fragmentShader := p.Shader(shader.ShaderTypeVertex), p.Shader(shader.ShaderTypeFragment)
	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return fail(fmt.Errorf("shader %s: %w", vertexShader.Key(), err))
	}
	res.modules = append(res.modules, vs)
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return fail(fmt.Errorf("shader %s: %w", fragmentShader.Key(), err))
	}
	res.modules = append(res.modules, fs)

	created, err := b.device.CreateRenderPipeline(p.RenderPipelineDescriptor(*b.surfaceFormat, layout, vs, fs))
	if err != nil {
		return fail(err)
	}

	if old := b.pipelines[p.PipelineKey()]; old != nil {
		old.release()
	}
	b.pipelines[p.PipelineKey()] = res
	p.SetRenderPipeline(created)
	log.Printf("[Renderer] registered pipeline %s", p.PipelineKey())
	return nil
}

func (r *pipelineResources) release() {
	for _, m := range r.modules {
		m.Release()
	}
	if r.layout != nil {
		r.layout.Release()
	}
	for _, l := range r.bindGroupLayouts {
		l.Release()
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) SetClearColor(c wgpu.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clearColor = c
	if b.renderPassDescriptor != nil {
		b.renderPassDescriptor.ColorAttachments[0].ClearValue = c
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.configured {
		return fmt.Errorf("surface is not configured")
	}
	// A surface texture that was never presented must not be acquired twice.
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.renderPassDescriptor.ColorAttachments[0].View = view
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuRendererBackendImpl) Draw(p pipeline.Pipeline, frame, instances []byte, draws []meshDraw) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return errNoFrame
	}
	if len(draws) == 0 {
		return nil
	}
	res := b.pipelines[p.PipelineKey()]
	if res == nil || p.RenderPipeline() == nil || len(res.bindGroupLayouts) == 0 {
		return fmt.Errorf("pipeline %s is not registered", p.PipelineKey())
	}

	if err := b.ensureFrameBuffers(res.bindGroupLayouts[0], len(instances)/model.GPUInstanceSize); err != nil {
		return err
	}
	if err := b.queue.WriteBuffer(b.frameUniform, 0, frame); err != nil {
		return fmt.Errorf("failed to write frame uniform: %w", err)
	}
	if err := b.queue.WriteBuffer(b.instanceBuffer, 0, instances); err != nil {
		return fmt.Errorf("failed to write instances: %w", err)
	}

	pass := b.framePass
	pass.SetPipeline(p.RenderPipeline())
	pass.SetBindGroup(0, b.meshBindGroup, nil)
	for _, d := range draws {
		buffers, err := b.meshBuffersFor(d.mesh)
		if err != nil {
			return err
		}
		pass.SetVertexBuffer(0, buffers.vertex, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(buffers.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(buffers.indexCount, d.instanceCount, 0, 0, d.firstInstance)
	}
	return nil
}

// ensureFrameBuffers creates the frame uniform and grows the instance buffer to hold count
// instances, rebuilding the bind group whenever a buffer is replaced.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) ensureFrameBuffers(layout *wgpu.BindGroupLayout, count int) error {
	rebind := b.meshBindGroup == nil

	if b.frameUniform == nil {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Frame Uniform",
			Size:  model.GPUFrameSize,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("failed to create frame uniform: %w", err)
		}
		b.frameUniform = buf
		rebind = true
	}

	if count > b.instanceCapacity {
		capacity := max(initialInstanceCapacity, b.instanceCapacity)
		for capacity < count {
			capacity *= 2
		}
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Instance Buffer",
			Size:  uint64(capacity * model.GPUInstanceSize),
			Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("failed to grow instance buffer to %d: %w", capacity, err)
		}
		if b.instanceBuffer != nil {
			b.instanceBuffer.Release()
		}
		b.instanceBuffer = buf
		b.instanceCapacity = capacity
		rebind = true
	}

	if !rebind {
		return nil
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Mesh Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.frameUniform, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: b.instanceBuffer, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create mesh bind group: %w", err)
	}
	if b.meshBindGroup != nil {
		b.meshBindGroup.Release()
	}
	b.meshBindGroup = bg
	return nil
}

// meshBuffersFor returns the cached GPU buffers of m, uploading them on first use.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) meshBuffersFor(m model.Mesh) (*meshBuffers, error) {
	if mb, ok := b.meshes[m.Name()]; ok {
		return mb, nil
	}
	vertex, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    m.Name() + " Vertices",
		Contents: m.VertexData(),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh %s: %w", m.Name(), err)
	}
	index, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    m.Name() + " Indices",
		Contents: m.IndexData(),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vertex.Release()
		return nil, fmt.Errorf("mesh %s: %w", m.Name(), err)
	}
	mb := &meshBuffers{vertex: vertex, index: index, indexCount: uint32(m.IndexCount())}
	b.meshes[m.Name()] = mb
	return mb, nil
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil || b.frameEncoder == nil {
		return errNoFrame
	}

	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.releaseFrame()
		return fmt.Errorf("failed to finish command encoder: %w", err)
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()
	b.releaseFrame()
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrame()
	b.releaseDepthTarget()
	for name, mb := range b.meshes {
		mb.vertex.Release()
		mb.index.Release()
		delete(b.meshes, name)
	}
	if b.meshBindGroup != nil {
		b.meshBindGroup.Release()
		b.meshBindGroup = nil
	}
	if b.instanceBuffer != nil {
		b.instanceBuffer.Release()
		b.instanceBuffer = nil
		b.instanceCapacity = 0
	}
	if b.frameUniform != nil {
		b.frameUniform.Release()
		b.frameUniform = nil
	}
	for key, res := range b.pipelines {
		res.release()
		delete(b.pipelines, key)
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
	b.configured = false
}

// releaseFrame drops the references held for the current frame.
// Caller must hold the mutex.
func (b *wgpuRendererBackendImpl) releaseFrame() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}
