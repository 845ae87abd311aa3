package engine

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-gaze/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gaze/engine/scene"
	"github.com/Carmen-Shannon/oxy-gaze/engine/window"
)

// resizer is implemented by renderers that own a swapchain, such as renderer.Renderer.
type resizer interface {
	Resize(width, height int)
}

// engine implements the Engine interface.
// Ticks and frames both run on the window's thread, driven by its update callback.
type engine struct {
	running bool

	quitRequested bool
	closeOnce     sync.Once

	window window.Window

	profiler         *profiler.Profiler
	profilingEnabled bool

	tickRate         time.Duration
	maxTicksPerFrame int
	accumulator      time.Duration
	lastFrame        time.Time

	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	scenes map[int]scene.Scene

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It runs fixed-rate ticks and renders frames from the window's message loop.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// Scenes and the tick callback advance in steps of exactly 1/fps seconds.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick, before the scenes tick.
	// Use this for input processing and camera movement.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the tick length in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each rendered frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the frame time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given z-index key.
	// Scenes are ticked and rendered in ascending key order.
	//
	// Parameters:
	//   - key: the z-index determining order (lower first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Run starts the main engine loop. Blocks until the window closes or Quit is called.
	// Must be called from the thread that created the window.
	Run()

	// Quit asks the engine to close the window at the start of the next frame.
	// Safe to call multiple times.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		scenes:           make(map[int]scene.Scene),
		profiler:         profiler.NewProfiler(time.Second),
		tickRate:         time.Second / 60,
		maxTicksPerFrame: 5,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(e.resize)
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Run() {
	if e.window == nil {
		panic("engine: Run requires a window, use WithWindow")
	}

	e.running = true
	e.lastFrame = time.Now()
	e.window.SetUpdateCallback(e.update)
	e.window.ProcessMessages()
	e.running = false
	e.closeWindow()
}

func (e *engine) Quit() {
	e.quitRequested = true
}

func (e *engine) closeWindow() {
	e.closeOnce.Do(func() {
		if err := e.window.Close(); err != nil {
			log.Printf("[Engine] close window: %v", err)
		}
	})
}

// update is the window's per-iteration callback.
func (e *engine) update() {
	if e.quitRequested {
		e.closeWindow()
		return
	}

	now := time.Now()
	frameTime := now.Sub(e.lastFrame)
	e.lastFrame = now

	e.advance(frameTime)

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// advance runs as many fixed ticks as frameTime covers, then renders one frame.
// At most maxTicksPerFrame ticks run per frame; the rest of a long stall is dropped.
//
// Returns:
//   - int: the number of ticks that ran
func (e *engine) advance(frameTime time.Duration) int {
	e.accumulator += frameTime

	active := e.activeScenes()
	step := float32(e.tickRate.Seconds())

	ticks := 0
	for e.accumulator >= e.tickRate && ticks < e.maxTicksPerFrame {
		if e.tickCallback != nil {
			e.tickCallback(step)
		}
		for _, s := range active {
			s.Tick(step)
		}
		e.accumulator -= e.tickRate
		ticks++
		if e.profilingEnabled {
			e.profiler.CountTick()
		}
	}
	if e.accumulator >= e.tickRate {
		e.accumulator = 0
	}

	for _, s := range active {
		if err := s.Render(); err != nil {
			log.Printf("[Engine] render %s: %v", s.Name(), err)
		}
	}

	if e.renderCallback != nil {
		e.renderCallback(float32(frameTime.Seconds()))
	}
	if e.profilingEnabled {
		e.profiler.Frame()
	}
	return ticks
}

// activeScenes returns the active scenes in ascending z-index order.
func (e *engine) activeScenes() []scene.Scene {
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	active := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		if s := e.scenes[k]; s.Active() {
			active = append(active, s)
		}
	}
	return active
}

// resize forwards a framebuffer size change to every scene's renderer and camera.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	for _, s := range e.scenes {
		if r, ok := s.Renderer().(resizer); ok {
			r.Resize(width, height)
		}
		if c := s.Camera(); c != nil {
			c.SetAspect(float32(width) / float32(height))
		}
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetTickRate(fps float64) {
	e.tickRate = tickDuration(fps)
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}

func tickDuration(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}
