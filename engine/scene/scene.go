package scene

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-gaze/common"
	"github.com/Carmen-Shannon/oxy-gaze/engine/camera"
	"github.com/Carmen-Shannon/oxy-gaze/engine/game_object"
	"github.com/Carmen-Shannon/oxy-gaze/engine/gaze"
	"github.com/Carmen-Shannon/oxy-gaze/engine/loader"
	"github.com/Carmen-Shannon/oxy-gaze/engine/model"
)

// ErrNodeNotFound is returned by Track when a requested node name does not exist in the scene.
var ErrNodeNotFound = errors.New("scene: node not found")

// FrameRenderer is the part of renderer.Renderer the scene drives each frame.
type FrameRenderer interface {
	BeginFrame() error
	Draw(viewProj [16]float32, batches []model.DrawBatch) error
	EndFrame() error
	Present()
}

// LoadCallback receives the result of a LoadAsync call on the tick thread.
// On success the hierarchy's roots have already been added to the scene.
type LoadCallback func(h *loader.Hierarchy, err error)

// Scene holds the object hierarchy, the camera and the gaze tracker of one view.
//
// Tick and Render must be called from the render loop. LoadAsync may be called from any
// goroutine; loads run on a worker pool and their results are applied during the next Tick.
type Scene interface {
	// Name returns the scene's display name.
	//
	// Returns:
	//   - string: the name of the scene
	Name() string

	// SetName sets the scene's display name.
	//
	// Parameters:
	//   - name: the new name for the scene
	SetName(name string)

	// Active reports whether the scene is active for ticking and rendering.
	//
	// Returns:
	//   - bool: true if the scene is active
	Active() bool

	// SetActive sets whether the scene is active for ticking and rendering.
	//
	// Parameters:
	//   - active: true to activate, false to deactivate
	SetActive(active bool)

	// Camera returns the scene's camera.
	//
	// Returns:
	//   - camera.Camera: the camera used for view/projection
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Renderer returns the renderer used by Render, or nil when the scene is headless.
	//
	// Returns:
	//   - FrameRenderer: the renderer or nil
	Renderer() FrameRenderer

	// SetRenderer sets the renderer used by Render. Pass nil for a headless scene.
	//
	// Parameters:
	//   - r: the renderer
	SetRenderer(r FrameRenderer)

	// Tracker returns the gaze tracker, or nil if none is attached.
	//
	// Returns:
	//   - gaze.Tracker: the tracker or nil
	Tracker() gaze.Tracker

	// SetTracker attaches a gaze tracker. Tracked nodes are kept.
	//
	// Parameters:
	//   - t: the tracker, or nil to stop orienting nodes
	SetTracker(t gaze.Tracker)

	// Count returns the number of root objects in the scene.
	//
	// Returns:
	//   - int: the number of roots
	Count() int

	// Add adds a root object to the scene. Objects with a zero or already used ID are
	// assigned a fresh one.
	//
	// Parameters:
	//   - obj: the root object to add
	//
	// Returns:
	//   - uint64: the ID the object is registered under
	Add(obj game_object.GameObject) uint64

	// Get returns the root object registered under id.
	//
	// Parameters:
	//   - id: the root's ID
	//
	// Returns:
	//   - game_object.GameObject: the root, or nil if not found
	Get(id uint64) game_object.GameObject

	// Roots returns the root objects in insertion order.
	//
	// Returns:
	//   - []game_object.GameObject: the roots
	Roots() []game_object.GameObject

	// Remove removes a root and its subtree. Tracked nodes inside the subtree stop being tracked.
	//
	// Parameters:
	//   - id: the root's ID
	Remove(id uint64)

	// Clear removes every object and tracked node.
	Clear()

	// Find returns the first object named name, searching the roots in insertion order.
	//
	// Parameters:
	//   - name: the node name
	//
	// Returns:
	//   - game_object.GameObject: the object, or nil if not found
	Find(name string) game_object.GameObject

	// Track sets the nodes oriented by the tracker, resolving each name with Find.
	// If any name cannot be resolved the tracked set is left unchanged.
	// Calling Track without names stops tracking.
	//
	// Parameters:
	//   - names: the node names
	//
	// Returns:
	//   - error: an error wrapping ErrNodeNotFound naming every missing node
	Track(names ...string) error

	// Tracked returns the tracked nodes in the order they were requested.
	//
	// Returns:
	//   - []game_object.GameObject: the tracked nodes
	Tracked() []game_object.GameObject

	// RecordPointer normalizes a cursor position against vp and hands it to the tracker.
	// It is a no-op without a tracker.
	//
	// Parameters:
	//   - x, y: cursor position in the viewport's coordinate space
	//   - vp: the viewport rectangle
	RecordPointer(x, y float32, vp gaze.Viewport)

	// LoadAsync imports a glTF/GLB node hierarchy on the scene's worker pool.
	// The roots are added and onLoaded is called during the first Tick after the load
	// completes. onLoaded may be nil.
	//
	// Parameters:
	//   - path: path to the .gltf or .glb file
	//   - onLoaded: callback run on the tick thread
	LoadAsync(path string, onLoaded LoadCallback)

	// PendingLoads returns the number of loads whose results have not been applied yet.
	//
	// Returns:
	//   - int: the number of outstanding loads
	PendingLoads() int

	// Tick applies finished loads, updates the camera and orients the tracked nodes.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous tick
	//
	// Returns:
	//   - []gaze.OrientationCommand: the commands applied this tick
	Tick(deltaTime float32) []gaze.OrientationCommand

	// Elapsed returns the sum of all deltaTime values passed to Tick.
	//
	// Returns:
	//   - float64: elapsed scene time in seconds
	Elapsed() float64

	// Render draws every enabled object that has a mesh at its world transform and presents
	// the frame. Objects sharing a mesh are drawn as one batch. A disabled object hides its
	// whole subtree. It is a no-op for a headless scene.
	//
	// Returns:
	//   - error: error if the frame could not be acquired, drawn or submitted
	Render() error
}

type loadResult struct {
	path      string
	hierarchy *loader.Hierarchy
	err       error
	onLoaded  LoadCallback
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	registry map[uint64]game_object.GameObject // roots by ID
	order    []uint64                          // root IDs in insertion order
	nextID   uint64

	cam     camera.Camera
	r       FrameRenderer
	tracker gaze.Tracker

	tracked      []game_object.GameObject
	trackedNodes []gaze.TrackedNode // reused across ticks

	elapsed float64

	ldr         loader.Loader
	loaded      chan loadResult
	pending     atomic.Int32
	nextTaskID  atomic.Int64
	loadPool    worker.DynamicWorkerPool
	loadWorkers int
}

var _ Scene = &scene{}

// NewScene creates a new Scene viewed through cam.
// Panics if cam is nil.
//
// Parameters:
//   - name: the display name of the scene
//   - cam: the camera
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}

	s := &scene{
		mu:          &sync.RWMutex{},
		name:        name,
		cam:         cam,
		registry:    make(map[uint64]game_object.GameObject),
		nextID:      1,
		loaded:      make(chan loadResult, 16),
		loadWorkers: max(runtime.NumCPU()/2, 1),
	}

	for _, option := range options {
		option(s)
	}

	if s.ldr == nil {
		s.ldr = loader.NewLoader(loader.BackendTypeGLTF)
	}
	s.loadPool = worker.NewDynamicWorkerPool(s.loadWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Renderer() FrameRenderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r
}

func (s *scene) SetRenderer(r FrameRenderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r = r
}

func (s *scene) Tracker() gaze.Tracker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker
}

func (s *scene) SetTracker(t gaze.Tracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker = t
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(obj)
}

// addLocked registers obj as a root. Caller must hold the write lock.
func (s *scene) addLocked(obj game_object.GameObject) uint64 {
	id := obj.ID()
	if _, taken := s.registry[id]; id == 0 || taken {
		for {
			id = s.nextID
			s.nextID++
			if _, taken := s.registry[id]; !taken {
				break
			}
		}
		obj.SetID(id)
	}
	s.registry[id] = obj
	s.order = append(s.order, id)
	return id
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Roots() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roots := make([]game_object.GameObject, 0, len(s.order))
	for _, id := range s.order {
		roots = append(roots, s.registry[id])
	}
	return roots
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, ok := s.registry[id]
	if !ok {
		return
	}
	delete(s.registry, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	kept := s.tracked[:0]
	for _, obj := range s.tracked {
		if rootOf(obj) != root {
			kept = append(kept, obj)
		}
	}
	clear(s.tracked[len(kept):])
	s.tracked = kept
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = make(map[uint64]game_object.GameObject)
	s.order = nil
	s.tracked = nil
}

func (s *scene) Find(name string) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(name)
}

// findLocked searches the roots in insertion order. Caller must hold the lock.
func (s *scene) findLocked(name string) game_object.GameObject {
	for _, id := range s.order {
		if obj := s.registry[id].Find(name); obj != nil {
			return obj
		}
	}
	return nil
}

func (s *scene) Track(names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := make([]game_object.GameObject, 0, len(names))
	var missing []string
	for _, name := range names {
		obj := s.findLocked(name)
		if obj == nil {
			missing = append(missing, name)
			continue
		}
		resolved = append(resolved, obj)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, strings.Join(missing, ", "))
	}

	s.tracked = resolved
	if len(names) > 0 {
		log.Printf("[Scene] %s: tracking %s", s.name, strings.Join(names, ", "))
	}
	return nil
}

func (s *scene) Tracked() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]game_object.GameObject, len(s.tracked))
	copy(out, s.tracked)
	return out
}

func (s *scene) RecordPointer(x, y float32, vp gaze.Viewport) {
	s.mu.RLock()
	t := s.tracker
	s.mu.RUnlock()
	if t == nil {
		return
	}
	t.RecordPointer(gaze.NormalizePointer(x, y, vp))
}

func (s *scene) LoadAsync(path string, onLoaded LoadCallback) {
	s.pending.Add(1)
	ldr := s.ldr
	s.loadPool.SubmitTask(worker.Task{
		ID: int(s.nextTaskID.Add(1)),
		Do: func() (any, error) {
			h, err := ldr.Load(path)
			s.loaded <- loadResult{path: path, hierarchy: h, err: err, onLoaded: onLoaded}
			return nil, nil
		},
	})
}

func (s *scene) PendingLoads() int {
	return int(s.pending.Load())
}

func (s *scene) Tick(deltaTime float32) []gaze.OrientationCommand {
	s.drainLoads()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.elapsed += float64(deltaTime)
	if s.cam == nil {
		return nil
	}
	s.cam.Update()
	if s.tracker == nil {
		return nil
	}

	s.trackedNodes = s.trackedNodes[:0]
	for _, obj := range s.tracked {
		if obj.Enabled() {
			s.trackedNodes = append(s.trackedNodes, obj)
		}
	}

	commands := s.tracker.Tick(s.cam, s.trackedNodes)
	for _, cmd := range commands {
		cmd.Apply()
	}
	return commands
}

func (s *scene) Elapsed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elapsed
}

func (s *scene) Render() error {
	s.mu.RLock()
	r := s.r
	s.mu.RUnlock()
	if r == nil {
		return nil
	}

	s.mu.RLock()
	viewProj := common.IdentityMatrix()
	if s.cam != nil {
		viewProj = s.cam.ViewProjectionMatrix()
	}
	batches := s.batchesLocked()
	s.mu.RUnlock()

	if err := r.BeginFrame(); err != nil {
		return fmt.Errorf("scene: begin frame: %w", err)
	}
	// The pass is closed and presented even when drawing fails so the next frame can start.
	drawErr := r.Draw(viewProj, batches)
	if err := r.EndFrame(); err != nil {
		return fmt.Errorf("scene: end frame: %w", err)
	}
	r.Present()
	if drawErr != nil {
		return fmt.Errorf("scene: draw: %w", drawErr)
	}
	return nil
}

// batchesLocked groups the visible meshes by mesh in the order they are first met.
// Caller must hold the lock.
func (s *scene) batchesLocked() []model.DrawBatch {
	var batches []model.DrawBatch
	index := make(map[model.Mesh]int)
	for _, id := range s.order {
		s.registry[id].Walk(func(obj game_object.GameObject) bool {
			if !obj.Enabled() {
				return false
			}
			m := obj.Mesh()
			if m == nil {
				return true
			}
			i, ok := index[m]
			if !ok {
				i = len(batches)
				index[m] = i
				batches = append(batches, model.DrawBatch{Mesh: m})
			}
			batches[i].Instances = append(batches[i].Instances, model.GPUInstance{
				Model: obj.WorldMatrix(),
				Color: obj.Color(),
			})
			return true
		})
	}
	return batches
}

// drainLoads applies every finished load without blocking.
// Callbacks run without the scene lock held so they may call back into the scene.
func (s *scene) drainLoads() {
	for {
		select {
		case res := <-s.loaded:
			s.applyLoad(res)
		default:
			return
		}
	}
}

func (s *scene) applyLoad(res loadResult) {
	defer s.pending.Add(-1)

	if res.err != nil {
		log.Printf("[Scene] failed to load %s: %v", res.path, res.err)
	} else {
		s.mu.Lock()
		for _, root := range res.hierarchy.Roots {
			s.addLocked(root)
		}
		s.mu.Unlock()
		log.Printf("[Scene] loaded %s: %d nodes", res.path, res.hierarchy.NodeCount)
	}

	if res.onLoaded != nil {
		res.onLoaded(res.hierarchy, res.err)
	}
}

// rootOf returns the topmost ancestor of obj.
func rootOf(obj game_object.GameObject) game_object.GameObject {
	for p := obj.Parent(); p != nil; p = obj.Parent() {
		obj = p
	}
	return obj
}
