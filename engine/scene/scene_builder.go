package scene

import (
	"github.com/Carmen-Shannon/oxy-gaze/engine/game_object"
	"github.com/Carmen-Shannon/oxy-gaze/engine/gaze"
	"github.com/Carmen-Shannon/oxy-gaze/engine/loader"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for ticking and rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithObjects adds initial root objects to the scene.
// Objects without IDs will be assigned new IDs.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			s.addLocked(obj)
		}
	}
}

// WithRenderer sets the renderer used by Render. Without it the scene is headless.
//
// Parameters:
//   - r: the renderer, typically a renderer.Renderer
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRenderer(r FrameRenderer) SceneBuilderOption {
	return func(s *scene) {
		s.r = r
	}
}

// WithTracker attaches the gaze tracker that orients the tracked nodes every Tick.
//
// Parameters:
//   - t: the tracker
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithTracker(t gaze.Tracker) SceneBuilderOption {
	return func(s *scene) {
		s.tracker = t
	}
}

// WithLoader replaces the loader used by LoadAsync. Defaults to a glTF loader.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLoader(l loader.Loader) SceneBuilderOption {
	return func(s *scene) {
		s.ldr = l
	}
}

// WithLoadWorkers sets the number of worker goroutines used by LoadAsync.
// Defaults to half of runtime.NumCPU(), at least 1.
//
// Parameters:
//   - n: the number of load workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLoadWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		s.loadWorkers = max(n, 1)
	}
}
