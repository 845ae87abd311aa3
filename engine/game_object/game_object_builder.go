package game_object

import "github.com/Carmen-Shannon/oxy-gaze/engine/model"

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithID sets the ID of the GameObject.
//
// Parameters:
//   - id: identifier for the GameObject
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the ID
func WithID(id uint64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.id = id
	}
}

// WithName sets the name used to look the object up in the hierarchy.
//
// Parameters:
//   - name: the object's name
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the name
func WithName(name string) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.name = name
	}
}

// WithEnabled sets whether the GameObject takes part in ticking. Objects are enabled by default.
//
// Parameters:
//   - enabled: false to skip the object
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.enabled.Store(enabled)
	}
}

// WithPosition sets the translation relative to the parent.
//
// Parameters:
//   - x, y, z: local translation
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the position
func WithPosition(x, y, z float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.position = [3]float32{x, y, z}
	}
}

// WithRotation sets the Euler rotation (radians, Y * X * Z order) relative to the parent.
//
// Parameters:
//   - rx, ry, rz: rotation angles in radians
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the rotation
func WithRotation(rx, ry, rz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rotation = [3]float32{rx, ry, rz}
	}
}

// WithScale sets the scale relative to the parent.
//
// Parameters:
//   - sx, sy, sz: scale factors
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the scale
func WithScale(sx, sy, sz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.scale = [3]float32{sx, sy, sz}
	}
}

// WithMesh sets the mesh drawn at the object's world transform.
//
// Parameters:
//   - m: the mesh, or nil for an invisible object
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the mesh
func WithMesh(m model.Mesh) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.mesh = m
	}
}

// WithColor sets the linear RGBA base colour of the mesh.
//
// Parameters:
//   - c: the colour
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the colour
func WithColor(c [4]float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.color = c
	}
}
