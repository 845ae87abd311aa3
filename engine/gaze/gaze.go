// Package gaze turns pointer positions into look-at orientations for scene nodes.
//
// A Tracker casts a ray from the camera through the latest pointer sample, intersects
// it with a fixed reference plane and low-pass filters the hit point into a single
// shared target. Every tick it emits one roll-free orientation command per tracked node.
// The package has no dependency on a window or GPU and is driven entirely by the caller's
// render loop.
package gaze

import "fmt"

// CameraContext is the per-frame camera snapshot the tracker casts rays from.
// engine/camera.Camera satisfies it.
type CameraContext interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - x, y, z: world-space camera position
	Position() (x, y, z float32)

	// ViewProjectionMatrix returns the combined view-projection matrix as 16 floats
	// (column-major, clip-space depth in [0, 1]).
	//
	// Returns:
	//   - [16]float32: the view-projection matrix
	ViewProjectionMatrix() [16]float32
}

// TrackedNode is a scene node that can be turned toward a point.
// The tracker only reads its transforms and writes its rotation; the scene graph owns it.
// engine/game_object.GameObject satisfies it.
type TrackedNode interface {
	// Name returns the node's name. Used for diagnostics only.
	Name() string

	// WorldMatrix returns the node's local-to-world transform (column-major).
	WorldMatrix() [16]float32

	// ParentMatrix returns the parent's local-to-world transform (column-major).
	// Root nodes return the identity.
	ParentMatrix() [16]float32

	// SetRotation sets the node's Euler rotation in parent space (Y * X * Z order).
	//
	// Parameters:
	//   - rx, ry, rz: rotation angles in radians
	SetRotation(rx, ry, rz float32)
}

// OrientationCommand is the rotation computed for one node during a tick.
// Rotation holds Euler angles (rx = pitch, ry = yaw, rz = roll) in the node's parent space;
// roll is always zero.
type OrientationCommand struct {
	Node     TrackedNode
	Rotation [3]float32
}

// Apply writes the command's rotation to its node.
func (c OrientationCommand) Apply() {
	c.Node.SetRotation(c.Rotation[0], c.Rotation[1], c.Rotation[2])
}

// ForwardAxis selects which local axis of a tracked node is aimed at the target.
type ForwardAxis int

const (
	// ForwardNegZ aims the local -Z axis at the target (camera convention). This is the default.
	ForwardNegZ ForwardAxis = iota

	// ForwardPosZ aims the local +Z axis at the target (object convention used by most exported meshes).
	ForwardPosZ
)

// String returns the axis name as used in scene configuration files.
func (a ForwardAxis) String() string {
	switch a {
	case ForwardPosZ:
		return "+z"
	default:
		return "-z"
	}
}

// ParseForwardAxis maps "-z" or "+z" to a ForwardAxis. An empty string selects ForwardNegZ.
//
// Parameters:
//   - s: the axis name
//
// Returns:
//   - ForwardAxis: the parsed axis
//   - error: an error wrapping ErrInvalidConfiguration for any other value
func ParseForwardAxis(s string) (ForwardAxis, error) {
	switch s {
	case "", "-z":
		return ForwardNegZ, nil
	case "+z":
		return ForwardPosZ, nil
	}
	return ForwardNegZ, fmt.Errorf("%w: unknown forward axis %q", ErrInvalidConfiguration, s)
}
