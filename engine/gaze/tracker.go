package gaze

import (
	"errors"
	"fmt"
	"log"
	"math"
	"reflect"

	"github.com/Carmen-Shannon/oxy-gaze/common"
)

// ErrInvalidConfiguration is returned when a tracker is created or reconfigured with
// values outside their valid range.
var ErrInvalidConfiguration = errors.New("gaze: invalid configuration")

const (
	// DefaultEpsilon is the default threshold under which a ray counts as parallel to the plane.
	DefaultEpsilon float32 = 1e-6

	// DefaultMinDistance is the default node-to-target distance under which the target is
	// considered to coincide with the node.
	DefaultMinDistance float32 = 1e-3

	// degenerateRatio bounds |det| / (|c0|·|c1|·|c2|) for the world 3x3 columns. Below it the
	// basis is collapsed or nearly coplanar. The ratio does not depend on scale.
	degenerateRatio = 1e-6
)

// tracker is the implementation of the Tracker interface.
// It is not safe for concurrent use; all calls must come from the render loop.
type tracker struct {
	plane     common.Plane
	smoothing float32
	epsilon   float32
	minDist   float32
	forward   ForwardAxis

	pointer PointerSample
	target  [3]float32

	lastRay    common.Ray
	hasLastRay bool

	// skipped remembers which nodes were last skipped so the log is not flooded every tick.
	skipped map[string]bool
}

// Tracker maintains a single smoothed look-at target and orients tracked nodes toward it.
//
// Pointer input and ticks are decoupled: RecordPointer only stores the latest sample
// (last write wins) and Tick consumes whatever sample is current. All tracked nodes of
// a tick are oriented from the same smoothed target.
type Tracker interface {
	// RecordPointer stores the latest pointer sample. It does not recompute anything;
	// only the most recent sample before a Tick is used.
	//
	// Parameters:
	//   - sample: the normalized pointer position
	RecordPointer(sample PointerSample)

	// Tick casts a ray from the camera through the latest pointer sample, intersects it with
	// the reference plane, moves the smoothed target toward the hit point and returns one
	// orientation command per node that could be oriented.
	// When the ray misses the plane the previous target is reused unchanged. Nodes with a
	// degenerate transform are skipped for this tick only.
	//
	// Parameters:
	//   - cam: the camera snapshot for this frame
	//   - nodes: the nodes to orient; nil entries and nil pointers are ignored
	//
	// Returns:
	//   - []OrientationCommand: the commands, in node order, with zero roll
	Tick(cam CameraContext, nodes []TrackedNode) []OrientationCommand

	// Target returns the current smoothed look-at point in world space.
	//
	// Returns:
	//   - [3]float32: the smoothed target
	Target() [3]float32

	// Pointer returns the latest recorded pointer sample.
	//
	// Returns:
	//   - PointerSample: the latest sample, or the center if none was recorded
	Pointer() PointerSample

	// LastRay returns the ray cast by the most recent Tick that could build one.
	//
	// Returns:
	//   - common.Ray: the ray in world space
	//   - bool: false if no tick has produced a ray yet
	LastRay() (common.Ray, bool)

	// Plane returns the reference plane rays are intersected with.
	//
	// Returns:
	//   - common.Plane: the normalized reference plane
	Plane() common.Plane

	// ForwardAxis returns the local axis aimed at the target.
	//
	// Returns:
	//   - ForwardAxis: the configured forward axis
	ForwardAxis() ForwardAxis

	// Smoothing returns the smoothing factor α.
	//
	// Returns:
	//   - float32: the factor in (0, 1]
	Smoothing() float32

	// SetSmoothing replaces the smoothing factor. The current target is kept.
	//
	// Parameters:
	//   - alpha: the new factor, must lie in (0, 1]
	//
	// Returns:
	//   - error: an error wrapping ErrInvalidConfiguration if alpha is out of range
	SetSmoothing(alpha float32) error
}

var _ Tracker = &tracker{}

// NewTracker creates a Tracker intersecting gaze rays with plane and smoothing the target
// with factor smoothing. A factor of 1 disables smoothing.
//
// Parameters:
//   - plane: the reference plane (normalized on creation)
//   - smoothing: the exponential smoothing factor α in (0, 1]
//   - options: functional options to configure the tracker
//
// Returns:
//   - Tracker: the newly created tracker
//   - error: an error wrapping ErrInvalidConfiguration if any setting is out of range
func NewTracker(plane common.Plane, smoothing float32, options ...TrackerBuilderOption) (Tracker, error) {
	if err := validateSmoothing(smoothing); err != nil {
		return nil, err
	}
	if !plane.Valid() {
		return nil, fmt.Errorf("%w: reference plane normal must be non-zero and finite", ErrInvalidConfiguration)
	}

	t := &tracker{
		plane:     plane.Normalized(),
		smoothing: smoothing,
		epsilon:   DefaultEpsilon,
		minDist:   DefaultMinDistance,
		forward:   ForwardNegZ,
		skipped:   make(map[string]bool),
	}
	for _, option := range options {
		option(t)
	}

	if !(t.epsilon > 0) || math.IsInf(float64(t.epsilon), 0) {
		return nil, fmt.Errorf("%w: epsilon %v must be positive and finite", ErrInvalidConfiguration, t.epsilon)
	}
	if !(t.minDist >= 0) || math.IsInf(float64(t.minDist), 0) {
		return nil, fmt.Errorf("%w: minimum distance %v must be non-negative and finite", ErrInvalidConfiguration, t.minDist)
	}
	if t.forward != ForwardNegZ && t.forward != ForwardPosZ {
		return nil, fmt.Errorf("%w: unknown forward axis %d", ErrInvalidConfiguration, t.forward)
	}
	for _, v := range t.target {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("%w: start target %v is not finite", ErrInvalidConfiguration, t.target)
		}
	}
	return t, nil
}

func (t *tracker) RecordPointer(sample PointerSample) {
	t.pointer = sample
}

func (t *tracker) Tick(cam CameraContext, nodes []TrackedNode) []OrientationCommand {
	ray, rayOK := t.castRay(cam)
	if rayOK {
		t.lastRay, t.hasLastRay = ray, true
		if hit, ok := t.plane.IntersectRay(ray, t.epsilon); ok {
			t.smooth(hit)
		}
	}

	// Every node reads this one value; nothing below writes to t.target.
	target := t.target

	commands := make([]OrientationCommand, 0, len(nodes))
	for _, n := range nodes {
		if isNil(n) {
			continue
		}
		rot, reason := t.orient(n, target, ray, rayOK)
		if reason != "" {
			t.markSkipped(n.Name(), reason)
			continue
		}
		t.markOriented(n.Name())
		commands = append(commands, OrientationCommand{Node: n, Rotation: rot})
	}
	return commands
}

func (t *tracker) Target() [3]float32 {
	return t.target
}

func (t *tracker) Pointer() PointerSample {
	return t.pointer
}

func (t *tracker) LastRay() (common.Ray, bool) {
	return t.lastRay, t.hasLastRay
}

func (t *tracker) Plane() common.Plane {
	return t.plane
}

func (t *tracker) ForwardAxis() ForwardAxis {
	return t.forward
}

func (t *tracker) Smoothing() float32 {
	return t.smoothing
}

func (t *tracker) SetSmoothing(alpha float32) error {
	if err := validateSmoothing(alpha); err != nil {
		return err
	}
	t.smoothing = alpha
	return nil
}

// validateSmoothing checks that alpha lies in (0, 1]. NaN fails both comparisons.
func validateSmoothing(alpha float32) error {
	if !(alpha > 0 && alpha <= 1) {
		return fmt.Errorf("%w: smoothing factor %v outside (0, 1]", ErrInvalidConfiguration, alpha)
	}
	return nil
}

// castRay unprojects the current pointer sample at clip depth 0 and 1 and returns the ray
// from the camera position along the resulting direction.
func (t *tracker) castRay(cam CameraContext) (common.Ray, bool) {
	if cam == nil {
		return common.Ray{}, false
	}
	vp := cam.ViewProjectionMatrix()
	var inv [16]float32
	if !common.Invert4(inv[:], vp[:]) {
		return common.Ray{}, false
	}

	nearPt, ok := common.TransformPoint4(inv[:], t.pointer.X, t.pointer.Y, 0)
	if !ok {
		return common.Ray{}, false
	}
	farPt, ok := common.TransformPoint4(inv[:], t.pointer.X, t.pointer.Y, 1)
	if !ok {
		return common.Ray{}, false
	}

	dir := [3]float32{farPt[0] - nearPt[0], farPt[1] - nearPt[1], farPt[2] - nearPt[2]}
	length := common.Length3(dir)
	if !(length > 0) || math.IsInf(float64(length), 0) {
		return common.Ray{}, false
	}

	px, py, pz := cam.Position()
	return common.Ray{
		Origin:    [3]float32{px, py, pz},
		Direction: [3]float32{dir[0] / length, dir[1] / length, dir[2] / length},
	}, true
}

// smooth moves the shared target toward raw: target = (1-α)·target + α·raw.
// With α = 1 the result is exactly raw.
func (t *tracker) smooth(raw [3]float32) {
	a := t.smoothing
	b := 1 - a
	for i := range t.target {
		t.target[i] = b*t.target[i] + a*raw[i]
	}
}

// orient computes the parent-space yaw and pitch that aim the node's forward axis at target.
// A non-empty reason means the node must be skipped this tick.
func (t *tracker) orient(n TrackedNode, target [3]float32, ray common.Ray, rayOK bool) ([3]float32, string) {
	world := n.WorldMatrix()
	if degenerate(world) {
		return [3]float32{}, "degenerate world transform"
	}

	parent := n.ParentMatrix()
	var invParent [16]float32
	if !common.Invert4(invParent[:], parent[:]) {
		return [3]float32{}, "singular parent transform"
	}

	pos, ok := common.TransformPoint4(invParent[:], world[12], world[13], world[14])
	if !ok {
		return [3]float32{}, "invalid node position"
	}
	tgt, ok := common.TransformPoint4(invParent[:], target[0], target[1], target[2])
	if !ok {
		return [3]float32{}, "invalid target in parent space"
	}

	dir := [3]float32{tgt[0] - pos[0], tgt[1] - pos[1], tgt[2] - pos[2]}
	if common.Length3(dir) <= t.minDist {
		// The target sits on the node itself; look along the gaze ray instead.
		if !rayOK {
			return [3]float32{}, "target coincides with node and no ray is available"
		}
		dir = common.TransformDir(invParent[:], ray.Direction[0], ray.Direction[1], ray.Direction[2])
	}
	length := common.Length3(dir)
	if !(length > 0) || math.IsInf(float64(length), 0) {
		return [3]float32{}, "no usable direction"
	}
	dir = [3]float32{dir[0] / length, dir[1] / length, dir[2] / length}

	rx, ry := t.forward.yawPitch(dir)
	return [3]float32{rx, ry, 0}, ""
}

// degenerate reports whether the upper-left 3x3 block of m has a zero or non-finite column,
// or columns so close to coplanar that no rotation can be recovered.
func degenerate(m [16]float32) bool {
	volume := 1.0
	for c := 0; c < 3; c++ {
		l := float64(common.Length3([3]float32{m[c*4], m[c*4+1], m[c*4+2]}))
		if !(l > 0) || math.IsInf(l, 0) {
			return true
		}
		volume *= l
	}
	det := math.Abs(float64(common.Det3(m[:])))
	return !(det > degenerateRatio*volume)
}

// yawPitch returns the pitch (rx) and yaw (ry) that rotate the forward axis onto the unit
// direction d under the Y * X * Z rotation order of common.BuildModelMatrix.
//
// For -Z: R·(0,0,-1) = (-sin(ry)cos(rx), sin(rx), -cos(ry)cos(rx)).
// For +Z: R·(0,0, 1) = ( sin(ry)cos(rx), -sin(rx), cos(ry)cos(rx)).
func (a ForwardAxis) yawPitch(d [3]float32) (rx, ry float32) {
	switch a {
	case ForwardPosZ:
		rx = asin32(-d[1])
		ry = float32(math.Atan2(float64(d[0]), float64(d[2])))
	default:
		rx = asin32(d[1])
		ry = float32(math.Atan2(float64(-d[0]), float64(-d[2])))
	}
	return
}

func asin32(v float32) float32 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return float32(math.Asin(float64(v)))
}

// isNil reports whether n is nil or an interface holding a nil pointer.
func isNil(n TrackedNode) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func (t *tracker) markSkipped(name, reason string) {
	if t.skipped[name] {
		return
	}
	t.skipped[name] = true
	log.Printf("[Gaze] skipping node %q: %s", name, reason)
}

func (t *tracker) markOriented(name string) {
	if t.skipped[name] {
		delete(t.skipped, name)
		log.Printf("[Gaze] node %q is orientable again", name)
	}
}
