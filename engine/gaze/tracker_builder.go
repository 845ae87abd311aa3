package gaze

// TrackerBuilderOption is a functional option for configuring a Tracker.
// Options are applied before validation in NewTracker.
type TrackerBuilderOption func(*tracker)

// WithStartTarget sets the initial smoothed target. Defaults to the origin.
//
// Parameters:
//   - x, y, z: the initial look-at point in world space
//
// Returns:
//   - TrackerBuilderOption: functional option to set the start target
func WithStartTarget(x, y, z float32) TrackerBuilderOption {
	return func(t *tracker) {
		t.target = [3]float32{x, y, z}
	}
}

// WithForwardAxis sets which local axis of each node is aimed at the target.
//
// Parameters:
//   - axis: ForwardNegZ (default) or ForwardPosZ
//
// Returns:
//   - TrackerBuilderOption: functional option to set the forward axis
func WithForwardAxis(axis ForwardAxis) TrackerBuilderOption {
	return func(t *tracker) {
		t.forward = axis
	}
}

// WithEpsilon sets the threshold under which a ray counts as parallel to the reference plane.
//
// Parameters:
//   - eps: a positive threshold (default DefaultEpsilon)
//
// Returns:
//   - TrackerBuilderOption: functional option to set the epsilon
func WithEpsilon(eps float32) TrackerBuilderOption {
	return func(t *tracker) {
		t.epsilon = eps
	}
}

// WithMinDistance sets the node-to-target distance under which the target counts as
// coinciding with the node. Such nodes look along the gaze ray instead.
//
// Parameters:
//   - d: a non-negative distance in parent-space units (default DefaultMinDistance)
//
// Returns:
//   - TrackerBuilderOption: functional option to set the minimum distance
func WithMinDistance(d float32) TrackerBuilderOption {
	return func(t *tracker) {
		t.minDist = d
	}
}
