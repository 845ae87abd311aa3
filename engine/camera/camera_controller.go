package camera

// CameraController moves a camera eye around a target point.
//
// The eye position is kept in spherical coordinates (radius, azimuth, elevation) relative
// to the target, so orbit and zoom never change where the camera is looking.
type CameraController interface {
	// Position returns the eye position in world space.
	//
	// Returns:
	//   - x, y, z: the eye position
	Position() (x, y, z float32)

	// Target returns the point the camera looks at.
	//
	// Returns:
	//   - x, y, z: the look-at point
	Target() (x, y, z float32)

	// SetTarget moves the pivot point. The eye follows so the spherical offset is kept.
	//
	// Parameters:
	//   - x, y, z: the new look-at point
	SetTarget(x, y, z float32)

	// SetPosition places the eye at an absolute position. The spherical offset is
	// recomputed from the new position and then clamped to the controller's limits.
	//
	// Parameters:
	//   - x, y, z: the new eye position
	SetPosition(x, y, z float32)

	// Orbit rotates the eye around the target.
	// Elevation is clamped to [MinElevation, MaxElevation].
	//
	// Parameters:
	//   - dAzimuth: change of the horizontal angle in radians
	//   - dElevation: change of the vertical angle in radians
	Orbit(dAzimuth, dElevation float32)

	// OrbitLeft rotates the eye left by one orbit step.
	OrbitLeft()

	// OrbitRight rotates the eye right by one orbit step.
	OrbitRight()

	// OrbitUp raises the eye by one orbit step.
	OrbitUp()

	// OrbitDown lowers the eye by one orbit step.
	OrbitDown()

	// Zoom moves the eye toward (positive delta) or away from the target.
	// The radius is clamped to [MinRadius, MaxRadius].
	//
	// Parameters:
	//   - delta: zoom amount, scaled by ZoomSpeed
	Zoom(delta float32)

	// Radius returns the distance between eye and target.
	Radius() float32

	// Azimuth returns the horizontal angle around the Y axis (0 = +Z).
	Azimuth() float32

	// Elevation returns the vertical angle above the horizontal plane.
	Elevation() float32

	// OrbitSpeed returns the angle applied by one orbit step.
	OrbitSpeed() float32

	// ZoomSpeed returns the radius change per unit of zoom delta.
	ZoomSpeed() float32
}
