package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*orbitController)

// WithRadius sets the initial orbit radius (distance from target).
//
// Parameters:
//   - radius: distance from the orbit target
//
// Returns:
//   - CameraControllerOption: functional option to set the radius
func WithRadius(radius float32) CameraControllerOption {
	return func(cc *orbitController) {
		cc.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle around the Y axis.
//
// Parameters:
//   - azimuth: horizontal angle in radians (0 = +Z axis)
//
// Returns:
//   - CameraControllerOption: functional option to set the azimuth
func WithAzimuth(azimuth float32) CameraControllerOption {
	return func(cc *orbitController) {
		cc.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical angle from the horizontal plane.
//
// Parameters:
//   - elevation: vertical angle in radians (0 = horizontal)
//
// Returns:
//   - CameraControllerOption: functional option to set the elevation
func WithElevation(elevation float32) CameraControllerOption {
	return func(cc *orbitController) {
		cc.elevation = elevation
	}
}

// WithTarget sets the look-at/pivot point.
//
// Parameters:
//   - x, y, z: coordinates of the target
//
// Returns:
//   - CameraControllerOption: functional option to set the target position
func WithTarget(x, y, z float32) CameraControllerOption {
	return func(cc *orbitController) {
		cc.target = [3]float32{x, y, z}
	}
}

// WithPosition places the eye at an absolute start position.
// Radius, azimuth and elevation are derived from it relative to the target once all
// options have been applied, so it overrides WithRadius, WithAzimuth and WithElevation.
//
// Parameters:
//   - x, y, z: the eye position in world space
//
// Returns:
//   - CameraControllerOption: functional option to set the eye position
func WithPosition(x, y, z float32) CameraControllerOption {
	return func(cc *orbitController) {
		cc.eye = [3]float32{x, y, z}
		cc.hasEye = true
	}
}

// WithRadiusBounds sets the minimum and maximum orbit radius.
//
// Parameters:
//   - lo: minimum radius
//   - hi: maximum radius
//
// Returns:
//   - CameraControllerOption: functional option to set the radius bounds
func WithRadiusBounds(lo, hi float32) CameraControllerOption {
	return func(cc *orbitController) {
		cc.minRadius = lo
		cc.maxRadius = hi
	}
}

// WithElevationBounds sets the minimum and maximum elevation angle in radians.
func WithElevationBounds(lo, hi float32) CameraControllerOption {
	return func(cc *orbitController) {
		cc.minElevation = lo
		cc.maxElevation = hi
	}
}

// WithOrbitSpeed sets the angle in radians applied by one OrbitLeft/Right/Up/Down step.
func WithOrbitSpeed(speed float32) CameraControllerOption {
	return func(cc *orbitController) {
		cc.orbitSpeed = speed
	}
}

// WithZoomSpeed sets the radius change per unit of zoom delta.
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *orbitController) {
		cc.zoomSpeed = speed
	}
}
