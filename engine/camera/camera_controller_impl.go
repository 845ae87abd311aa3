package camera

import (
	"math"
	"sync"
)

// orbitController is the implementation of CameraController.
type orbitController struct {
	mu *sync.Mutex

	// position is derived from target and the spherical offset.
	position [3]float32
	target   [3]float32

	radius    float32
	azimuth   float32 // around Y, 0 = +Z
	elevation float32 // above the XZ plane

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed float32
	zoomSpeed  float32

	// eye is an absolute start position set by WithPosition; applied once in NewOrbitController.
	eye    [3]float32
	hasEye bool
}

var _ CameraController = &orbitController{}

// NewOrbitController creates a new orbit controller.
// Without options the eye sits 5 units from the origin, 30 degrees above the horizon.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewOrbitController(options ...CameraControllerOption) CameraController {
	cc := &orbitController{
		mu: &sync.Mutex{},

		radius:    5.0,
		elevation: float32(math.Pi / 6),

		minRadius:    0.5,
		maxRadius:    100.0,
		minElevation: float32(-math.Pi/2 + 0.05),
		maxElevation: float32(math.Pi/2 - 0.05),

		orbitSpeed: 0.03,
		zoomSpeed:  0.5,
	}

	for _, option := range options {
		option(cc)
	}

	if cc.hasEye {
		cc.setSpherical(cc.eye)
	}
	cc.clamp()
	cc.updatePosition()
	return cc
}

// updatePosition recomputes the eye position from the spherical offset.
// Caller must hold the mutex.
func (cc *orbitController) updatePosition() {
	cosElev := float32(math.Cos(float64(cc.elevation)))
	sinElev := float32(math.Sin(float64(cc.elevation)))
	cosAzim := float32(math.Cos(float64(cc.azimuth)))
	sinAzim := float32(math.Sin(float64(cc.azimuth)))

	cc.position[0] = cc.target[0] + cc.radius*cosElev*sinAzim
	cc.position[1] = cc.target[1] + cc.radius*sinElev
	cc.position[2] = cc.target[2] + cc.radius*cosElev*cosAzim
}

// setSpherical derives radius, azimuth and elevation from an absolute eye position.
// An eye on the target keeps the previous angles.
// Caller must hold the mutex.
func (cc *orbitController) setSpherical(eye [3]float32) {
	dx := float64(eye[0] - cc.target[0])
	dy := float64(eye[1] - cc.target[1])
	dz := float64(eye[2] - cc.target[2])
	r := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if r < 1e-8 {
		return
	}
	cc.radius = float32(r)
	cc.elevation = float32(math.Asin(dy / r))
	if dx != 0 || dz != 0 {
		cc.azimuth = float32(math.Atan2(dx, dz))
	}
}

// clamp keeps radius and elevation within the configured limits.
// Caller must hold the mutex.
func (cc *orbitController) clamp() {
	cc.radius = min(max(cc.radius, cc.minRadius), cc.maxRadius)
	cc.elevation = min(max(cc.elevation, cc.minElevation), cc.maxElevation)
}

func (cc *orbitController) Position() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0], cc.position[1], cc.position[2]
}

func (cc *orbitController) Target() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target[0], cc.target[1], cc.target[2]
}

func (cc *orbitController) SetTarget(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = [3]float32{x, y, z}
	cc.updatePosition()
}

func (cc *orbitController) SetPosition(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.setSpherical([3]float32{x, y, z})
	cc.clamp()
	cc.updatePosition()
}

func (cc *orbitController) Orbit(dAzimuth, dElevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth += dAzimuth
	cc.elevation += dElevation
	cc.clamp()
	cc.updatePosition()
}

func (cc *orbitController) OrbitLeft() {
	cc.Orbit(-cc.OrbitSpeed(), 0)
}

func (cc *orbitController) OrbitRight() {
	cc.Orbit(cc.OrbitSpeed(), 0)
}

func (cc *orbitController) OrbitUp() {
	cc.Orbit(0, cc.OrbitSpeed())
}

func (cc *orbitController) OrbitDown() {
	cc.Orbit(0, -cc.OrbitSpeed())
}

func (cc *orbitController) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius -= delta * cc.zoomSpeed
	cc.clamp()
	cc.updatePosition()
}

func (cc *orbitController) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *orbitController) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *orbitController) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}

func (cc *orbitController) OrbitSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.orbitSpeed
}

func (cc *orbitController) ZoomSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoomSpeed
}
