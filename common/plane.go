package common

import (
	"math"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// Ray is a half-line starting at Origin and extending along Direction.
// Direction is expected to be unit length.
type Ray struct {
	Origin    [3]float32
	Direction [3]float32
}

// NewPlane creates a normalized plane from a normal and any point lying on it.
// A zero normal yields a zero plane; use Valid to detect it.
//
// Parameters:
//   - normal: the plane normal (need not be unit length)
//   - point: a point on the plane
//
// Returns:
//   - Plane: the normalized plane
func NewPlane(normal, point [3]float32) Plane {
	p := Plane{Normal: normal, Distance: -Dot3(normal, point)}
	return p.Normalized()
}

// Normalized returns the plane scaled so that its normal has unit length.
// A plane with a zero normal is returned unchanged.
//
// Returns:
//   - Plane: the normalized plane
func (p Plane) Normalized() Plane {
	length := Length3(p.Normal)
	if length > 0 {
		invLen := 1.0 / length
		p.Normal[0] *= invLen
		p.Normal[1] *= invLen
		p.Normal[2] *= invLen
		p.Distance *= invLen
	}
	return p
}

// Valid reports whether the plane has a non-zero, finite normal and a finite distance.
func (p Plane) Valid() bool {
	l := float64(Length3(p.Normal))
	return l > 0 && !math.IsInf(l, 0) && !math.IsNaN(l) &&
		!math.IsNaN(float64(p.Distance)) && !math.IsInf(float64(p.Distance), 0)
}

// SignedDistance returns the signed distance of a point from the plane.
// Positive values lie on the side the normal points to. Only meaningful for normalized planes.
//
// Parameters:
//   - pt: the point to test
//
// Returns:
//   - float32: the signed distance
func (p Plane) SignedDistance(pt [3]float32) float32 {
	return Dot3(p.Normal, pt) + p.Distance
}

// IntersectRay intersects a ray with the plane.
// The ray misses when it runs parallel to the plane (|direction · normal| < eps)
// or when the plane lies behind its origin.
//
// Parameters:
//   - r: the ray to intersect
//   - eps: threshold under which the ray counts as parallel
//
// Returns:
//   - [3]float32: the intersection point
//   - bool: true if the ray hits the plane
func (p Plane) IntersectRay(r Ray, eps float32) ([3]float32, bool) {
	denom := Dot3(p.Normal, r.Direction)
	if math.Abs(float64(denom)) < float64(eps) || math.IsNaN(float64(denom)) {
		return [3]float32{}, false
	}
	t := -(Dot3(p.Normal, r.Origin) + p.Distance) / denom
	if t < 0 || math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
		return [3]float32{}, false
	}
	return [3]float32{
		r.Origin[0] + t*r.Direction[0],
		r.Origin[1] + t*r.Direction[1],
		r.Origin[2] + t*r.Direction[2],
	}, true
}
