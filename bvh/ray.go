package bvh

import (
	"math"

	"github.com/achilleasa/bvhtrace/types"
)

// A ray with a valid parametric interval [TMin, TMax].
type Ray struct {
	Origin       types.Vec3
	Direction    types.Vec3
	InvDirection types.Vec3

	TMin float32
	TMax float32

	// When set, primitives may skip computing anything beyond the hit
	// distance and traversal stops at the first hit.
	OcclusionOnly bool
}

// Create a ray spanning [0, +Inf) and precompute its inverse direction.
func NewRay(origin, direction types.Vec3) Ray {
	return Ray{
		Origin:       origin,
		Direction:    direction,
		InvDirection: direction.Recip(),
		TMin:         0,
		TMax:         float32(math.Inf(1)),
	}
}

// Get the point at distance t along the ray.
func (r *Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// The result of a ray query.
type Intersection struct {
	Found    bool
	Distance float32
	Position types.Vec3
	Normal   types.Vec3

	// Index into the primitive slice passed to Build.
	PrimitiveIndex uint32
}

// Create an intersection with no hit recorded.
func NewIntersection() Intersection {
	return Intersection{
		Distance: float32(math.Inf(1)),
	}
}
