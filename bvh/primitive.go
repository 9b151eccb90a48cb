package bvh

import "github.com/achilleasa/bvhtrace/types"

// The Primitive interface is implemented by all primitives that can be
// partitioned by the BVH builder and tested during traversal.
type Primitive interface {
	BBox() AABB
	Center() types.Vec3

	// Test the primitive against the ray. Implementations must only report
	// hits with ray.TMin <= t <= ray.TMax and t < hit.Distance and must
	// update hit accordingly. PrimitiveIndex is filled in by the caller.
	Intersect(ray *Ray, hit *Intersection) bool
}

// A build-time handle to a primitive. It caches the primitive bbox and
// center so the builder never has to call back into the primitive.
type PrimitiveRef struct {
	BBox   AABB
	Center types.Vec3

	// Index into the caller's primitive slice.
	Index uint32
}

func newPrimitiveRefs(prims []Primitive) []PrimitiveRef {
	refs := make([]PrimitiveRef, len(prims))
	for index, prim := range prims {
		refs[index] = PrimitiveRef{
			BBox:   prim.BBox(),
			Center: prim.Center(),
			Index:  uint32(index),
		}
	}
	return refs
}
