package bvh

import (
	"math"

	"github.com/achilleasa/bvhtrace/types"
)

// An axis-aligned bounding box.
type AABB struct {
	Min types.Vec3
	Max types.Vec3
}

// Create an empty AABB. The empty box uses +Inf/-Inf sentinels so that it acts
// as the identity element for Expand and Union.
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: types.Vec3{inf, inf, inf},
		Max: types.Vec3{-inf, -inf, -inf},
	}
}

// Create an AABB from its min and max corners.
func NewAABB(min, max types.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// Grow the box so it also encloses other.
func (b *AABB) Expand(other AABB) {
	b.Min = types.MinVec3(b.Min, other.Min)
	b.Max = types.MaxVec3(b.Max, other.Max)
}

// Grow the box so it also encloses point p.
func (b *AABB) ExpandPoint(p types.Vec3) {
	b.Min = types.MinVec3(b.Min, p)
	b.Max = types.MaxVec3(b.Max, p)
}

// Get the union of two boxes.
func (b AABB) Union(other AABB) AABB {
	b.Expand(other)
	return b
}

// Returns true if this box has not been expanded by anything yet.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Get the box center.
func (b AABB) Center() types.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Get the box side lengths.
func (b AABB) Extent() types.Vec3 {
	return b.Max.Sub(b.Min)
}

// Calculate the box surface area. Empty and flat boxes report zero.
func (b AABB) SurfaceArea() float32 {
	if b.IsEmpty() {
		return 0
	}

	d := b.Max.Sub(b.Min)
	return 2.0 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}

// Check whether other lies inside this box (with a per-axis tolerance).
func (b AABB) Contains(other AABB, epsilon float32) bool {
	for axis := 0; axis < 3; axis++ {
		if other.Min[axis] < b.Min[axis]-epsilon || other.Max[axis] > b.Max[axis]+epsilon {
			return false
		}
	}
	return true
}

// Intersect the box with a ray using the slab method.
//
// The ray's precomputed inverse direction replaces the per-slab division. A
// zero direction component produces a signed infinite reciprocal which makes
// the slab either span the whole line or reject it; when the origin lies
// exactly on a slab plane the product is NaN and the comparisons below simply
// ignore it.
func (b AABB) Intersect(ray *Ray) (hit bool, tEntry, tExit float32) {
	tEntry = float32(math.Inf(-1))
	tExit = float32(math.Inf(1))

	for axis := 0; axis < 3; axis++ {
		t0 := (b.Min[axis] - ray.Origin[axis]) * ray.InvDirection[axis]
		t1 := (b.Max[axis] - ray.Origin[axis]) * ray.InvDirection[axis]
		// Negated form so a NaN t0 paired with a -Inf t1 (negative zero
		// direction) still gets ordered.
		if !(t0 <= t1) {
			t0, t1 = t1, t0
		}
		if t0 > tEntry {
			tEntry = t0
		}
		if t1 < tExit {
			tExit = t1
		}
	}

	tNear := tEntry
	if ray.TMin > tNear {
		tNear = ray.TMin
	}
	if tExit < tNear || tEntry > ray.TMax {
		return false, tEntry, tExit
	}
	return true, tEntry, tExit
}
