package bvh

import (
	"math"
	"testing"

	"github.com/achilleasa/bvhtrace/types"
)

func TestEmptyAABBIsExpandIdentity(t *testing.T) {
	box := NewAABB(types.XYZ(-1, 2, 3), types.XYZ(4, 5, 6))

	empty := EmptyAABB()
	if !empty.IsEmpty() {
		t.Fatal("expected EmptyAABB to report IsEmpty")
	}
	if got := empty.SurfaceArea(); got != 0 {
		t.Fatalf("expected empty box surface area to be 0; got %f", got)
	}

	if got := empty.Union(box); got != box {
		t.Fatalf("expected union with empty box to be %v; got %v", box, got)
	}
	if got := box.Union(EmptyAABB()); got != box {
		t.Fatalf("expected union with empty box to be %v; got %v", box, got)
	}
}

func TestAABBExpand(t *testing.T) {
	box := EmptyAABB()
	box.ExpandPoint(types.XYZ(1, 1, 1))
	box.Expand(NewAABB(types.XYZ(-1, 0, 2), types.XYZ(0, 3, 4)))

	expMin := types.XYZ(-1, 0, 1)
	expMax := types.XYZ(1, 3, 4)
	if box.Min != expMin || box.Max != expMax {
		t.Fatalf("expected box [%v, %v]; got [%v, %v]", expMin, expMax, box.Min, box.Max)
	}

	if !box.Contains(NewAABB(types.XYZ(0, 1, 2), types.XYZ(1, 2, 3)), 0) {
		t.Fatal("expected box to contain inner box")
	}
	if box.Contains(NewAABB(types.XYZ(0, 1, 2), types.XYZ(2, 2, 3)), 0) {
		t.Fatal("expected box not to contain overlapping box")
	}
}

func TestAABBSurfaceArea(t *testing.T) {
	specs := []struct {
		box AABB
		exp float32
	}{
		{NewAABB(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1)), 6},
		{NewAABB(types.XYZ(0, 0, 0), types.XYZ(1, 2, 3)), 22},
		// Flat
		{NewAABB(types.XYZ(0, 0, 0), types.XYZ(2, 3, 0)), 12},
		// Point
		{NewAABB(types.XYZ(1, 1, 1), types.XYZ(1, 1, 1)), 0},
	}

	for specIndex, spec := range specs {
		if got := spec.box.SurfaceArea(); got != spec.exp {
			t.Errorf("[spec %d] expected surface area %f; got %f", specIndex, spec.exp, got)
		}
	}
}

func TestAABBIntersect(t *testing.T) {
	box := NewAABB(types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1))

	specs := []struct {
		origin, dir types.Vec3
		tMin, tMax  float32
		expHit      bool
	}{
		// Head-on
		{types.XYZ(0, 0, -5), types.XYZ(0, 0, 1), 0, inf32(), true},
		// Pointing away
		{types.XYZ(0, 0, -5), types.XYZ(0, 0, -1), 0, inf32(), false},
		// Origin inside
		{types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), 0, inf32(), true},
		// Box beyond tMax
		{types.XYZ(0, 0, -5), types.XYZ(0, 0, 1), 0, 3, false},
		// Box behind tMin
		{types.XYZ(0, 0, -5), types.XYZ(0, 0, 1), 7, inf32(), false},
		// Parallel to the x slabs and outside them
		{types.XYZ(2, 0, -5), types.XYZ(0, 0, 1), 0, inf32(), false},
		// Parallel to the x slabs and inside them
		{types.XYZ(0.5, 0, -5), types.XYZ(0, 0, 1), 0, inf32(), true},
		// Parallel ray with origin exactly on a slab plane
		{types.XYZ(1, 0, -5), types.XYZ(0, 0, 1), 0, inf32(), true},
		// Negative zero components with the origin on the min and max slab planes
		{types.XYZ(-1, -1, 5), types.XYZ(0, 0, 1).Neg(), 0, inf32(), true},
		{types.XYZ(1, 1, 5), types.XYZ(0, 0, 1).Neg(), 0, inf32(), true},
		{types.XYZ(1, 0, -5), types.XYZ(0, 0, -1).Neg(), 0, inf32(), true},
		// Diagonal miss
		{types.XYZ(-5, 3, 0), types.XYZ(1, 1, 0), 0, inf32(), false},
	}

	for specIndex, spec := range specs {
		ray := NewRay(spec.origin, spec.dir)
		ray.TMin = spec.tMin
		ray.TMax = spec.tMax

		hit, _, _ := box.Intersect(&ray)
		if hit != spec.expHit {
			t.Errorf("[spec %d] expected hit to be %t; got %t", specIndex, spec.expHit, hit)
		}
	}
}

func TestAABBIntersectEntryExit(t *testing.T) {
	box := NewAABB(types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1))
	ray := NewRay(types.XYZ(0, 0, -5), types.XYZ(0, 0, 1))

	hit, tEntry, tExit := box.Intersect(&ray)
	if !hit {
		t.Fatal("expected ray to hit the box")
	}
	if tEntry != 4 || tExit != 6 {
		t.Fatalf("expected entry/exit distances 4/6; got %f/%f", tEntry, tExit)
	}
}

func inf32() float32 {
	return float32(math.Inf(1))
}
