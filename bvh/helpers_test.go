package bvh

import (
	"math"
	"math/rand"

	"github.com/achilleasa/bvhtrace/types"
)

// A sphere primitive used for exercising the hierarchy.
type sphere struct {
	center types.Vec3
	radius float32
}

func (s sphere) BBox() AABB {
	r := types.Vec3{s.radius, s.radius, s.radius}
	return AABB{Min: s.center.Sub(r), Max: s.center.Add(r)}
}

func (s sphere) Center() types.Vec3 {
	return s.center
}

func (s sphere) Intersect(ray *Ray, hit *Intersection) bool {
	oc := ray.Origin.Sub(s.center)
	a := ray.Direction.Dot(ray.Direction)
	if a == 0 {
		return false
	}
	b := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.radius*s.radius
	disc := b*b - a*c
	if disc < 0 {
		return false
	}

	sq := float32(math.Sqrt(float64(disc)))
	for _, t := range [2]float32{(-b - sq) / a, (-b + sq) / a} {
		if t < ray.TMin || t > ray.TMax || t >= hit.Distance {
			continue
		}
		hit.Found = true
		hit.Distance = t
		hit.Position = ray.At(t)
		hit.Normal = hit.Position.Sub(s.center).Normalize()
		return true
	}
	return false
}

func randomSpheres(rng *rand.Rand, count int, extent float32) []Primitive {
	prims := make([]Primitive, count)
	for index := range prims {
		prims[index] = sphere{
			center: randomPoint(rng, extent),
			radius: 0.05 + 0.25*rng.Float32(),
		}
	}
	return prims
}

func randomPoint(rng *rand.Rand, extent float32) types.Vec3 {
	return types.Vec3{
		(rng.Float32()*2 - 1) * extent,
		(rng.Float32()*2 - 1) * extent,
		(rng.Float32()*2 - 1) * extent,
	}
}

func randomRay(rng *rand.Rand, extent float32) Ray {
	for {
		dir := randomPoint(rng, 1)
		if dir.Len() > 1e-2 {
			return NewRay(randomPoint(rng, extent), dir.Normalize())
		}
	}
}

// Brute-force reference for closest hit queries.
func bruteForceClosest(prims []Primitive, ray Ray) Intersection {
	hit := NewIntersection()
	if ray.TMin > ray.TMax {
		return hit
	}
	for index, prim := range prims {
		if prim.Intersect(&ray, &hit) {
			hit.PrimitiveIndex = uint32(index)
		}
	}
	return hit
}

// Brute-force reference for any hit queries.
func bruteForceAny(prims []Primitive, ray Ray) bool {
	return bruteForceClosest(prims, ray).Found
}

type tracer interface {
	Accelerator
	traceClosest(ray *Ray) (Intersection, int)
	traceAny(ray *Ray) (bool, int)
}

func buildAll(prims []Primitive, maxLeafSize, workers int) map[Type]tracer {
	out := make(map[Type]tracer)
	for _, bvhType := range []Type{Binary, Wide} {
		accel, err := Build(prims, Options{Type: bvhType, MaxLeafSize: maxLeafSize, Workers: workers})
		if err != nil {
			panic(err)
		}
		out[bvhType] = accel.(tracer)
	}
	return out
}
