package geometry

import (
	"github.com/achilleasa/bvhtrace/bvh"
	"github.com/achilleasa/bvhtrace/types"
)

// Determinants with a smaller magnitude are treated as rays parallel to the
// triangle plane.
const parallelEpsilon = 1e-9

// A triangle primitive with optional per-vertex normals.
type Triangle struct {
	Vertices [3]types.Vec3

	// Per-vertex normals; only used when HasNormals is set.
	Normals    [3]types.Vec3
	HasNormals bool

	bbox   bvh.AABB
	center types.Vec3
	normal types.Vec3
}

// Create a triangle from three vertices.
func NewTriangle(v0, v1, v2 types.Vec3) *Triangle {
	tri := &Triangle{
		Vertices: [3]types.Vec3{v0, v1, v2},
	}
	tri.Init()
	return tri
}

// Create a triangle with per-vertex normals used for shading.
func NewTriangleWithNormals(vertices, normals [3]types.Vec3) *Triangle {
	tri := &Triangle{
		Vertices:   vertices,
		Normals:    normals,
		HasNormals: true,
	}
	tri.Init()
	return tri
}

// Precompute bbox, center and face normal. Must be called again whenever the
// exported fields are filled in directly (e.g. after decoding).
func (t *Triangle) Init() {
	t.bbox = bvh.EmptyAABB()
	for _, v := range t.Vertices {
		t.bbox.ExpandPoint(v)
	}
	t.center = t.Vertices[0].Add(t.Vertices[1]).Add(t.Vertices[2]).Mul(1.0 / 3.0)

	e1 := t.Vertices[1].Sub(t.Vertices[0])
	e2 := t.Vertices[2].Sub(t.Vertices[0])
	t.normal = e1.Cross(e2).Normalize()
}

func (t *Triangle) BBox() bvh.AABB {
	return t.bbox
}

func (t *Triangle) Center() types.Vec3 {
	return t.center
}

// Intersect the triangle with a ray using the Möller-Trumbore algorithm. The
// reported normal always faces against the ray direction. Occlusion rays only
// get their distance updated.
func (t *Triangle) Intersect(ray *bvh.Ray, hit *bvh.Intersection) bool {
	e1 := t.Vertices[1].Sub(t.Vertices[0])
	e2 := t.Vertices[2].Sub(t.Vertices[0])

	h := ray.Direction.Cross(e2)
	det := e1.Dot(h)
	if det > -parallelEpsilon && det < parallelEpsilon {
		return false
	}

	invDet := 1.0 / det
	s := ray.Origin.Sub(t.Vertices[0])
	u := invDet * s.Dot(h)
	if u < 0 || u > 1 {
		return false
	}

	q := s.Cross(e1)
	v := invDet * ray.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return false
	}

	dist := invDet * e2.Dot(q)
	if dist < ray.TMin || dist > ray.TMax || dist >= hit.Distance {
		return false
	}

	hit.Found = true
	hit.Distance = dist
	if ray.OcclusionOnly {
		return true
	}

	hit.Position = ray.At(dist)

	normal := t.normal
	if t.HasNormals {
		w := 1 - u - v
		normal = t.Normals[0].Mul(w).Add(t.Normals[1].Mul(u)).Add(t.Normals[2].Mul(v)).Normalize()
	}
	if normal.Dot(ray.Direction) > 0 {
		normal = normal.Neg()
	}
	hit.Normal = normal

	return true
}

// Convert a triangle list to the primitive list expected by bvh.Build.
func Primitives(tris []*Triangle) []bvh.Primitive {
	prims := make([]bvh.Primitive, len(tris))
	for index, tri := range tris {
		prims[index] = tri
	}
	return prims
}
