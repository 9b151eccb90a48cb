package scene

import (
	"fmt"
	"strings"
	"time"

	"github.com/achilleasa/bvhtrace/asset/archive"
	"github.com/achilleasa/bvhtrace/asset/geometry"
	"github.com/achilleasa/bvhtrace/asset/reader"
	"github.com/achilleasa/bvhtrace/bvh"
	"github.com/achilleasa/bvhtrace/config"
	"github.com/achilleasa/bvhtrace/log"
	"github.com/achilleasa/bvhtrace/types"
)

// Compiled scene files use this extension.
const ArchiveExt = ".bvh"

var logger = log.New("scene")

// The Intersector interface is implemented by anything that can answer ray
// queries against the scene triangles.
type Intersector interface {
	IntersectClosest(ray bvh.Ray) bvh.Intersection
	IntersectAny(ray bvh.Ray) bool
}

type Scene struct {
	Triangles []*geometry.Triangle
	Camera    *Camera

	// Assigned as TMin to rays created by NewRay.
	RayMinDistance float32

	// Nil when the hierarchy is disabled.
	accel bvh.Accelerator
	prims []bvh.Primitive
}

// Create a scene over a triangle list and build its hierarchy unless it is
// disabled by the configuration.
func New(tris []*geometry.Triangle, camDef *reader.CameraDef, cfg *config.Config) (*Scene, error) {
	if len(tris) == 0 {
		return nil, bvh.ErrNoPrimitives
	}

	sc := newScene(tris, camDef, cfg)
	if !cfg.BVH.Enabled {
		logger.Notice("bvh disabled; rays will be tested against every triangle")
		return sc, nil
	}

	opts, err := cfg.BuildOptions()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sc.accel, err = bvh.Build(sc.prims, opts)
	if err != nil {
		return nil, err
	}
	logger.Infof("built %s over %d triangles in %d ms", opts.Type, len(tris), time.Since(start).Nanoseconds()/1e6)

	return sc, nil
}

// Create a scene from a compiled archive. The archived hierarchy is used
// as-is unless the configuration disables it.
func FromArchive(a *archive.Archive, cfg *config.Config) *Scene {
	sc := newScene(a.Triangles, a.Camera, cfg)
	if cfg.BVH.Enabled {
		sc.accel = a.Accelerator
	}
	return sc
}

// Load a scene from a wavefront obj file or a compiled archive.
func Load(sceneFile string, cfg *config.Config) (*Scene, error) {
	if strings.HasSuffix(sceneFile, ArchiveExt) {
		a, err := archive.ReadFile(sceneFile)
		if err != nil {
			return nil, err
		}
		return FromArchive(a, cfg), nil
	}

	model, err := reader.ReadModelFile(sceneFile)
	if err != nil {
		return nil, err
	}
	return New(model.Triangles(), model.Camera, cfg)
}

func newScene(tris []*geometry.Triangle, camDef *reader.CameraDef, cfg *config.Config) *Scene {
	cam := NewCamera(cfg.Camera.FOV)
	cam.Position, cam.LookAt, cam.Up = cfg.Camera.Eye, cfg.Camera.Look, cfg.Camera.Up
	if camDef != nil {
		cam.FOV = camDef.FOV
		cam.Position, cam.LookAt, cam.Up = camDef.Eye, camDef.Look, camDef.Up
	}

	return &Scene{
		Triangles:      tris,
		Camera:         cam,
		RayMinDistance: cfg.RayMinDistance,
		prims:          geometry.Primitives(tris),
	}
}

// Get the scene hierarchy or nil if it is disabled.
func (s *Scene) Accelerator() bvh.Accelerator {
	return s.accel
}

// Get the intersector used for scene queries.
func (s *Scene) Intersector() Intersector {
	if s.accel == nil {
		return s.BruteForce()
	}
	return s.accel
}

// Get an intersector that tests every triangle. It is the reference the
// hierarchy is verified against.
func (s *Scene) BruteForce() Intersector {
	return bruteForce(s.prims)
}

// Create a ray starting RayMinDistance away from origin.
func (s *Scene) NewRay(origin, dir types.Vec3) bvh.Ray {
	ray := bvh.NewRay(origin, dir)
	ray.TMin = s.RayMinDistance
	return ray
}

// Generate one primary ray per pixel for a frameW x frameH frame in row
// major order starting from the top-left pixel.
func (s *Scene) PrimaryRays(frameW, frameH uint32) []bvh.Ray {
	s.Camera.SetupProjection(frameW, frameH)

	rays := make([]bvh.Ray, 0, frameW*frameH)
	for y := uint32(0); y < frameH; y++ {
		for x := uint32(0); x < frameW; x++ {
			rays = append(rays, s.NewRay(s.Camera.Position, s.Camera.RayDirection(x, y)))
		}
	}
	return rays
}

func (s *Scene) IntersectClosest(ray bvh.Ray) bvh.Intersection {
	return s.Intersector().IntersectClosest(ray)
}

func (s *Scene) IntersectAny(ray bvh.Ray) bool {
	return s.Intersector().IntersectAny(ray)
}

// Get a printable summary of the scene.
func (s *Scene) Stats() string {
	if s.accel == nil {
		return fmt.Sprintf("%d triangles; bvh disabled", len(s.Triangles))
	}
	return s.accel.Stats().Table()
}

type bruteForce []bvh.Primitive

func (prims bruteForce) IntersectClosest(ray bvh.Ray) bvh.Intersection {
	hit := bvh.NewIntersection()
	if ray.TMin > ray.TMax {
		return hit
	}

	for index, prim := range prims {
		if prim.Intersect(&ray, &hit) {
			hit.PrimitiveIndex = uint32(index)
			ray.TMax = hit.Distance
		}
	}
	return hit
}

func (prims bruteForce) IntersectAny(ray bvh.Ray) bool {
	if ray.TMin > ray.TMax {
		return false
	}

	ray.OcclusionOnly = true
	hit := bvh.NewIntersection()
	for _, prim := range prims {
		if prim.Intersect(&ray, &hit) {
			return true
		}
	}
	return false
}
