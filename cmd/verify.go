package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"

	"github.com/achilleasa/bvhtrace/bvh"
	"github.com/achilleasa/bvhtrace/scene"
	"github.com/achilleasa/bvhtrace/tracer"
	"github.com/achilleasa/bvhtrace/types"
	"github.com/urfave/cli"
)

// Relative tolerance when comparing hit distances.
const distanceTolerance = 1e-5

// Cast random rays against the scene bvh and compare the results with a
// brute-force intersection of every triangle.
func VerifyScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	rayCount := ctx.Int("rays")
	if rayCount < 1 {
		return fmt.Errorf("invalid ray count %d", rayCount)
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	cfg.BVH.Enabled = true

	sc, err := scene.Load(ctx.Args().First(), cfg)
	if err != nil {
		return err
	}

	rays := randomRays(sc, rayCount, ctx.Int64("seed"))
	mismatches, err := verify(context.Background(), sc, rays, ctx.Int("workers"))
	if err != nil {
		return err
	}
	if mismatches != 0 {
		return fmt.Errorf("%d of %d rays disagree with the brute-force reference", mismatches, len(rays))
	}

	logger.Noticef("all %d rays agree with the brute-force reference", len(rays))
	return nil
}

// Count the rays whose closest or any-hit answer differs between the scene
// hierarchy and the brute-force reference.
func verify(ctx context.Context, sc *scene.Scene, rays []bvh.Ray, workers int) (int, error) {
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	bvhCaster := tracer.NewCaster(sc.Accelerator(), workers)
	refCaster := tracer.NewCaster(sc.BruteForce(), workers)

	got, _, err := bvhCaster.CastClosest(runCtx, rays)
	if err != nil {
		return 0, err
	}
	exp, _, err := refCaster.CastClosest(runCtx, rays)
	if err != nil {
		return 0, err
	}
	gotAny, _, err := bvhCaster.CastAny(runCtx, rays)
	if err != nil {
		return 0, err
	}

	mismatches := 0
	for index := range rays {
		switch {
		case got[index].Found != exp[index].Found:
			logger.Errorf("ray %d: bvh hit: %t, reference hit: %t", index, got[index].Found, exp[index].Found)
		case got[index].Found && !distanceMatches(got[index].Distance, exp[index].Distance):
			logger.Errorf("ray %d: bvh distance %f, reference distance %f", index, got[index].Distance, exp[index].Distance)
		case gotAny[index] != exp[index].Found:
			logger.Errorf("ray %d: bvh any-hit: %t, reference hit: %t", index, gotAny[index], exp[index].Found)
		default:
			continue
		}
		mismatches++
	}
	return mismatches, nil
}

func distanceMatches(a, b float32) bool {
	return math.Abs(float64(a-b)) <= distanceTolerance*math.Max(1, math.Abs(float64(b)))
}

// Generate rays with origins inside the scene bounds and uniformly
// distributed directions.
func randomRays(sc *scene.Scene, count int, seed int64) []bvh.Ray {
	bounds := bvh.EmptyAABB()
	for _, tri := range sc.Triangles {
		bounds.Expand(tri.BBox())
	}
	extent := bounds.Extent()

	rng := rand.New(rand.NewSource(seed))
	rays := make([]bvh.Ray, count)
	for index := range rays {
		origin := types.XYZ(
			bounds.Min[0]+rng.Float32()*extent[0],
			bounds.Min[1]+rng.Float32()*extent[1],
			bounds.Min[2]+rng.Float32()*extent[2],
		)

		var dir types.Vec3
		for dir.Len() < 1e-3 {
			dir = types.XYZ(float32(rng.NormFloat64()), float32(rng.NormFloat64()), float32(rng.NormFloat64()))
		}
		rays[index] = sc.NewRay(origin, dir.Normalize())
	}
	return rays
}
