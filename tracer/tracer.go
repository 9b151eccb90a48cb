package tracer

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/achilleasa/bvhtrace/bvh"
	"github.com/achilleasa/bvhtrace/log"
)

var logger = log.New("tracer")

// The kind of query issued for each ray.
type Query uint8

const (
	Closest Query = iota
	Occlusion
)

func (q Query) String() string {
	if q == Occlusion {
		return "any"
	}
	return "closest"
}

// The Intersector interface is implemented by scenes and accelerators.
type Intersector interface {
	IntersectClosest(ray bvh.Ray) bvh.Intersection
	IntersectAny(ray bvh.Ray) bool
}

// Statistics for a single batch.
type Stats struct {
	Query Query

	// The number of rays that were cast before the batch completed or was
	// cancelled.
	Rays int
	Hits int

	Blocks int

	Elapsed time.Duration
}

// Get the ray throughput of the batch.
func (s Stats) RaysPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Rays) / s.Elapsed.Seconds()
}

// Caster casts batches of rays against an intersector using a pool of
// worker goroutines.
type Caster struct {
	target  Intersector
	workers int
}

// Create a caster. Values of workers < 1 select runtime.GOMAXPROCS.
func NewCaster(target Intersector, workers int) *Caster {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Caster{
		target:  target,
		workers: workers,
	}
}

// Find the closest hit for each ray. The result at index i belongs to
// rays[i]. If ctx is cancelled, casting stops before the next ray and the
// context error is returned along with the partial results.
func (c *Caster) CastClosest(ctx context.Context, rays []bvh.Ray) ([]bvh.Intersection, Stats, error) {
	hits := make([]bvh.Intersection, len(rays))
	stats, err := c.run(ctx, Closest, len(rays), func(index int) bool {
		hits[index] = c.target.IntersectClosest(rays[index])
		return hits[index].Found
	})
	return hits, stats, err
}

// Check each ray for occlusion. The result at index i belongs to rays[i].
func (c *Caster) CastAny(ctx context.Context, rays []bvh.Ray) ([]bool, Stats, error) {
	occluded := make([]bool, len(rays))
	stats, err := c.run(ctx, Occlusion, len(rays), func(index int) bool {
		occluded[index] = c.target.IntersectAny(rays[index])
		return occluded[index]
	})
	return occluded, stats, err
}

func (c *Caster) run(ctx context.Context, query Query, rayCount int, cast func(index int) bool) (Stats, error) {
	start := time.Now()
	blocks := scheduleBlocks(rayCount, c.workers)

	queue := make(chan block, len(blocks))
	for _, blk := range blocks {
		queue <- blk
	}
	close(queue)

	var (
		wg       sync.WaitGroup
		castRays atomic.Int64
		rayHits  atomic.Int64
	)
	done := ctx.Done()

	workers := c.workers
	if workers > len(blocks) {
		workers = len(blocks)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for blk := range queue {
				var blkRays, blkHits int64
				for index := blk.Start; index < blk.End; index++ {
					select {
					case <-done:
						castRays.Add(blkRays)
						rayHits.Add(blkHits)
						return
					default:
					}

					blkRays++
					if cast(index) {
						blkHits++
					}
				}
				castRays.Add(blkRays)
				rayHits.Add(blkHits)
			}
		}()
	}
	wg.Wait()

	stats := Stats{
		Query:   query,
		Rays:    int(castRays.Load()),
		Hits:    int(rayHits.Load()),
		Blocks:  len(blocks),
		Elapsed: time.Since(start),
	}
	raysTotal.WithLabelValues(query.String()).Add(float64(stats.Rays))
	rayHitsTotal.WithLabelValues(query.String()).Add(float64(stats.Hits))

	if err := ctx.Err(); err != nil && stats.Rays < rayCount {
		logger.Warningf("%s batch cancelled after %d of %d rays", query, stats.Rays, rayCount)
		return stats, err
	}

	logger.Debugf(
		"cast %d %s rays in %d ms using %d workers (%d blocks, %d hits)",
		stats.Rays, query, stats.Elapsed.Nanoseconds()/1e6, workers, stats.Blocks, stats.Hits,
	)
	return stats, nil
}
