package bvh

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// The node layout of a hierarchy.
type Type uint8

const (
	// A binary tree; each internal node has exactly two children.
	Binary Type = iota

	// A 4-wide tree collapsed from the binary one.
	Wide
)

func (t Type) String() string {
	switch t {
	case Binary:
		return "bvh2"
	case Wide:
		return "bvh4"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Parse a hierarchy type name. Both the layout names (bvh2, bvh4) and the
// arity aliases (binary, wide) are accepted.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bvh2", "binary", "":
		return Binary, nil
	case "bvh4", "wide":
		return Wide, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
}

var (
	ErrNoPrimitives      = errors.New("bvh: no primitives to partition")
	ErrInvalidLeafSize   = errors.New("bvh: max leaf size must be at least 1")
	ErrUnsupportedType   = errors.New("bvh: unsupported hierarchy type")
	ErrCorrupt           = errors.New("bvh: corrupt hierarchy")
	errTooManyPrimitives = errors.New("bvh: primitive count exceeds the addressable range")
)

// Options control hierarchy construction.
type Options struct {
	Type Type

	// Ranges with at most this many primitives become leafs.
	MaxLeafSize int

	// The number of goroutines that may take part in the build. Values < 1
	// select runtime.GOMAXPROCS.
	Workers int
}

// Get the default build options.
func DefaultOptions() Options {
	return Options{
		Type:        Binary,
		MaxLeafSize: 4,
	}
}

// The Accelerator interface is implemented by all hierarchy layouts. All
// methods are safe for concurrent use.
type Accelerator interface {
	Type() Type

	// Find the closest primitive hit by the ray in [ray.TMin, ray.TMax].
	IntersectClosest(ray Ray) Intersection

	// Check whether any primitive is hit by the ray in [ray.TMin, ray.TMax].
	IntersectAny(ray Ray) bool

	// Get the original primitive index for each position referenced by the
	// leaf ranges.
	Order() []uint32

	Stats() Stats
}

// Build a hierarchy over prims. The prims slice is never modified and must
// not be modified while the returned accelerator is in use.
func Build(prims []Primitive, opts Options) (Accelerator, error) {
	if len(prims) == 0 {
		return nil, ErrNoPrimitives
	}
	if uint64(len(prims)) > uint64(^uint32(0)) {
		return nil, errTooManyPrimitives
	}
	if opts.MaxLeafSize < 1 {
		return nil, ErrInvalidLeafSize
	}
	if opts.Type != Binary && opts.Type != Wide {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, opts.Type)
	}

	workers := opts.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	b := newBuilder(prims, opts.MaxLeafSize, workers)
	root := b.build()

	var accel Accelerator
	switch opts.Type {
	case Binary:
		accel = newBinary(prims, flattenBinary(root), b.primitiveOrder())
	case Wide:
		accel = newWide(prims, flattenWide(root), b.primitiveOrder())
	}

	buildTime := time.Since(start)
	stats := accel.Stats()
	stats.FailedSplits = int(b.failedSplits.Load())
	stats.BuildTime = buildTime
	setBuildStats(accel, stats)
	observeBuild(stats)

	b.logger.Debugf(
		"%s build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d, failed splits: %d",
		opts.Type, buildTime.Nanoseconds()/1e6,
		stats.MaxDepth, stats.Nodes, stats.Leaves, stats.FailedSplits,
	)

	return accel, nil
}

func setBuildStats(accel Accelerator, stats Stats) {
	switch a := accel.(type) {
	case *BinaryBVH:
		a.stats = stats
	case *WideBVH:
		a.stats = stats
	}
}
