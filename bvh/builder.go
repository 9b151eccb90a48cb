package bvh

import (
	"sync"
	"sync/atomic"

	"github.com/achilleasa/bvhtrace/log"
)

// Ranges with fewer items than this are always partitioned on the calling
// goroutine.
const minParallelBuildLen = 4096

// An intermediate tree node produced by the builder. The tree is flattened
// into one of the node layouts once construction completes.
type buildNode struct {
	bbox AABB
	axis Axis

	left, right *buildNode

	// Leaf range in the primitive order.
	first, count int
}

func (n *buildNode) isLeaf() bool {
	return n.left == nil
}

type builder struct {
	logger log.Logger

	refs []PrimitiveRef

	// The working order. Each entry indexes refs; splits permute ranges of
	// this slice in place.
	order []uint32

	// Scratch buffers sized once per build and indexed by absolute position
	// so that disjoint ranges never share entries.
	rightScores []float32
	sortScratch []uint32

	maxLeafSize int
	workers     int

	// Tokens for spawning additional subtree goroutines.
	tokens chan struct{}

	failedSplits atomic.Int64
}

func newBuilder(prims []Primitive, maxLeafSize, workers int) *builder {
	refs := newPrimitiveRefs(prims)
	order := make([]uint32, len(refs))
	for index := range order {
		order[index] = uint32(index)
	}

	b := &builder{
		logger:      log.New("bvh builder"),
		refs:        refs,
		order:       order,
		rightScores: make([]float32, len(refs)),
		sortScratch: make([]uint32, len(refs)),
		maxLeafSize: maxLeafSize,
		workers:     workers,
	}

	if workers > 1 {
		b.tokens = make(chan struct{}, workers-1)
	}

	return b
}

// Partition all refs and return the root of the intermediate tree.
func (b *builder) build() *buildNode {
	return b.partition(0, len(b.order))
}

// Partition the range [start, end) of the working order.
func (b *builder) partition(start, end int) *buildNode {
	if end <= start {
		panic("bvh: attempted to partition an empty range")
	}

	// Do we have few enough items for a leaf?
	if end-start <= b.maxLeafSize {
		return &buildNode{
			bbox:  b.rangeBBox(start, end),
			first: start,
			count: end - start,
		}
	}

	split := b.calculateSplit(splitInput{start: start, end: end})
	if split.failed {
		b.failedSplits.Add(1)
	}

	node := &buildNode{
		bbox: split.left.Union(split.right),
		axis: split.axis,
	}

	if end-start >= minParallelBuildLen && b.acquireWorker() {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer b.releaseWorker()
			node.left = b.partition(start, split.index)
		}()
		node.right = b.partition(split.index, end)
		wg.Wait()
		return node
	}

	node.left = b.partition(start, split.index)
	node.right = b.partition(split.index, end)
	return node
}

func (b *builder) acquireWorker() bool {
	if b.tokens == nil {
		return false
	}

	select {
	case b.tokens <- struct{}{}:
		return true
	default:
		return false
	}
}

func (b *builder) releaseWorker() {
	<-b.tokens
}

// Get the original primitive index for each position of the final order.
func (b *builder) primitiveOrder() []uint32 {
	out := make([]uint32, len(b.order))
	for pos, refIndex := range b.order {
		out[pos] = b.refs[refIndex].Index
	}
	return out
}
