package tracer

// A contiguous range [Start, End) of rays processed by a single worker.
type block struct {
	Start int
	End   int
}

const (
	// Blocks are never smaller than this unless the batch itself is.
	minBlockSize = 64

	// Each worker gets this many blocks so fast workers can pick up the
	// slack of slow ones.
	blocksPerWorker = 4
)

// Split a batch of rays into blocks for a pool of workers. The returned
// blocks cover [0, rayCount) in order and without overlap.
func scheduleBlocks(rayCount, workers int) []block {
	if rayCount <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	blockSize := (rayCount + workers*blocksPerWorker - 1) / (workers * blocksPerWorker)
	if blockSize < minBlockSize {
		blockSize = minBlockSize
	}

	blocks := make([]block, 0, (rayCount+blockSize-1)/blockSize)
	for start := 0; start < rayCount; start += blockSize {
		end := start + blockSize
		if end > rayCount {
			end = rayCount
		}
		blocks = append(blocks, block{Start: start, End: end})
	}
	return blocks
}
