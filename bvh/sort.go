package bvh

import (
	"cmp"
	"slices"
	"sync"
)

// Ranges shorter than this are always sorted on the calling goroutine.
const minParallelSortLen = 8192

// Sort a range of the working order by ref centers along axis.
//
// Ties are broken by the original primitive index so the comparator defines a
// total order; the result is therefore identical no matter how many workers
// take part in the sort. The scratch slice must have the same length as items
// and must not be shared with any concurrently sorted range.
func sortByAxis(refs []PrimitiveRef, items, scratch []uint32, axis Axis, workers int) {
	compare := func(a, b uint32) int {
		if c := cmp.Compare(refs[a].Center[axis], refs[b].Center[axis]); c != 0 {
			return c
		}
		return cmp.Compare(refs[a].Index, refs[b].Index)
	}

	parallelSort(items, scratch, compare, workers)
}

func parallelSort(items, scratch []uint32, compare func(a, b uint32) int, workers int) {
	if workers < 2 || len(items) < minParallelSortLen {
		slices.SortFunc(items, compare)
		return
	}

	mid := len(items) / 2
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		parallelSort(items[:mid], scratch[:mid], compare, workers/2)
	}()
	parallelSort(items[mid:], scratch[mid:], compare, workers-workers/2)
	wg.Wait()

	// Merge both sorted halves into scratch and copy them back.
	l, r, out := 0, mid, 0
	for l < mid && r < len(items) {
		if compare(items[r], items[l]) < 0 {
			scratch[out] = items[r]
			r++
		} else {
			scratch[out] = items[l]
			l++
		}
		out++
	}
	out += copy(scratch[out:], items[l:mid])
	copy(scratch[out:], items[r:])
	copy(items, scratch)
}
