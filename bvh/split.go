package bvh

import "math"

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

// A contiguous half-open range [start, end) of the working order.
type splitInput struct {
	start, end int
}

type splitOutput struct {
	axis  Axis
	index int

	left, right AABB

	// Set when no interior split could be found and the range was split at
	// its median instead.
	failed bool
}

// Find the split axis and position with the lowest surface area heuristic
// score for the given range:
//
// score = left count * left bbox area + right count * right bbox area.
//
// Every boundary position along each of the three axes is evaluated. When
// the function returns, the range is sorted along the winning axis unless the
// split failed. Failed splits fall back to a median split along the X axis.
func (b *builder) calculateSplit(in splitInput) splitOutput {
	if in.end <= in.start {
		panic("bvh: split requested for an empty range")
	}

	order := b.order[in.start:in.end]
	out := splitOutput{index: in.start}

	// Ranges whose centers coincide cannot be ordered along any axis; every
	// candidate would score the same.
	centerBounds := EmptyAABB()
	for _, refIndex := range order {
		centerBounds.ExpandPoint(b.refs[refIndex].Center)
	}

	if centerBounds.Min != centerBounds.Max {
		lowestScore := float32(math.MaxFloat32)
		for axis := XAxis; axis <= ZAxis; axis++ {
			sortByAxis(b.refs, order, b.sortScratch[in.start:in.end], axis, b.workers)

			right := EmptyAABB()
			rightCount := 0
			for i := in.end - 1; i >= in.start; i-- {
				right.Expand(b.refs[b.order[i]].BBox)
				rightCount++
				b.rightScores[i] = right.SurfaceArea() * float32(rightCount)
			}

			left := EmptyAABB()
			leftCount := 0
			for i := in.start; i < in.end; i++ {
				left.Expand(b.refs[b.order[i]].BBox)
				leftCount++

				score := left.SurfaceArea() * float32(leftCount)
				isLast := i+1 == in.end
				if !isLast {
					score += b.rightScores[i+1]
				}

				if score < lowestScore {
					lowestScore = score
					out.axis = axis
					out.index = i + 1
					if isLast {
						out.index = i
					}
				}
			}
		}

		// The range is currently sorted along the last evaluated axis.
		if out.axis != ZAxis {
			sortByAxis(b.refs, order, b.sortScratch[in.start:in.end], out.axis, b.workers)
		}
	}

	if out.index <= in.start || out.index >= in.end {
		out.index = in.start + (in.end-in.start)/2
		out.axis = XAxis
		out.failed = true
	}

	out.left = b.rangeBBox(in.start, out.index)
	out.right = b.rangeBBox(out.index, in.end)
	return out
}

// Calculate the union bbox of all refs in [start, end).
func (b *builder) rangeBBox(start, end int) AABB {
	bbox := EmptyAABB()
	for _, refIndex := range b.order[start:end] {
		bbox.Expand(b.refs[refIndex].BBox)
	}
	return bbox
}
