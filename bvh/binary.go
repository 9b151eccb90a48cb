package bvh

// A hierarchy using the binary node layout.
type BinaryBVH struct {
	prims []Primitive
	nodes []Node
	order []uint32
	stats Stats
}

func newBinary(prims []Primitive, nodes []Node, order []uint32) *BinaryBVH {
	return &BinaryBVH{
		prims: prims,
		nodes: nodes,
		order: order,
		stats: binaryStats(nodes, len(prims)),
	}
}

// Flatten the intermediate tree into a depth-first node list.
func flattenBinary(root *buildNode) []Node {
	nodes := make([]Node, 0, 64)

	var visit func(n *buildNode) int32
	visit = func(n *buildNode) int32 {
		nodeIndex := int32(len(nodes))
		nodes = append(nodes, Node{Min: n.bbox.Min, Max: n.bbox.Max, Axis: uint8(n.axis)})

		if n.isLeaf() {
			nodes[nodeIndex].SetPrimitives(uint32(n.first), uint32(n.count))
			return nodeIndex
		}

		left := visit(n.left)
		right := visit(n.right)
		nodes[nodeIndex].SetChildNodes(left, right)
		return nodeIndex
	}

	visit(root)
	return nodes
}

func (bvh *BinaryBVH) Type() Type {
	return Binary
}

// Get the node list. The returned slice must not be modified.
func (bvh *BinaryBVH) Nodes() []Node {
	return bvh.nodes
}

func (bvh *BinaryBVH) Order() []uint32 {
	return bvh.order
}

func (bvh *BinaryBVH) Stats() Stats {
	return bvh.stats
}

func (bvh *BinaryBVH) IntersectClosest(ray Ray) Intersection {
	hit, _ := bvh.traceClosest(&ray)
	return hit
}

func (bvh *BinaryBVH) IntersectAny(ray Ray) bool {
	found, _ := bvh.traceAny(&ray)
	return found
}

// Find the closest hit. Returns the intersection and the number of node boxes
// tested along the way.
func (bvh *BinaryBVH) traceClosest(ray *Ray) (Intersection, int) {
	hit := NewIntersection()
	if ray.TMin > ray.TMax || len(bvh.nodes) == 0 {
		return hit, 0
	}

	var stackBuf [64]int32
	stack := append(stackBuf[:0], 0)
	visits := 0

	for len(stack) > 0 {
		nodeIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &bvh.nodes[nodeIndex]
		visits++
		if boxHit, _, _ := node.BBox().Intersect(ray); !boxHit {
			continue
		}

		if node.IsLeaf() {
			firstPrim, primCount := node.GetPrimitives()
			for pos := firstPrim; pos < firstPrim+primCount; pos++ {
				primIndex := bvh.order[pos]
				if bvh.prims[primIndex].Intersect(ray, &hit) {
					hit.Found = true
					hit.PrimitiveIndex = primIndex
					ray.TMax = hit.Distance
				}
			}
			continue
		}

		// Push the far child first so the near one is popped next.
		near, far := node.Left, node.Right
		if ray.Direction[node.Axis] < 0 {
			near, far = far, near
		}
		stack = append(stack, far, near)
	}

	return hit, visits
}

// Check for any hit. Returns as soon as a primitive reports a hit.
func (bvh *BinaryBVH) traceAny(ray *Ray) (bool, int) {
	if ray.TMin > ray.TMax || len(bvh.nodes) == 0 {
		return false, 0
	}

	ray.OcclusionOnly = true
	hit := NewIntersection()

	var stackBuf [64]int32
	stack := append(stackBuf[:0], 0)
	visits := 0

	for len(stack) > 0 {
		nodeIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &bvh.nodes[nodeIndex]
		visits++
		if boxHit, _, _ := node.BBox().Intersect(ray); !boxHit {
			continue
		}

		if node.IsLeaf() {
			firstPrim, primCount := node.GetPrimitives()
			for pos := firstPrim; pos < firstPrim+primCount; pos++ {
				if bvh.prims[bvh.order[pos]].Intersect(ray, &hit) {
					return true, visits
				}
			}
			continue
		}

		near, far := node.Left, node.Right
		if ray.Direction[node.Axis] < 0 {
			near, far = far, near
		}
		stack = append(stack, far, near)
	}

	return false, visits
}
