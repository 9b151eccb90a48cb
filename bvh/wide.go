package bvh

// A hierarchy using the 4-wide node layout.
type WideBVH struct {
	prims []Primitive
	nodes []WideNode
	order []uint32
	stats Stats
}

func newWide(prims []Primitive, nodes []WideNode, order []uint32) *WideBVH {
	return &WideBVH{
		prims: prims,
		nodes: nodes,
		order: order,
		stats: wideStats(nodes, len(prims)),
	}
}

// Collect up to 4 descendants of an internal node by repeatedly replacing
// the internal child with the largest surface area by its own children.
// Replaced children keep their position so the slots stay ordered along the
// split axes.
func collapseChildren(n *buildNode) []*buildNode {
	children := make([]*buildNode, 0, 4)
	children = append(children, n.left, n.right)

	for len(children) < 4 {
		expand := -1
		var bestArea float32 = -1
		for slot, child := range children {
			if child.isLeaf() {
				continue
			}
			if area := child.bbox.SurfaceArea(); area > bestArea {
				bestArea = area
				expand = slot
			}
		}

		if expand == -1 {
			break
		}

		target := children[expand]
		children = append(children, nil)
		copy(children[expand+2:], children[expand+1:])
		children[expand] = target.left
		children[expand+1] = target.right
	}

	return children
}

// Collapse the intermediate binary tree and flatten it into a depth-first
// wide node list.
func flattenWide(root *buildNode) []WideNode {
	nodes := make([]WideNode, 0, 32)

	var visit func(n *buildNode) int32
	visit = func(n *buildNode) int32 {
		nodeIndex := int32(len(nodes))
		nodes = append(nodes, WideNode{Min: n.bbox.Min, Max: n.bbox.Max, Axis: uint8(n.axis)})

		if n.isLeaf() {
			nodes[nodeIndex].SetPrimitives(uint32(n.first), uint32(n.count))
			return nodeIndex
		}

		children := collapseChildren(n)
		childIndices := make([]int32, len(children))
		for slot, child := range children {
			childIndices[slot] = visit(child)
		}
		nodes[nodeIndex].SetChildNodes(childIndices)
		return nodeIndex
	}

	visit(root)
	return nodes
}

func (bvh *WideBVH) Type() Type {
	return Wide
}

// Get the node list. The returned slice must not be modified.
func (bvh *WideBVH) Nodes() []WideNode {
	return bvh.nodes
}

func (bvh *WideBVH) Order() []uint32 {
	return bvh.order
}

func (bvh *WideBVH) Stats() Stats {
	return bvh.stats
}

func (bvh *WideBVH) IntersectClosest(ray Ray) Intersection {
	hit, _ := bvh.traceClosest(&ray)
	return hit
}

func (bvh *WideBVH) IntersectAny(ray Ray) bool {
	found, _ := bvh.traceAny(&ray)
	return found
}

// Push the used child slots of node so that the slot nearest to the ray
// origin along the node axis ends up on top of the stack.
func pushWideChildren(stack []int32, node *WideNode, ray *Ray) []int32 {
	count := node.ChildCount()
	if ray.Direction[node.Axis] < 0 {
		for slot := 0; slot < count; slot++ {
			stack = append(stack, node.Children[slot])
		}
		return stack
	}

	for slot := count - 1; slot >= 0; slot-- {
		stack = append(stack, node.Children[slot])
	}
	return stack
}

func (bvh *WideBVH) traceClosest(ray *Ray) (Intersection, int) {
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

		stack = pushWideChildren(stack, node, ray)
	}

	return hit, visits
}

func (bvh *WideBVH) traceAny(ray *Ray) (bool, int) {
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

		stack = pushWideChildren(stack, node, ray)
	}

	return false, visits
}
