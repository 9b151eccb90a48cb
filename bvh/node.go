package bvh

import "github.com/achilleasa/bvhtrace/types"

// Marks an unused child slot.
const absentChild int32 = -1

// A node of the binary hierarchy. Nodes are stored depth-first with the
// root at index 0. The multipurpose fields depend on the node type:
//
// - For internal nodes Left and Right point to the two child nodes and
// PrimCount is 0.
// - For leafs FirstPrim points to the first entry of the leaf in the
// primitive order and PrimCount (> 0) holds the number of entries. Left and
// Right are set to -1.
type Node struct {
	Min types.Vec3
	Max types.Vec3

	Left  int32
	Right int32

	FirstPrim uint32
	PrimCount uint32

	// The axis used for splitting an internal node.
	Axis uint8
}

// Set left and right child node indices.
func (n *Node) SetChildNodes(left, right int32) {
	n.Left = left
	n.Right = right
	n.FirstPrim = 0
	n.PrimCount = 0
}

// Set primitive range.
func (n *Node) SetPrimitives(firstPrim, count uint32) {
	n.Left = absentChild
	n.Right = absentChild
	n.FirstPrim = firstPrim
	n.PrimCount = count
}

// Get primitive range.
func (n *Node) GetPrimitives() (firstPrim, count uint32) {
	return n.FirstPrim, n.PrimCount
}

func (n *Node) IsLeaf() bool {
	return n.PrimCount > 0
}

func (n *Node) BBox() AABB {
	return AABB{Min: n.Min, Max: n.Max}
}

// A node of the 4-wide hierarchy. Internal nodes fill a prefix of the
// Children slots (at least two) and mark the remaining ones with -1.
type WideNode struct {
	Min types.Vec3
	Max types.Vec3

	Children [4]int32

	FirstPrim uint32
	PrimCount uint32

	Axis uint8
}

// Set child node indices. Unused slots are marked as absent.
func (n *WideNode) SetChildNodes(children []int32) {
	for slot := range n.Children {
		n.Children[slot] = absentChild
		if slot < len(children) {
			n.Children[slot] = children[slot]
		}
	}
	n.FirstPrim = 0
	n.PrimCount = 0
}

// Set primitive range.
func (n *WideNode) SetPrimitives(firstPrim, count uint32) {
	n.Children = [4]int32{absentChild, absentChild, absentChild, absentChild}
	n.FirstPrim = firstPrim
	n.PrimCount = count
}

// Get primitive range.
func (n *WideNode) GetPrimitives() (firstPrim, count uint32) {
	return n.FirstPrim, n.PrimCount
}

func (n *WideNode) IsLeaf() bool {
	return n.PrimCount > 0
}

// Get the number of used child slots.
func (n *WideNode) ChildCount() int {
	count := 0
	for _, child := range n.Children {
		if child == absentChild {
			break
		}
		count++
	}
	return count
}

func (n *WideNode) BBox() AABB {
	return AABB{Min: n.Min, Max: n.Max}
}
