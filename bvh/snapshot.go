package bvh

import (
	"fmt"
	"slices"
)

// The exported node store of a hierarchy. Only the node list matching Type
// is populated.
type Snapshot struct {
	Type      Type
	Nodes     []Node
	WideNodes []WideNode
	Order     []uint32
}

// Export a copy of the node store of an accelerator returned by Build or
// Restore.
func Export(accel Accelerator) (Snapshot, error) {
	switch a := accel.(type) {
	case *BinaryBVH:
		return Snapshot{Type: Binary, Nodes: slices.Clone(a.Nodes()), Order: slices.Clone(a.order)}, nil
	case *WideBVH:
		return Snapshot{Type: Wide, WideNodes: slices.Clone(a.Nodes()), Order: slices.Clone(a.order)}, nil
	}
	return Snapshot{}, fmt.Errorf("%w: %T", ErrUnsupportedType, accel)
}

// Rebuild an accelerator from a snapshot over the same primitive list that
// was used to build it. The snapshot is checked for structural integrity
// before use; any violation is reported as an error wrapping ErrCorrupt. The
// returned accelerator takes ownership of the snapshot slices.
func Restore(prims []Primitive, snap Snapshot) (Accelerator, error) {
	if len(prims) == 0 {
		return nil, ErrNoPrimitives
	}
	if err := validateOrder(snap.Order, len(prims)); err != nil {
		return nil, err
	}

	switch snap.Type {
	case Binary:
		if err := validateBinary(snap.Nodes, len(snap.Order)); err != nil {
			return nil, err
		}
		return newBinary(prims, snap.Nodes, snap.Order), nil
	case Wide:
		if err := validateWide(snap.WideNodes, len(snap.Order)); err != nil {
			return nil, err
		}
		return newWide(prims, snap.WideNodes, snap.Order), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, snap.Type)
}

// Ensure order is a permutation of [0, primCount).
func validateOrder(order []uint32, primCount int) error {
	if len(order) != primCount {
		return fmt.Errorf("%w: order has %d entries; expected %d", ErrCorrupt, len(order), primCount)
	}

	seen := make([]bool, primCount)
	for pos, primIndex := range order {
		if int(primIndex) >= primCount {
			return fmt.Errorf("%w: order entry %d references primitive %d which is out of range", ErrCorrupt, pos, primIndex)
		}
		if seen[primIndex] {
			return fmt.Errorf("%w: order entry %d references primitive %d more than once", ErrCorrupt, pos, primIndex)
		}
		seen[primIndex] = true
	}
	return nil
}

// Tracks node parents and leaf coverage while validating a node list.
type treeValidator struct {
	nodeCount  int
	referenced []bool

	covered    []bool
	coveredLen int
}

func newTreeValidator(nodeCount, orderLen int) *treeValidator {
	return &treeValidator{
		nodeCount:  nodeCount,
		referenced: make([]bool, nodeCount),
		covered:    make([]bool, orderLen),
	}
}

func (v *treeValidator) checkBBox(nodeIndex int, bbox AABB) error {
	for axis := 0; axis < 3; axis++ {
		// Negated to also reject NaN.
		if !(bbox.Min[axis] <= bbox.Max[axis]) {
			return fmt.Errorf("%w: node %d has an invalid bbox", ErrCorrupt, nodeIndex)
		}
	}
	return nil
}

func (v *treeValidator) checkAxis(nodeIndex int, axis uint8) error {
	if Axis(axis) > ZAxis {
		return fmt.Errorf("%w: node %d has invalid split axis %d", ErrCorrupt, nodeIndex, axis)
	}
	return nil
}

// Children must follow their parent in the node list and have a single
// parent; this rules out cycles and shared subtrees.
func (v *treeValidator) checkChild(nodeIndex int, child int32) error {
	if child <= int32(nodeIndex) || int(child) >= v.nodeCount {
		return fmt.Errorf("%w: node %d references child %d which is out of range", ErrCorrupt, nodeIndex, child)
	}
	if v.referenced[child] {
		return fmt.Errorf("%w: node %d is referenced by more than one parent", ErrCorrupt, child)
	}
	v.referenced[child] = true
	return nil
}

func (v *treeValidator) checkLeaf(nodeIndex int, firstPrim, count uint32) error {
	if uint64(firstPrim)+uint64(count) > uint64(len(v.covered)) {
		return fmt.Errorf("%w: leaf %d range [%d, %d) exceeds the primitive order", ErrCorrupt, nodeIndex, firstPrim, uint64(firstPrim)+uint64(count))
	}
	for pos := firstPrim; pos < firstPrim+count; pos++ {
		if v.covered[pos] {
			return fmt.Errorf("%w: order entry %d belongs to more than one leaf", ErrCorrupt, pos)
		}
		v.covered[pos] = true
	}
	v.coveredLen += int(count)
	return nil
}

func (v *treeValidator) finish() error {
	for nodeIndex := 1; nodeIndex < v.nodeCount; nodeIndex++ {
		if !v.referenced[nodeIndex] {
			return fmt.Errorf("%w: node %d is unreachable", ErrCorrupt, nodeIndex)
		}
	}
	if v.coveredLen != len(v.covered) {
		return fmt.Errorf("%w: leafs cover %d of %d order entries", ErrCorrupt, v.coveredLen, len(v.covered))
	}
	return nil
}

func validateBinary(nodes []Node, orderLen int) error {
	if len(nodes) == 0 {
		return fmt.Errorf("%w: missing root node", ErrCorrupt)
	}

	v := newTreeValidator(len(nodes), orderLen)
	for nodeIndex := range nodes {
		node := &nodes[nodeIndex]
		if err := v.checkBBox(nodeIndex, node.BBox()); err != nil {
			return err
		}
		if err := v.checkAxis(nodeIndex, node.Axis); err != nil {
			return err
		}

		if node.IsLeaf() {
			if node.Left != absentChild || node.Right != absentChild {
				return fmt.Errorf("%w: leaf %d also references child nodes", ErrCorrupt, nodeIndex)
			}
			firstPrim, count := node.GetPrimitives()
			if err := v.checkLeaf(nodeIndex, firstPrim, count); err != nil {
				return err
			}
			continue
		}

		if err := v.checkChild(nodeIndex, node.Left); err != nil {
			return err
		}
		if err := v.checkChild(nodeIndex, node.Right); err != nil {
			return err
		}
	}

	return v.finish()
}

func validateWide(nodes []WideNode, orderLen int) error {
	if len(nodes) == 0 {
		return fmt.Errorf("%w: missing root node", ErrCorrupt)
	}

	v := newTreeValidator(len(nodes), orderLen)
	for nodeIndex := range nodes {
		node := &nodes[nodeIndex]
		if err := v.checkBBox(nodeIndex, node.BBox()); err != nil {
			return err
		}
		if err := v.checkAxis(nodeIndex, node.Axis); err != nil {
			return err
		}

		count := node.ChildCount()
		if node.IsLeaf() {
			if node.Children != [4]int32{absentChild, absentChild, absentChild, absentChild} {
				return fmt.Errorf("%w: leaf %d also references child nodes", ErrCorrupt, nodeIndex)
			}
			firstPrim, count := node.GetPrimitives()
			if err := v.checkLeaf(nodeIndex, firstPrim, count); err != nil {
				return err
			}
			continue
		}

		if count < 2 {
			return fmt.Errorf("%w: internal node %d has %d children", ErrCorrupt, nodeIndex, count)
		}
		for slot, child := range node.Children {
			if slot >= count {
				if child != absentChild {
					return fmt.Errorf("%w: node %d has a child after an empty slot", ErrCorrupt, nodeIndex)
				}
				continue
			}
			if err := v.checkChild(nodeIndex, child); err != nil {
				return err
			}
		}
	}

	return v.finish()
}
