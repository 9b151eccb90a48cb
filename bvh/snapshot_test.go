package bvh

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRestoreRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	prims := randomSpheres(rng, 400, 10)

	for bvhType, accel := range buildAll(prims, 3, 1) {
		snap, err := Export(accel)
		require.NoError(t, err)
		require.Equal(t, bvhType, snap.Type)

		restored, err := Restore(prims, snap)
		require.NoError(t, err)
		require.Equal(t, bvhType, restored.Type())
		require.Equal(t, accel.Order(), restored.Order())

		// Build-only stats are not part of the node store.
		expStats := accel.Stats()
		expStats.BuildTime = 0
		expStats.FailedSplits = 0
		require.Equal(t, expStats, restored.Stats())

		for i := 0; i < 200; i++ {
			ray := randomRay(rng, 12)
			require.Equal(t, accel.IntersectClosest(ray), restored.IntersectClosest(ray))
			require.Equal(t, accel.IntersectAny(ray), restored.IntersectAny(ray))
		}
	}
}

func TestExportReturnsCopy(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	prims := randomSpheres(rng, 100, 10)

	for bvhType, accel := range buildAll(prims, 2, 1) {
		rays := make([]Ray, 50)
		expHits := make([]Intersection, len(rays))
		for i := range rays {
			rays[i] = randomRay(rng, 12)
			expHits[i] = accel.IntersectClosest(rays[i])
		}
		expOrder := slices.Clone(accel.Order())

		snap, err := Export(accel)
		require.NoError(t, err)
		for i := range snap.Nodes {
			snap.Nodes[i] = Node{}
		}
		for i := range snap.WideNodes {
			snap.WideNodes[i] = WideNode{}
		}
		slices.Reverse(snap.Order)

		require.Equal(t, expOrder, accel.Order(), bvhType.String())
		for i, ray := range rays {
			require.Equal(t, expHits[i], accel.IntersectClosest(ray), "%s: ray %d", bvhType, i)
		}
	}
}

func TestRestoreDetectsCorruption(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	prims := randomSpheres(rng, 64, 10)
	accels := buildAll(prims, 2, 1)

	binarySnap, err := Export(accels[Binary])
	require.NoError(t, err)
	wideSnap, err := Export(accels[Wide])
	require.NoError(t, err)

	cloneBinary := func() Snapshot {
		return Snapshot{Type: Binary, Nodes: slices.Clone(binarySnap.Nodes), Order: slices.Clone(binarySnap.Order)}
	}
	cloneWide := func() Snapshot {
		return Snapshot{Type: Wide, WideNodes: slices.Clone(wideSnap.WideNodes), Order: slices.Clone(wideSnap.Order)}
	}
	firstLeaf := func(nodes []Node) int {
		for index, node := range nodes {
			if node.IsLeaf() {
				return index
			}
		}
		return -1
	}

	specs := map[string]func() Snapshot{
		"missing root": func() Snapshot {
			snap := cloneBinary()
			snap.Nodes = nil
			return snap
		},
		"short order": func() Snapshot {
			snap := cloneBinary()
			snap.Order = snap.Order[1:]
			return snap
		},
		"duplicate order entry": func() Snapshot {
			snap := cloneBinary()
			snap.Order[1] = snap.Order[0]
			return snap
		},
		"order entry out of range": func() Snapshot {
			snap := cloneBinary()
			snap.Order[0] = uint32(len(prims))
			return snap
		},
		"child out of range": func() Snapshot {
			snap := cloneBinary()
			snap.Nodes[0].Right = int32(len(snap.Nodes))
			return snap
		},
		"cycle": func() Snapshot {
			snap := cloneBinary()
			snap.Nodes[0].Left = 0
			return snap
		},
		"shared child": func() Snapshot {
			snap := cloneBinary()
			snap.Nodes[0].Right = snap.Nodes[0].Left
			return snap
		},
		"leaf range out of bounds": func() Snapshot {
			snap := cloneBinary()
			leaf := firstLeaf(snap.Nodes)
			snap.Nodes[leaf].FirstPrim = uint32(len(snap.Order))
			return snap
		},
		"leaf with children": func() Snapshot {
			snap := cloneBinary()
			leaf := firstLeaf(snap.Nodes)
			snap.Nodes[leaf].Left = 1
			return snap
		},
		"overlapping leafs": func() Snapshot {
			snap := cloneBinary()
			leaf := firstLeaf(snap.Nodes)
			snap.Nodes[leaf].PrimCount++
			return snap
		},
		"bad axis": func() Snapshot {
			snap := cloneBinary()
			snap.Nodes[0].Axis = 3
			return snap
		},
		"nan bbox": func() Snapshot {
			snap := cloneBinary()
			snap.Nodes[0].Min[1] = float32(math.NaN())
			return snap
		},
		"wide child after empty slot": func() Snapshot {
			snap := cloneWide()
			snap.WideNodes[0].Children[1] = absentChild
			return snap
		},
		"wide missing children": func() Snapshot {
			snap := cloneWide()
			snap.WideNodes[0].Children = [4]int32{1, absentChild, absentChild, absentChild}
			return snap
		},
	}

	for name, corrupt := range specs {
		_, err := Restore(prims, corrupt())
		require.ErrorIs(t, err, ErrCorrupt, name)
	}

	_, err = Restore(prims, Snapshot{Type: Type(7), Order: slices.Clone(binarySnap.Order)})
	require.ErrorIs(t, err, ErrUnsupportedType)
}
