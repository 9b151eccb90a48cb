package bvh

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Hierarchy statistics.
type Stats struct {
	Type Type

	Primitives int
	Nodes      int
	Leaves     int

	// Depth of the deepest leaf; the root has depth 0.
	MaxDepth int

	// The largest number of primitives stored in a single leaf.
	MaxLeafPrims int

	// The number of ranges that fell back to a median split. Only tracked
	// for freshly built hierarchies.
	FailedSplits int

	// Zero for restored hierarchies.
	BuildTime time.Duration

	// Space used by the node list and primitive order.
	NodeBytes  int
	OrderBytes int
}

// Collect statistics for a binary node list.
func binaryStats(nodes []Node, primCount int) Stats {
	stats := Stats{
		Type:       Binary,
		Primitives: primCount,
		Nodes:      len(nodes),
		NodeBytes:  sizeOf(nodes),
		OrderBytes: primCount * 4,
	}
	if len(nodes) == 0 {
		return stats
	}

	type entry struct {
		node  int32
		depth int
	}
	stack := []entry{{0, 0}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &nodes[cur.node]
		if !node.IsLeaf() {
			stack = append(stack, entry{node.Left, cur.depth + 1}, entry{node.Right, cur.depth + 1})
			continue
		}

		stats.Leaves++
		stats.MaxDepth = max(stats.MaxDepth, cur.depth)
		_, primCount := node.GetPrimitives()
		stats.MaxLeafPrims = max(stats.MaxLeafPrims, int(primCount))
	}

	return stats
}

// Collect statistics for a wide node list.
func wideStats(nodes []WideNode, primCount int) Stats {
	stats := Stats{
		Type:       Wide,
		Primitives: primCount,
		Nodes:      len(nodes),
		NodeBytes:  sizeOf(nodes),
		OrderBytes: primCount * 4,
	}
	if len(nodes) == 0 {
		return stats
	}

	type entry struct {
		node  int32
		depth int
	}
	stack := []entry{{0, 0}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &nodes[cur.node]
		if !node.IsLeaf() {
			for slot := 0; slot < node.ChildCount(); slot++ {
				stack = append(stack, entry{node.Children[slot], cur.depth + 1})
			}
			continue
		}

		stats.Leaves++
		stats.MaxDepth = max(stats.MaxDepth, cur.depth)
		_, primCount := node.GetPrimitives()
		stats.MaxLeafPrims = max(stats.MaxLeafPrims, int(primCount))
	}

	return stats
}

// Build a tabular representation of the statistics.
func (s Stats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Property", "Value"})
	table.Append([]string{"Layout", s.Type.String()})
	table.Append([]string{"Primitives", fmt.Sprint(s.Primitives)})
	table.Append([]string{"Nodes", fmt.Sprint(s.Nodes)})
	table.Append([]string{"Leaves", fmt.Sprint(s.Leaves)})
	table.Append([]string{"Max depth", fmt.Sprint(s.MaxDepth)})
	table.Append([]string{"Max leaf primitives", fmt.Sprint(s.MaxLeafPrims)})
	table.Append([]string{"Failed splits", fmt.Sprint(s.FailedSplits)})
	table.Append([]string{"Build time", s.BuildTime.String()})
	table.Append([]string{"Nodes size", fmtBytes(s.NodeBytes)})
	table.Append([]string{"Order size", fmtBytes(s.OrderBytes)})
	table.SetFooter([]string{"Total", strings.TrimLeft(fmtBytes(s.NodeBytes+s.OrderBytes), " ")})

	table.Render()
	return buf.String()
}

// Get the space used by the elements of a slice.
func sizeOf(slice interface{}) int {
	t := reflect.TypeOf(slice)
	v := reflect.ValueOf(slice)
	return int(t.Elem().Size()) * v.Len()
}

// Format a byte count with the appropriate byte/kb/mb unit.
func fmtBytes(totalBytes int) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(totalBytes)/1e6)
}
