// Package graph turns a weighted directly-follows graph into a laid-out,
// renderable diagram: rank-based layout with a breadth-first fallback,
// frequency/weight visual encoding, and viewport math for zoom, pan and
// hit testing in terminal cells.
package graph

import "procmap/internal/model"

// Diagram is a validated graph ready for layout. Edges whose endpoints do
// not resolve to known node ids are dropped rather than crashing the
// renderer; the count of dropped edges is kept for diagnostics.
type Diagram struct {
	Nodes        []model.GraphNode
	Edges        []edge
	DroppedEdges int

	index map[string]int
}

type edge struct {
	Source, Target int // indices into Nodes
	Weight         int
}

// Build indexes the backend graph and discards contract-violating edges.
func Build(g model.ProcessGraph) *Diagram {
	d := &Diagram{
		Nodes: g.Nodes,
		index: make(map[string]int, len(g.Nodes)),
	}
	for i, n := range g.Nodes {
		d.index[n.ID] = i
	}
	for _, e := range g.Edges {
		src, okSrc := d.index[e.Source]
		dst, okDst := d.index[e.Target]
		if !okSrc || !okDst {
			d.DroppedEdges++
			continue
		}
		d.Edges = append(d.Edges, edge{Source: src, Target: dst, Weight: e.Weight})
	}
	return d
}

// NodeIndex returns the index for a node id, or -1.
func (d *Diagram) NodeIndex(id string) int {
	if i, ok := d.index[id]; ok {
		return i
	}
	return -1
}

// Selectable reports whether clicking the node raises a selection event.
// Sentinel nodes never do.
func Selectable(n model.GraphNode) bool {
	return !n.IsSpecial
}
