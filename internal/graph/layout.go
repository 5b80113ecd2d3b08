package graph

import "sort"

// Method records which algorithm produced a layout.
type Method int

const (
	MethodHierarchical Method = iota
	MethodBreadthFirst
)

func (m Method) String() string {
	if m == MethodBreadthFirst {
		return "breadth-first"
	}
	return "hierarchical"
}

// Layout spacing. BFS fallback spreads nodes with a fixed spacing factor.
const (
	rankSep    = 90.0
	nodeSep    = 36.0
	bfsSpacing = 1.5
)

// PlacedNode is a node with world-coordinate center and encoded size.
type PlacedNode struct {
	Index int // index into Diagram.Nodes
	X, Y  float64
	W, H  float64
}

// Layout is a fully placed diagram.
type Layout struct {
	Diagram *Diagram
	Nodes   []PlacedNode
	Method  Method
}

// Compute lays the diagram out left to right. The hierarchical rank-based
// layout is attempted first; when the graph is cyclic and ranks cannot be
// resolved, a breadth-first layout seeded from the first node takes over.
// Initial layout and explicit "reset layout" both route through here.
func Compute(d *Diagram) *Layout {
	if len(d.Nodes) == 0 {
		return &Layout{Diagram: d, Method: MethodHierarchical}
	}

	if ranks, ok := hierarchicalRanks(d); ok {
		columns := orderColumns(d, ranks)
		for range [4]int{} {
			medianSweep(d, columns)
		}
		return place(d, columns, MethodHierarchical, 1.0)
	}

	return place(d, bfsColumns(d), MethodBreadthFirst, bfsSpacing)
}

// hierarchicalRanks assigns each node its longest-path depth. Returns
// ok=false when a cycle leaves nodes unrankable.
func hierarchicalRanks(d *Diagram) ([]int, bool) {
	n := len(d.Nodes)
	indeg := make([]int, n)
	out := make([][]int, n)
	for _, e := range d.Edges {
		if e.Source == e.Target {
			continue // self-loops do not constrain ranking
		}
		indeg[e.Target]++
		out[e.Source] = append(out[e.Source], e.Target)
	}

	ranks := make([]int, n)
	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}

	processed := 0
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		processed++
		for _, w := range out[v] {
			if ranks[v]+1 > ranks[w] {
				ranks[w] = ranks[v] + 1
			}
			indeg[w]--
			if indeg[w] == 0 {
				queue = append(queue, w)
			}
		}
	}

	return ranks, processed == n
}

// bfsColumns levels nodes by directed breadth-first traversal from the
// first node; components unreachable from it are seeded in turn.
func bfsColumns(d *Diagram) [][]int {
	n := len(d.Nodes)
	out := make([][]int, n)
	for _, e := range d.Edges {
		out[e.Source] = append(out[e.Source], e.Target)
	}

	level := make([]int, n)
	visited := make([]bool, n)
	maxLevel := 0

	for seed := 0; seed < n; seed++ {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		level[seed] = 0
		queue := []int{seed}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, w := range out[v] {
				if visited[w] {
					continue
				}
				visited[w] = true
				level[w] = level[v] + 1
				if level[w] > maxLevel {
					maxLevel = level[w]
				}
				queue = append(queue, w)
			}
		}
	}

	columns := make([][]int, maxLevel+1)
	for i := 0; i < n; i++ {
		columns[level[i]] = append(columns[level[i]], i)
	}
	return columns
}

func orderColumns(d *Diagram, ranks []int) [][]int {
	maxRank := 0
	for _, r := range ranks {
		if r > maxRank {
			maxRank = r
		}
	}
	columns := make([][]int, maxRank+1)
	for i, r := range ranks {
		columns[r] = append(columns[r], i)
	}
	return columns
}

// medianSweep reorders each column by the median position of neighbors in
// the previous column, then sweeps back. Classic crossing reduction; a few
// passes settle the diagrams this tool sees.
func medianSweep(d *Diagram, columns [][]int) {
	pos := make(map[int]int)
	neighbors := func(v int, incoming bool) []int {
		var res []int
		for _, e := range d.Edges {
			if incoming && e.Target == v {
				res = append(res, e.Source)
			} else if !incoming && e.Source == v {
				res = append(res, e.Target)
			}
		}
		return res
	}
	sweep := func(col []int, incoming bool) {
		medians := make(map[int]float64, len(col))
		for _, v := range col {
			ns := neighbors(v, incoming)
			if len(ns) == 0 {
				medians[v] = -1
				continue
			}
			ps := make([]int, 0, len(ns))
			for _, n := range ns {
				if p, ok := pos[n]; ok {
					ps = append(ps, p)
				}
			}
			if len(ps) == 0 {
				medians[v] = -1
				continue
			}
			sort.Ints(ps)
			medians[v] = float64(ps[len(ps)/2])
		}
		sort.SliceStable(col, func(a, b int) bool {
			ma, mb := medians[col[a]], medians[col[b]]
			if ma < 0 || mb < 0 {
				return false // keep nodes without neighbors in place
			}
			return ma < mb
		})
	}

	for c := 0; c < len(columns); c++ {
		if c > 0 {
			for p, v := range columns[c-1] {
				pos[v] = p
			}
			sweep(columns[c], true)
		}
	}
	for c := len(columns) - 2; c >= 0; c-- {
		for p, v := range columns[c+1] {
			pos[v] = p
		}
		sweep(columns[c], false)
	}
}

func place(d *Diagram, columns [][]int, method Method, spacing float64) *Layout {
	l := &Layout{
		Diagram: d,
		Nodes:   make([]PlacedNode, len(d.Nodes)),
		Method:  method,
	}

	x := 0.0
	for _, col := range columns {
		colWidth := 0.0
		colHeight := 0.0
		for _, v := range col {
			w, h := NodeSize(d.Nodes[v])
			if w > colWidth {
				colWidth = w
			}
			colHeight += h
		}
		colHeight += float64(len(col)-1) * nodeSep * spacing

		y := -colHeight / 2
		for _, v := range col {
			w, h := NodeSize(d.Nodes[v])
			l.Nodes[v] = PlacedNode{
				Index: v,
				X:     x + colWidth/2,
				Y:     y + h/2,
				W:     w,
				H:     h,
			}
			y += h + nodeSep*spacing
		}
		x += colWidth + rankSep*spacing
	}

	return l
}

// Bounds returns the world-coordinate bounding box of all placed nodes.
func (l *Layout) Bounds() (minX, minY, maxX, maxY float64) {
	if len(l.Nodes) == 0 {
		return 0, 0, 0, 0
	}
	first := true
	for _, p := range l.Nodes {
		x0, y0 := p.X-p.W/2, p.Y-p.H/2
		x1, y1 := p.X+p.W/2, p.Y+p.H/2
		if first {
			minX, minY, maxX, maxY = x0, y0, x1, y1
			first = false
			continue
		}
		if x0 < minX {
			minX = x0
		}
		if y0 < minY {
			minY = y0
		}
		if x1 > maxX {
			maxX = x1
		}
		if y1 > maxY {
			maxY = y1
		}
	}
	return minX, minY, maxX, maxY
}
