package graph

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"procmap/internal/model"
)

// Cell paint classes. The rune grid and paint grid are built together and
// styled on emission, which keeps the rasterizer free of ANSI arithmetic.
type paint uint8

const (
	paintNone paint = iota
	paintEdge
	paintNode
	paintBoundary // activity flagged as case start/end
	paintSentinelStart
	paintSentinelEnd
	paintSelected
	paintHovered
)

var paintStyles = map[paint]lipgloss.Style{
	paintEdge:          lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	paintNode:          lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
	paintBoundary:      lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	paintSentinelStart: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
	paintSentinelEnd:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
	paintSelected:      lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")),
	paintHovered:       lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true),
}

type canvas struct {
	cols, rows int
	runes      []rune
	paints     []paint
}

func newCanvas(cols, rows int) *canvas {
	c := &canvas{cols: cols, rows: rows}
	c.runes = make([]rune, cols*rows)
	c.paints = make([]paint, cols*rows)
	for i := range c.runes {
		c.runes[i] = ' '
	}
	return c
}

func (c *canvas) set(col, row int, r rune, p paint) {
	if col < 0 || col >= c.cols || row < 0 || row >= c.rows {
		return
	}
	i := row*c.cols + col
	c.runes[i] = r
	c.paints[i] = p
}

// RenderFrame rasterizes the layout under the viewport transform into
// styled terminal lines. selectedID highlights the selected node,
// hoverIdx (node index, -1 for none) highlights the hovered one.
func RenderFrame(l *Layout, v *Viewport, selectedID string, hoverIdx int) []string {
	c := newCanvas(v.Cols, v.Rows)

	for _, e := range l.Diagram.Edges {
		drawEdge(c, v, l.Nodes[e.Source], l.Nodes[e.Target], e.Weight)
	}
	for _, p := range l.Nodes {
		n := l.Diagram.Nodes[p.Index]
		drawNode(c, v, p, n, n.ID == selectedID, p.Index == hoverIdx)
	}
	if hoverIdx >= 0 && hoverIdx < len(l.Diagram.Nodes) && !l.Diagram.Nodes[hoverIdx].IsSpecial {
		drawTooltip(c, v, l, hoverIdx)
	}

	return c.emit()
}

// drawTooltip floats the hovered node's name and frequency directly above
// its current screen rectangle. The position derives from the live
// viewport transform on every render, never from a cached location.
func drawTooltip(c *canvas, v *Viewport, l *Layout, idx int) {
	n := l.Diagram.Nodes[idx]
	var p PlacedNode
	for _, cand := range l.Nodes {
		if cand.Index == idx {
			p = cand
			break
		}
	}
	col, row, cols, _ := v.NodeRect(p)

	text := " " + n.Label + " (" + strconv.Itoa(n.Frequency) + ") "
	start := col + (cols-len([]rune(text)))/2
	if start < 0 {
		start = 0
	}
	tipRow := row - 1
	if tipRow < 0 {
		tipRow = 0
	}
	for i, r := range []rune(text) {
		c.set(start+i, tipRow, r, paintHovered)
	}
}

func drawEdge(c *canvas, v *Viewport, src, dst PlacedNode, weight int) {
	x0, y0 := v.ToScreen(src.X+src.W/2, src.Y)
	x1, y1 := v.ToScreen(dst.X-dst.W/2, dst.Y)

	thickness := EdgeThickness(weight)
	var r rune
	switch {
	case thickness < 2.5:
		r = '·'
	case thickness < 4.5:
		r = '•'
	default:
		r = '█'
	}

	steps := abs(x1-x0)
	if abs(y1-y0) > steps {
		steps = abs(y1 - y0)
	}
	if steps == 0 {
		steps = 1
	}
	for s := 0; s <= steps; s++ {
		col := x0 + (x1-x0)*s/steps
		row := y0 + (y1-y0)*s/steps
		glyph := r
		if s == steps {
			glyph = '▶'
		}
		c.set(col, row, glyph, paintEdge)
	}
}

func drawNode(c *canvas, v *Viewport, p PlacedNode, n model.GraphNode, selected, hovered bool) {
	col, row, cols, rows := v.NodeRect(p)

	pt := paintNode
	switch {
	case selected:
		pt = paintSelected
	case hovered:
		pt = paintHovered
	case n.IsSpecial && n.ID == model.StartNodeID:
		pt = paintSentinelStart
	case n.IsSpecial:
		pt = paintSentinelEnd
	case n.IsStart || n.IsEnd:
		pt = paintBoundary
	}

	if n.IsSpecial {
		// Fixed-size circle, independent of frequency.
		glyph := model.IconStart
		if n.ID == model.EndNodeID {
			glyph = model.IconEnd
		}
		c.set(col+cols/2, row+rows/2, []rune(glyph)[0], pt)
		return
	}

	if cols < 3 || rows < 2 {
		// Too small for a box at this zoom; a single block keeps the
		// node visible and hoverable.
		c.set(col, row, '▪', pt)
		return
	}

	tl, tr, bl, br, hr, vr := '┌', '┐', '└', '┘', '─', '│'
	if n.IsStart || n.IsEnd {
		tl, tr, bl, br, hr, vr = '╔', '╗', '╚', '╝', '═', '║'
	}

	for x := col; x < col+cols; x++ {
		c.set(x, row, hr, pt)
		c.set(x, row+rows-1, hr, pt)
	}
	for y := row; y < row+rows; y++ {
		c.set(col, y, vr, pt)
		c.set(col+cols-1, y, vr, pt)
	}
	c.set(col, row, tl, pt)
	c.set(col+cols-1, row, tr, pt)
	c.set(col, row+rows-1, bl, pt)
	c.set(col+cols-1, row+rows-1, br, pt)
	for y := row + 1; y < row+rows-1; y++ {
		for x := col + 1; x < col+cols-1; x++ {
			c.set(x, y, ' ', pt)
		}
	}

	label := truncateLabel(n.Label, cols-2)
	labelRow := row + rows/2
	start := col + 1 + (cols-2-len([]rune(label)))/2
	for i, r := range label {
		c.set(start+i, labelRow, r, pt)
	}
}

func truncateLabel(label string, width int) string {
	if width < 1 {
		return ""
	}
	runes := []rune(label)
	if len(runes) <= width {
		return label
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

// emit joins the grid into styled lines, batching runs of equal paint so
// each line carries few escape sequences.
func (c *canvas) emit() []string {
	lines := make([]string, c.rows)
	var b strings.Builder
	for row := 0; row < c.rows; row++ {
		b.Reset()
		runStart := 0
		runPaint := c.paints[row*c.cols]
		flush := func(end int) {
			segment := string(c.runes[row*c.cols+runStart : row*c.cols+end])
			if style, ok := paintStyles[runPaint]; ok {
				segment = style.Render(segment)
			}
			b.WriteString(segment)
		}
		for x := 1; x < c.cols; x++ {
			if c.paints[row*c.cols+x] != runPaint {
				flush(x)
				runStart = x
				runPaint = c.paints[row*c.cols+x]
			}
		}
		flush(c.cols)
		lines[row] = b.String()
	}
	return lines
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
