package graph

// Viewport maps world coordinates onto a grid of terminal cells. Zoom
// steps are fixed multiplicative factors; Fit frames the whole layout with
// padding.
const (
	zoomFactor = 1.2
	zoomMin    = 0.05
	zoomMax    = 8.0
	fitPadding = 40.0 // world units around the layout bounds

	// Terminal cells are roughly twice as tall as wide, so one row
	// covers twice the world distance of one column.
	worldPerCol = 10.0
	worldPerRow = 20.0
)

type Viewport struct {
	Cols, Rows int
	Zoom       float64
	// World coordinate shown at the top-left cell.
	OriginX, OriginY float64
}

func NewViewport(cols, rows int) *Viewport {
	return &Viewport{Cols: cols, Rows: rows, Zoom: 1.0}
}

// ZoomIn multiplies the current zoom by the fixed factor.
func (v *Viewport) ZoomIn() { v.setZoom(v.Zoom * zoomFactor) }

// ZoomOut divides the current zoom by the fixed factor.
func (v *Viewport) ZoomOut() { v.setZoom(v.Zoom / zoomFactor) }

func (v *Viewport) setZoom(z float64) {
	if z < zoomMin {
		z = zoomMin
	}
	if z > zoomMax {
		z = zoomMax
	}
	// Keep the viewport center stationary across the zoom change.
	cx, cy := v.center()
	v.Zoom = z
	v.centerOn(cx, cy)
}

func (v *Viewport) center() (float64, float64) {
	return v.OriginX + float64(v.Cols)/2*worldPerCol/v.Zoom,
		v.OriginY + float64(v.Rows)/2*worldPerRow/v.Zoom
}

func (v *Viewport) centerOn(wx, wy float64) {
	v.OriginX = wx - float64(v.Cols)/2*worldPerCol/v.Zoom
	v.OriginY = wy - float64(v.Rows)/2*worldPerRow/v.Zoom
}

// Pan shifts the view by the given number of cells.
func (v *Viewport) Pan(dCols, dRows int) {
	v.OriginX += float64(dCols) * worldPerCol / v.Zoom
	v.OriginY += float64(dRows) * worldPerRow / v.Zoom
}

// Fit frames all placed nodes with fixed padding and centers them.
func (v *Viewport) Fit(l *Layout) {
	if len(l.Nodes) == 0 || v.Cols == 0 || v.Rows == 0 {
		return
	}
	minX, minY, maxX, maxY := l.Bounds()
	minX -= fitPadding
	minY -= fitPadding
	maxX += fitPadding
	maxY += fitPadding

	zx := float64(v.Cols) * worldPerCol / (maxX - minX)
	zy := float64(v.Rows) * worldPerRow / (maxY - minY)
	z := zx
	if zy < z {
		z = zy
	}
	if z < zoomMin {
		z = zoomMin
	}
	if z > zoomMax {
		z = zoomMax
	}
	v.Zoom = z
	v.centerOn((minX+maxX)/2, (minY+maxY)/2)
}

// ToScreen converts a world coordinate to a cell position.
func (v *Viewport) ToScreen(wx, wy float64) (col, row int) {
	col = int((wx - v.OriginX) * v.Zoom / worldPerCol)
	row = int((wy - v.OriginY) * v.Zoom / worldPerRow)
	return col, row
}

// NodeRect returns the cell rectangle a placed node currently occupies.
// Every node keeps at least a 1x1 footprint so far-out zoom levels stay
// hoverable.
func (v *Viewport) NodeRect(p PlacedNode) (col, row, cols, rows int) {
	c0, r0 := v.ToScreen(p.X-p.W/2, p.Y-p.H/2)
	c1, r1 := v.ToScreen(p.X+p.W/2, p.Y+p.H/2)
	cols = c1 - c0
	rows = r1 - r0
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return c0, r0, cols, rows
}

// NodeAt hit-tests a cell position against the current transform. The
// test runs against live viewport state on every call, so zoom and pan
// are always reflected. Returns -1 when no node is under the cell.
func (v *Viewport) NodeAt(l *Layout, col, row int) int {
	// Later nodes draw on top, so scan back to front.
	for i := len(l.Nodes) - 1; i >= 0; i-- {
		c, r, cs, rs := v.NodeRect(l.Nodes[i])
		if col >= c && col < c+cs && row >= r && row < r+rs {
			return l.Nodes[i].Index
		}
	}
	return -1
}
