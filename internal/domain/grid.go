package domain

import (
	"fmt"
	"math"
)

// GridDef describes an axis-aligned raster grid: its projection, upper-left
// origin, square cell size in projection units, and pixel dimensions.
type GridDef struct {
	EPSG     int     `json:"epsg" yaml:"epsg"`
	OriginX  float64 `json:"origin_x" yaml:"origin_x"`
	OriginY  float64 `json:"origin_y" yaml:"origin_y"`
	CellSize float64 `json:"cell_size" yaml:"cell_size"`
	Rows     int     `json:"rows" yaml:"rows"`
	Cols     int     `json:"cols" yaml:"cols"`
}

// Extent is a bounding box in projection coordinates.
type Extent struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the east-west span of the extent.
func (e Extent) Width() float64 { return e.MaxX - e.MinX }

// Height returns the north-south span of the extent.
func (e Extent) Height() float64 { return e.MaxY - e.MinY }

// Intersect returns the overlapping region of two extents and whether any
// overlap exists. Touching edges (zero-area overlap) count as disjoint.
func (e Extent) Intersect(o Extent) (Extent, bool) {
	r := Extent{
		MinX: math.Max(e.MinX, o.MinX),
		MinY: math.Max(e.MinY, o.MinY),
		MaxX: math.Min(e.MaxX, o.MaxX),
		MaxY: math.Min(e.MaxY, o.MaxY),
	}
	if r.MinX >= r.MaxX || r.MinY >= r.MaxY {
		return Extent{}, false
	}
	return r, true
}

// Validate checks the grid definition for usable values.
func (g GridDef) Validate() error {
	if g.EPSG <= 0 {
		return fmt.Errorf("grid: invalid EPSG code %d", g.EPSG)
	}
	if g.CellSize <= 0 {
		return fmt.Errorf("grid: cell size must be positive, got %g", g.CellSize)
	}
	if g.Rows <= 0 || g.Cols <= 0 {
		return fmt.Errorf("grid: dimensions must be positive, got %dx%d", g.Rows, g.Cols)
	}
	return nil
}

// Extent returns the grid's bounding box. The origin is the upper-left
// corner, so y decreases with increasing row index.
func (g GridDef) Extent() Extent {
	return Extent{
		MinX: g.OriginX,
		MinY: g.OriginY - float64(g.Rows)*g.CellSize,
		MaxX: g.OriginX + float64(g.Cols)*g.CellSize,
		MaxY: g.OriginY,
	}
}

// CellArea returns the ground area of one cell in squared projection units.
func (g GridDef) CellArea() float64 { return g.CellSize * g.CellSize }

// NumCells returns the total pixel count.
func (g GridDef) NumCells() int { return g.Rows * g.Cols }

// Equal reports whether two grids describe the same CRS, origin, resolution,
// and dimensions. Origins are compared with a tolerance of 1e-9 cell sizes to
// absorb float noise from extent arithmetic.
func (g GridDef) Equal(o GridDef) bool {
	const tol = 1e-9
	return g.EPSG == o.EPSG &&
		g.Rows == o.Rows && g.Cols == o.Cols &&
		math.Abs(g.CellSize-o.CellSize) <= tol*g.CellSize &&
		math.Abs(g.OriginX-o.OriginX) <= tol*g.CellSize &&
		math.Abs(g.OriginY-o.OriginY) <= tol*g.CellSize
}

// CellCenter returns the projection coordinates of the center of cell (row, col).
func (g GridDef) CellCenter(row, col int) (x, y float64) {
	x = g.OriginX + (float64(col)+0.5)*g.CellSize
	y = g.OriginY - (float64(row)+0.5)*g.CellSize
	return x, y
}

// CellAt returns the row/col of the cell containing point (x, y), and whether
// the point falls inside the grid.
func (g GridDef) CellAt(x, y float64) (row, col int, ok bool) {
	col = int(math.Floor((x - g.OriginX) / g.CellSize))
	row = int(math.Floor((g.OriginY - y) / g.CellSize))
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return 0, 0, false
	}
	return row, col, true
}

// String renders the grid parameters in a compact loggable form.
func (g GridDef) String() string {
	return fmt.Sprintf("EPSG:%d origin=(%g,%g) cell=%g size=%dx%d",
		g.EPSG, g.OriginX, g.OriginY, g.CellSize, g.Rows, g.Cols)
}
