package domain

// NoData is the sentinel for missing values in continuous rasters.
const NoData = -9999.0

// ClassNoData is the sentinel for missing values in class rasters.
const ClassNoData int16 = -1

// Raster is a continuous-valued grid (depths, vulnerability scores). Cells
// are row-major. Rasters are cycle-scoped: built once, read by downstream
// stages, never mutated after hand-off.
type Raster struct {
	Grid  GridDef   `json:"grid"`
	Cells []float64 `json:"cells"`
}

// NewRaster allocates a raster on the given grid with every cell no-data.
func NewRaster(grid GridDef) *Raster {
	cells := make([]float64, grid.NumCells())
	for i := range cells {
		cells[i] = NoData
	}
	return &Raster{Grid: grid, Cells: cells}
}

// At returns the value of cell (row, col).
func (r *Raster) At(row, col int) float64 { return r.Cells[row*r.Grid.Cols+col] }

// Set assigns the value of cell (row, col).
func (r *Raster) Set(row, col int, v float64) { r.Cells[row*r.Grid.Cols+col] = v }

// IsNoData reports whether v is the missing-value sentinel.
func IsNoData(v float64) bool { return v == NoData }

// AllNoData reports whether the raster holds no valid cell at all.
func (r *Raster) AllNoData() bool {
	for _, v := range r.Cells {
		if !IsNoData(v) {
			return false
		}
	}
	return true
}

// ClassRaster is an ordinal-class grid (severity tiers, fused risk classes).
type ClassRaster struct {
	Grid  GridDef `json:"grid"`
	Cells []int16 `json:"cells"`
}

// NewClassRaster allocates a class raster with every cell no-data.
func NewClassRaster(grid GridDef) *ClassRaster {
	cells := make([]int16, grid.NumCells())
	for i := range cells {
		cells[i] = ClassNoData
	}
	return &ClassRaster{Grid: grid, Cells: cells}
}

// At returns the class of cell (row, col).
func (r *ClassRaster) At(row, col int) int16 { return r.Cells[row*r.Grid.Cols+col] }

// Set assigns the class of cell (row, col).
func (r *ClassRaster) Set(row, col int, v int16) { r.Cells[row*r.Grid.Cols+col] = v }
