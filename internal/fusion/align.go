package fusion

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

// AlignedPair holds a severity and a vulnerability raster resampled onto one
// shared grid: pixel (i,j) in both refers to the same ground location.
type AlignedPair struct {
	Severity      *domain.ClassRaster
	Vulnerability *domain.Raster
	Grid          domain.GridDef
}

// Align resamples the severity and vulnerability rasters onto one target
// grid. When target is nil the grid is derived: the intersection of both
// extents at the finer of the two resolutions. Severity is resampled
// nearest-neighbor (class data must not grow fractional tiers); vulnerability
// is resampled bilinearly. If both inputs already sit on the target grid they
// are returned unchanged, so re-aligning an aligned pair introduces no
// resampling artifacts.
//
// The chosen grid parameters are logged and returned for the summary record:
// mismatched real-world inputs make this the most failure-prone stage, and
// reproducing a run requires knowing exactly which grid was fused on.
func Align(sev *domain.ClassRaster, vuln *domain.Raster, target *domain.GridDef, logger *slog.Logger) (AlignedPair, error) {
	const stage = "align"

	if sev.Grid.EPSG != vuln.Grid.EPSG {
		return AlignedPair{}, domain.NewStageError(stage,
			fmt.Sprintf("EPSG:%d vs EPSG:%d", sev.Grid.EPSG, vuln.Grid.EPSG),
			domain.ErrIncompatibleCRS)
	}
	if target != nil && target.EPSG != sev.Grid.EPSG {
		return AlignedPair{}, domain.NewStageError(stage,
			fmt.Sprintf("target EPSG:%d vs input EPSG:%d", target.EPSG, sev.Grid.EPSG),
			domain.ErrIncompatibleCRS)
	}

	// Already aligned: hand the inputs back untouched.
	if sev.Grid.Equal(vuln.Grid) && (target == nil || target.Equal(sev.Grid)) {
		return AlignedPair{Severity: sev, Vulnerability: vuln, Grid: sev.Grid}, nil
	}

	var grid domain.GridDef
	if target != nil {
		grid = *target
	} else {
		g, err := intersectionGrid(sev.Grid, vuln.Grid)
		if err != nil {
			return AlignedPair{}, domain.NewStageError(stage, "severity/vulnerability", err)
		}
		grid = g
	}

	if _, ok := grid.Extent().Intersect(sev.Grid.Extent()); !ok {
		return AlignedPair{}, domain.NewStageError(stage, "severity", domain.ErrDisjointExtents)
	}
	if _, ok := grid.Extent().Intersect(vuln.Grid.Extent()); !ok {
		return AlignedPair{}, domain.NewStageError(stage, "vulnerability", domain.ErrDisjointExtents)
	}

	logger.Info("alignment grid chosen",
		"epsg", grid.EPSG,
		"origin_x", grid.OriginX,
		"origin_y", grid.OriginY,
		"cell_size", grid.CellSize,
		"rows", grid.Rows,
		"cols", grid.Cols,
	)

	return AlignedPair{
		Severity:      resampleNearest(sev, grid),
		Vulnerability: resampleBilinear(vuln, grid),
		Grid:          grid,
	}, nil
}

// intersectionGrid derives the shared grid: overlap of both extents at the
// finer cell size, origin snapped to the overlap's upper-left corner.
func intersectionGrid(a, b domain.GridDef) (domain.GridDef, error) {
	inter, ok := a.Extent().Intersect(b.Extent())
	if !ok {
		return domain.GridDef{}, domain.ErrDisjointExtents
	}
	cell := math.Min(a.CellSize, b.CellSize)
	cols := int(math.Floor(inter.Width()/cell + 1e-9))
	rows := int(math.Floor(inter.Height()/cell + 1e-9))
	if rows < 1 || cols < 1 {
		return domain.GridDef{}, domain.ErrDisjointExtents
	}
	return domain.GridDef{
		EPSG:     a.EPSG,
		OriginX:  inter.MinX,
		OriginY:  inter.MaxY,
		CellSize: cell,
		Rows:     rows,
		Cols:     cols,
	}, nil
}

// resampleNearest maps each target cell center to the source cell containing
// it. Ordinal classes pass through unchanged; cells outside the source grid
// become no-data.
func resampleNearest(src *domain.ClassRaster, grid domain.GridDef) *domain.ClassRaster {
	out := domain.NewClassRaster(grid)
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			x, y := grid.CellCenter(row, col)
			sr, sc, ok := src.Grid.CellAt(x, y)
			if !ok {
				continue
			}
			out.Set(row, col, src.At(sr, sc))
		}
	}
	return out
}

// resampleBilinear interpolates each target cell center from the four
// surrounding source cell centers. No-data and out-of-grid neighbors drop out
// of the weighting; a cell with no valid neighbor at all stays no-data.
func resampleBilinear(src *domain.Raster, grid domain.GridDef) *domain.Raster {
	out := domain.NewRaster(grid)
	sg := src.Grid
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			x, y := grid.CellCenter(row, col)

			// Fractional position in source cell-center coordinates.
			gx := (x-sg.OriginX)/sg.CellSize - 0.5
			gy := (sg.OriginY-y)/sg.CellSize - 0.5
			c0 := int(math.Floor(gx))
			r0 := int(math.Floor(gy))
			fx := gx - float64(c0)
			fy := gy - float64(r0)

			var sum, wsum float64
			for _, n := range [4]struct {
				r, c int
				w    float64
			}{
				{r0, c0, (1 - fy) * (1 - fx)},
				{r0, c0 + 1, (1 - fy) * fx},
				{r0 + 1, c0, fy * (1 - fx)},
				{r0 + 1, c0 + 1, fy * fx},
			} {
				if n.w == 0 || n.r < 0 || n.r >= sg.Rows || n.c < 0 || n.c >= sg.Cols {
					continue
				}
				v := src.At(n.r, n.c)
				if domain.IsNoData(v) {
					continue
				}
				sum += n.w * v
				wsum += n.w
			}
			if wsum > 0 {
				out.Set(row, col, sum/wsum)
			}
		}
	}
	return out
}
