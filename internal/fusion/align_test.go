package fusion

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fineGrid() domain.GridDef {
	return domain.GridDef{EPSG: 5070, OriginX: 0, OriginY: 300, CellSize: 30, Rows: 10, Cols: 10}
}

func TestAlignIdempotent(t *testing.T) {
	grid := fineGrid()
	sev := domain.NewClassRaster(grid)
	sev.Set(2, 2, SeverityHigh)
	vuln := domain.NewRaster(grid)
	vuln.Set(2, 2, 0.7)

	pair, err := Align(sev, vuln, nil, discardLogger())
	require.NoError(t, err)

	assert.Same(t, sev, pair.Severity, "already-aligned severity must pass through untouched")
	assert.Same(t, vuln, pair.Vulnerability, "already-aligned vulnerability must pass through untouched")
	assert.True(t, pair.Grid.Equal(grid))
}

func TestAlignDisjointExtents(t *testing.T) {
	sev := domain.NewClassRaster(fineGrid())
	far := domain.GridDef{EPSG: 5070, OriginX: 10_000, OriginY: 10_300, CellSize: 30, Rows: 10, Cols: 10}
	vuln := domain.NewRaster(far)

	_, err := Align(sev, vuln, nil, discardLogger())
	require.ErrorIs(t, err, domain.ErrDisjointExtents)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "align", stageErr.Stage)
}

func TestAlignIncompatibleCRS(t *testing.T) {
	sev := domain.NewClassRaster(fineGrid())
	other := fineGrid()
	other.EPSG = 4326
	vuln := domain.NewRaster(other)

	_, err := Align(sev, vuln, nil, discardLogger())
	assert.ErrorIs(t, err, domain.ErrIncompatibleCRS)
}

func TestAlignTargetCRSMismatch(t *testing.T) {
	grid := fineGrid()
	sev := domain.NewClassRaster(grid)
	vuln := domain.NewRaster(grid)
	target := fineGrid()
	target.EPSG = 4326

	_, err := Align(sev, vuln, &target, discardLogger())
	assert.ErrorIs(t, err, domain.ErrIncompatibleCRS)
}

func TestAlignDerivesIntersectionAtFinerResolution(t *testing.T) {
	sev := domain.NewClassRaster(fineGrid())
	for i := range sev.Cells {
		sev.Cells[i] = SeverityModerate
	}

	// Coarser vulnerability grid overhanging the severity grid on all sides.
	coarse := domain.GridDef{EPSG: 5070, OriginX: -90, OriginY: 390, CellSize: 90, Rows: 6, Cols: 6}
	vuln := domain.NewRaster(coarse)
	for i := range vuln.Cells {
		vuln.Cells[i] = 0.5
	}

	pair, err := Align(sev, vuln, nil, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 30.0, pair.Grid.CellSize, "finer of the two resolutions wins")
	assert.Equal(t, 0.0, pair.Grid.OriginX)
	assert.Equal(t, 300.0, pair.Grid.OriginY)
	assert.Equal(t, 10, pair.Grid.Rows)
	assert.Equal(t, 10, pair.Grid.Cols)

	// Class data passes through nearest-neighbor without invented tiers.
	for _, c := range pair.Severity.Cells {
		assert.Contains(t, []int16{domain.ClassNoData, SeverityModerate}, c)
	}
	// A constant field survives bilinear resampling exactly.
	for _, v := range pair.Vulnerability.Cells {
		if !domain.IsNoData(v) {
			assert.InDelta(t, 0.5, v, 1e-12)
		}
	}
}

func TestAlignExplicitTargetGrid(t *testing.T) {
	sev := domain.NewClassRaster(fineGrid())
	sev.Set(0, 0, SeverityVeryHigh)
	vuln := domain.NewRaster(fineGrid())
	vuln.Set(0, 0, 0.9)

	target := domain.GridDef{EPSG: 5070, OriginX: 0, OriginY: 300, CellSize: 60, Rows: 5, Cols: 5}
	pair, err := Align(sev, vuln, &target, discardLogger())
	require.NoError(t, err)

	assert.True(t, pair.Grid.Equal(target))
	assert.Len(t, pair.Severity.Cells, 25)
	assert.Len(t, pair.Vulnerability.Cells, 25)
}

func TestResampleBilinearSkipsNoData(t *testing.T) {
	src := domain.NewRaster(fineGrid())
	// Single valid cell surrounded by no-data: neighbors renormalize to it.
	src.Set(4, 4, 0.8)

	out := resampleBilinear(src, fineGrid())
	assert.InDelta(t, 0.8, out.At(4, 4), 1e-12)
	assert.True(t, domain.IsNoData(out.At(0, 0)), "cells with no valid neighbor stay no-data")
}
