// Package svi loads pre-rasterized Social Vulnerability Index grids. The
// upstream processor rasterizes the CDC SVI geodatabase to a continuous 0–1
// score on its own native grid and writes it as a compact JSON raster
// document; this loader only reads and sanity-checks it.
package svi

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

// LoadRaster reads a vulnerability raster JSON document from disk.
func LoadRaster(path string) (*domain.Raster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read svi raster: %w", err)
	}
	return ParseRaster(data)
}

// ParseRaster deserializes and validates a vulnerability raster document.
func ParseRaster(data []byte) (*domain.Raster, error) {
	var r domain.Raster
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse svi raster: %w", err)
	}
	if err := r.Grid.Validate(); err != nil {
		return nil, fmt.Errorf("svi raster: %w", err)
	}
	if len(r.Cells) != r.Grid.NumCells() {
		return nil, fmt.Errorf("svi raster: %d cells for %dx%d grid",
			len(r.Cells), r.Grid.Rows, r.Grid.Cols)
	}
	for i, v := range r.Cells {
		if domain.IsNoData(v) {
			continue
		}
		if v < 0 || v > 1 {
			return nil, fmt.Errorf("svi raster: score %g at cell %d outside [0,1]", v, i)
		}
	}
	return &r, nil
}
