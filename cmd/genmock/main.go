// Command genmock generates synthetic fixtures for the fusion service: a
// static reach catalog (rating tables + catchment masks), one forecast cycle
// with a few flood-condition reaches, and a vulnerability raster on a
// deliberately offset grid so alignment is exercised. Output is deterministic
// for a given seed.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir testdata -huc 03010400 -reaches 150 -seed 42
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "testdata", "directory for generated fixtures")
	huc := flag.String("huc", "03010400", "study HUC used as the reach ID prefix")
	nReaches := flag.Int("reaches", 150, "number of reaches to generate")
	seed := flag.Int64("seed", 42, "PRNG seed for reproducible fixtures")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(*seed))

	grid := domain.GridDef{
		EPSG:     5070, // CONUS Albers, meters
		OriginX:  1_500_000,
		OriginY:  1_600_000,
		CellSize: 30,
		Rows:     120,
		Cols:     120,
	}

	static := genCatalog(rng, grid, *huc, *nReaches)
	cycle := genCycle(rng, static, *huc)
	vuln := genSVIRaster(rng, grid)

	for name, v := range map[string]any{
		"reach_catalog.json":  static,
		"forecast_cycle.json": cycle,
		"svi_raster.json":     vuln,
	} {
		if err := writeJSON(filepath.Join(*outDir, name), v); err != nil {
			return err
		}
	}

	fmt.Printf("wrote fixtures for %d reaches to %s\n", *nReaches, *outDir)
	return nil
}

// genCatalog builds rating tables with power-law depth growth and compact
// square-ish catchment masks scattered over the grid. Neighboring masks
// overlap occasionally, which the rasterizer's max policy has to resolve.
func genCatalog(rng *rand.Rand, grid domain.GridDef, huc string, n int) *domain.StaticData {
	reaches := make(map[domain.ReachID]domain.Reach, n)
	for i := 0; i < n; i++ {
		id := domain.ReachID(fmt.Sprintf("%s%04d", huc, i))

		// Synthetic rating: depth ~ (q/50)^0.4 sampled at fixed discharges.
		var rating domain.RatingTable
		for _, q := range []float64{1, 10, 50, 100, 250, 500, 1000} {
			rating = append(rating, domain.RatingPoint{
				Discharge: q,
				Depth:     math.Pow(q/50, 0.4),
			})
		}

		r0 := rng.Intn(grid.Rows - 6)
		c0 := rng.Intn(grid.Cols - 6)
		size := 3 + rng.Intn(4)
		var mask domain.CatchmentMask
		for dr := 0; dr < size; dr++ {
			for dc := 0; dc < size; dc++ {
				mask = append(mask, domain.Cell{Row: r0 + dr, Col: c0 + dc})
			}
		}

		reaches[id] = domain.Reach{ID: id, Rating: rating, Mask: mask}
	}
	return &domain.StaticData{Grid: grid, Reaches: reaches}
}

// genCycle draws lognormal-ish discharges with a handful of flood-condition
// reaches boosted well above their rating range.
func genCycle(rng *rand.Rand, static *domain.StaticData, huc string) domain.ForecastCycle {
	ref := time.Date(2026, 4, 26, 12, 0, 0, 0, time.UTC)
	cycle := domain.ForecastCycle{
		ID:            fmt.Sprintf("%s-%s", huc, ref.Format("2006010215")),
		ReferenceTime: ref,
	}
	i := 0
	for id := range static.Reaches {
		q := math.Exp(rng.NormFloat64()*1.5 + 2)
		if i%10 == 0 {
			q *= 3 + rng.Float64()*5
		}
		cycle.Samples = append(cycle.Samples, domain.ForecastSample{
			ReachID:      id,
			MaxDischarge: q,
			ValidFrom:    ref,
			ValidTo:      ref.Add(18 * time.Hour),
		})
		i++
	}
	return cycle
}

// genSVIRaster produces a coarser vulnerability grid shifted off the depth
// grid's origin, with smooth spatial structure and a no-data margin.
func genSVIRaster(rng *rand.Rand, depthGrid domain.GridDef) *domain.Raster {
	grid := domain.GridDef{
		EPSG:     depthGrid.EPSG,
		OriginX:  depthGrid.OriginX - 450,
		OriginY:  depthGrid.OriginY + 450,
		CellSize: 90,
		Rows:     50,
		Cols:     50,
	}
	r := domain.NewRaster(grid)
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			if row == 0 || col == 0 {
				continue // leave a no-data margin
			}
			v := 0.5 +
				0.3*math.Sin(float64(row)/7) +
				0.2*math.Cos(float64(col)/9) +
				0.1*rng.Float64()
			r.Set(row, col, math.Min(1, math.Max(0, v)))
		}
	}
	return r
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
