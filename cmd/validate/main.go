// Command validate performs offline integrity checks on the fusion service's
// static inputs: the engine YAML configuration, the reach catalog, and the
// SVI raster. It verifies threshold ordering, rating table monotonicity, mask
// bounds, grid compatibility, and extent overlap, and reports per-phase
// pass/fail before the service ever runs a cycle.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -engine-config config/engine.yaml \
//	  -catalog testdata/reach_catalog.json \
//	  -svi testdata/svi_raster.json
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/flood-risk-fusion/internal/adapter/catalog"
	"github.com/couchcryptid/flood-risk-fusion/internal/adapter/svi"
	"github.com/couchcryptid/flood-risk-fusion/internal/config"
	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
	"github.com/couchcryptid/flood-risk-fusion/internal/fusion"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	engineConfig := flag.String("engine-config", "", "path to the engine YAML configuration")
	catalogPath := flag.String("catalog", "", "path to the reach catalog JSON")
	sviPath := flag.String("svi", "", "path to the SVI raster JSON")
	flag.Parse()

	if *engineConfig == "" || *catalogPath == "" || *sviPath == "" {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "missing required flags: -engine-config, -catalog, -svi")
		os.Exit(2)
	}

	phases := []*phase{
		checkEngineConfig(*engineConfig),
		checkCatalog(*catalogPath),
		checkSVI(*sviPath, *catalogPath),
	}

	failed := false
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS %s\n", p.name)
			continue
		}
		failed = true
		fmt.Printf("FAIL %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("     %s\n", e)
		}
	}
	if failed {
		os.Exit(1)
	}
}

func checkEngineConfig(path string) *phase {
	p := &phase{name: "engine config"}
	cfg, err := config.LoadEngineConfig(path)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	if cfg.TargetGrid == nil {
		fmt.Println("note: no target grid pinned, alignment will derive one from extent intersection")
	}
	return p
}

func checkCatalog(path string) *phase {
	p := &phase{name: "reach catalog"}
	static, err := catalog.Load(path)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	for id, reach := range static.Reaches {
		if len(reach.Mask) == 0 {
			p.errorf("reach %s has an empty catchment mask", id)
		}
	}
	return p
}

func checkSVI(sviPath, catalogPath string) *phase {
	p := &phase{name: "svi raster"}
	vuln, err := svi.LoadRaster(sviPath)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	if vuln.AllNoData() {
		p.errorf("svi raster holds no valid cells")
	}

	static, err := catalog.Load(catalogPath)
	if err != nil {
		return p // already reported by the catalog phase
	}
	if static.Grid.EPSG != vuln.Grid.EPSG {
		p.errorf("CRS mismatch: catalog EPSG:%d vs svi EPSG:%d: %v",
			static.Grid.EPSG, vuln.Grid.EPSG, domain.ErrIncompatibleCRS)
	}
	if _, ok := static.Grid.Extent().Intersect(vuln.Grid.Extent()); !ok {
		p.errorf("catalog and svi extents do not overlap: %v", domain.ErrDisjointExtents)
	}

	// Quantile tiering needs enough distinct values to produce real breaks.
	if _, err := fusion.QuantileBreaks(vuln, 4, 0); err != nil {
		p.errorf("quantile check: %v", err)
	}
	return p
}
