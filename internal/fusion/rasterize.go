package fusion

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

// RasterizeDepths paints each reach's resolved depth onto the study grid over
// its catchment mask. Pixels outside every mask stay no-data. Overlapping
// masks resolve to the maximum depth, a commutative and associative reduction,
// so rasterization shards by reach and merge order does not matter.
func RasterizeDepths(static *domain.StaticData, depths map[domain.ReachID]ResolvedDepth, workers int) (*domain.Raster, []Warning) {
	ids := make([]domain.ReachID, 0, len(depths))
	for id := range depths {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(ids) {
		workers = len(ids)
	}
	if workers == 0 {
		return domain.NewRaster(static.Grid), nil
	}

	type partial struct {
		raster *domain.Raster
		claims []int32
	}
	partials := make([]partial, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			p := partial{
				raster: domain.NewRaster(static.Grid),
				claims: make([]int32, static.Grid.NumCells()),
			}
			for i := w; i < len(ids); i += workers {
				d := depths[ids[i]]
				for _, c := range static.Reaches[ids[i]].Mask {
					idx := c.Row*static.Grid.Cols + c.Col
					p.claims[idx]++
					if cur := p.raster.Cells[idx]; domain.IsNoData(cur) || d.Depth > cur {
						p.raster.Cells[idx] = d.Depth
					}
				}
			}
			partials[w] = p
		}(w)
	}
	wg.Wait()

	out := partials[0].raster
	claims := partials[0].claims
	for _, p := range partials[1:] {
		for idx, v := range p.raster.Cells {
			if domain.IsNoData(v) {
				continue
			}
			if cur := out.Cells[idx]; domain.IsNoData(cur) || v > cur {
				out.Cells[idx] = v
			}
		}
		for idx, n := range p.claims {
			claims[idx] += n
		}
	}

	overlapped := 0
	for _, n := range claims {
		if n > 1 {
			overlapped++
		}
	}

	var warnings []Warning
	if overlapped > 0 {
		warnings = append(warnings, Warning{
			Code:   WarnOverlapResolved,
			Detail: fmt.Sprintf("%d pixels claimed by multiple catchments, kept maximum depth", overlapped),
		})
	}
	return out, warnings
}
