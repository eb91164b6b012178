package fusion

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

// RiskRaster is the fused output: ordinal risk classes plus per-pixel
// provenance recording which severity and vulnerability tier produced each
// class. All three layers share Grid.
type RiskRaster struct {
	Grid              domain.GridDef `json:"grid"`
	Classes           []int16        `json:"classes"`
	SeverityTier      []int16        `json:"severity_tier"`
	VulnerabilityTier []int16        `json:"vulnerability_tier"`
}

// ClassStat counts the pixels and ground area covered by one risk class.
type ClassStat struct {
	Class  int16   `json:"class"`
	Pixels int     `json:"pixels"`
	Area   float64 `json:"area"` // squared projection units
}

// QuantileBreaks computes the quantile breakpoints of a raster's valid values
// for the requested tier count, numpy-style linear interpolation between
// order statistics. Breakpoints need the global value distribution, so this
// is a synchronization point: the scan shards across workers and the partial
// collections combine before the breaks are finalized. Ties at boundaries
// collapse, so fewer than tiers-1 breaks may come back.
func QuantileBreaks(r *domain.Raster, tiers, workers int) ([]float64, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	shards := make([][]float64, workers)
	var g errgroup.Group
	chunk := (len(r.Cells) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(r.Cells))
		if lo >= hi {
			break
		}
		g.Go(func() error {
			vals := make([]float64, 0, hi-lo)
			for _, v := range r.Cells[lo:hi] {
				if !domain.IsNoData(v) {
					vals = append(vals, v)
				}
			}
			shards[w] = vals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var vals []float64
	for _, s := range shards {
		vals = append(vals, s...)
	}
	if len(vals) == 0 {
		return nil, domain.ErrEmptyInput
	}
	sort.Float64s(vals)

	breaks := make([]float64, 0, tiers-1)
	n := len(vals)
	for i := 1; i < tiers; i++ {
		pos := float64(i) / float64(tiers) * float64(n-1)
		lo := int(pos)
		frac := pos - float64(lo)
		b := vals[lo]
		if lo+1 < n {
			b += frac * (vals[lo+1] - vals[lo])
		}
		// Equal quantiles collapse into one break; every value must map to
		// exactly one tier.
		if len(breaks) == 0 || b > breaks[len(breaks)-1] {
			breaks = append(breaks, b)
		}
	}
	return breaks, nil
}

// tierOf buckets v into the tier whose upper break is the first one ≥ v
// (right-closed intervals). Values above every break land in the top tier.
func tierOf(v float64, breaks []float64) int16 {
	for i, b := range breaks {
		if v <= b {
			return int16(i)
		}
	}
	return int16(len(breaks))
}

// Fuse combines an aligned severity/vulnerability pair into the joint risk
// raster. The joint class is severity-tier × vulnerability-tier-count +
// vulnerability-tier, optionally collapsed by the configured monotonic
// mapping, so risk never decreases when either input tier rises. No-data in
// either input propagates to no-data output, never lowest risk.
func Fuse(pair AlignedPair, breaks []float64, cfg Config) (*RiskRaster, []ClassStat, error) {
	const stage = "fuse"
	tiers := int16(cfg.VulnerabilityTiers)

	out := &RiskRaster{
		Grid:              pair.Grid,
		Classes:           make([]int16, pair.Grid.NumCells()),
		SeverityTier:      make([]int16, pair.Grid.NumCells()),
		VulnerabilityTier: make([]int16, pair.Grid.NumCells()),
	}

	counts := make(map[int16]int)
	valid := 0
	for i := range out.Classes {
		sev := pair.Severity.Cells[i]
		v := pair.Vulnerability.Cells[i]
		if sev == domain.ClassNoData || domain.IsNoData(v) {
			out.Classes[i] = domain.ClassNoData
			out.SeverityTier[i] = domain.ClassNoData
			out.VulnerabilityTier[i] = domain.ClassNoData
			continue
		}
		vt := tierOf(v, breaks)
		class := sev*tiers + vt
		if len(cfg.CollapseMap) > 0 {
			class = cfg.CollapseMap[class]
		}
		out.Classes[i] = class
		out.SeverityTier[i] = sev
		out.VulnerabilityTier[i] = vt
		counts[class]++
		valid++
	}

	if valid == 0 {
		return nil, nil, domain.NewStageError(stage, "aligned pair", domain.ErrEmptyInput)
	}

	area := pair.Grid.CellArea()
	stats := make([]ClassStat, 0, len(counts))
	for class, n := range counts {
		stats = append(stats, ClassStat{Class: class, Pixels: n, Area: float64(n) * area})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Class < stats[j].Class })
	return out, stats, nil
}
