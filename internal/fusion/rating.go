package fusion

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

// ResolvedDepth is the outcome of rating-curve resolution for one reach.
type ResolvedDepth struct {
	Reach        domain.ReachID `json:"reach"`
	Depth        float64        `json:"depth"` // m
	Extrapolated bool           `json:"extrapolated,omitempty"`
}

// ResolveDepth converts a discharge to a flood depth via linear interpolation
// on the reach's rating table. Below the lowest breakpoint the depth is zero
// (no extrapolation downward). Above the highest breakpoint the depth is
// extrapolated at the last segment's slope and flagged, never clipped:
// underestimating an extreme event is worse than an approximate overestimate.
func ResolveDepth(rt domain.RatingTable, discharge float64) (depth float64, extrapolated bool, err error) {
	if err := rt.Validate(); err != nil {
		return 0, false, fmt.Errorf("%w: %v", domain.ErrInvalidRatingTable, err)
	}

	if discharge < rt[0].Discharge {
		return 0, false, nil
	}

	last := len(rt) - 1
	if discharge > rt[last].Discharge {
		prev := rt[last-1]
		dq := rt[last].Discharge - prev.Discharge
		slope := 0.0
		if dq > 0 {
			slope = (rt[last].Depth - prev.Depth) / dq
		}
		return rt[last].Depth + slope*(discharge-rt[last].Discharge), true, nil
	}

	for i := 0; i < last; i++ {
		lo, hi := rt[i], rt[i+1]
		if discharge > hi.Discharge {
			continue
		}
		if hi.Discharge == lo.Discharge {
			// Vertical step in the table: take the deeper value.
			return hi.Depth, false, nil
		}
		frac := (discharge - lo.Discharge) / (hi.Discharge - lo.Discharge)
		return lo.Depth + frac*(hi.Depth-lo.Depth), false, nil
	}
	return rt[last].Depth, false, nil
}

// ResolveCycle resolves every sample of a forecast cycle against the static
// rating tables. Resolution is independent per reach and fans out across
// workers. Duplicate reaches and unknown reaches abort the cycle; negative
// discharges resolve to zero depth with a warning.
func ResolveCycle(static *domain.StaticData, cycle domain.ForecastCycle, workers int) (map[domain.ReachID]ResolvedDepth, []Warning, error) {
	const stage = "rating"

	if len(cycle.Samples) == 0 {
		return nil, nil, domain.NewStageError(stage, cycle.ID, domain.ErrEmptyInput)
	}

	seen := make(map[domain.ReachID]struct{}, len(cycle.Samples))
	for _, s := range cycle.Samples {
		if _, dup := seen[s.ReachID]; dup {
			return nil, nil, domain.NewStageError(stage, string(s.ReachID), domain.ErrDuplicateReach)
		}
		seen[s.ReachID] = struct{}{}
		if _, ok := static.Reaches[s.ReachID]; !ok {
			return nil, nil, domain.NewStageError(stage, string(s.ReachID), domain.ErrUnknownReach)
		}
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(cycle.Samples) {
		workers = len(cycle.Samples)
	}

	results := make([]ResolvedDepth, len(cycle.Samples))
	shardWarns := make([][]Warning, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(cycle.Samples); i += workers {
				s := cycle.Samples[i]
				reach := static.Reaches[s.ReachID]

				q := s.MaxDischarge
				if q < 0 {
					shardWarns[w] = append(shardWarns[w], Warning{
						Code:   WarnNegativeDischarge,
						Reach:  s.ReachID,
						Detail: fmt.Sprintf("discharge %g treated as no flow", q),
					})
					results[i] = ResolvedDepth{Reach: s.ReachID}
					continue
				}

				depth, extrapolated, err := ResolveDepth(reach.Rating, q)
				if err != nil {
					errs[w] = domain.NewStageError(stage, string(s.ReachID), err)
					return
				}
				if extrapolated {
					shardWarns[w] = append(shardWarns[w], Warning{
						Code:   WarnExtrapolatedHigh,
						Reach:  s.ReachID,
						Detail: fmt.Sprintf("discharge %g above rating range, depth %.3f", q, depth),
					})
				}
				results[i] = ResolvedDepth{Reach: s.ReachID, Depth: depth, Extrapolated: extrapolated}
			}
		}(w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}

	depths := make(map[domain.ReachID]ResolvedDepth, len(results))
	var warnings []Warning
	for _, r := range results {
		depths[r.Reach] = r
	}
	for _, ws := range shardWarns {
		warnings = append(warnings, ws...)
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Reach < warnings[j].Reach })
	return depths, warnings, nil
}
