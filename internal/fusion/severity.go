package fusion

import (
	"sort"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

// severityClasses is the fixed number of depth severity tiers.
const severityClasses = 4

// Severity tier values produced by ClassifySeverity.
const (
	SeverityNone     int16 = 0 // none/low: d ≤ moderate threshold (incl. dry)
	SeverityModerate int16 = 1
	SeverityHigh     int16 = 2
	SeverityVeryHigh int16 = 3
)

// ClassifySeverity buckets a depth raster into the 4 ordinal severity tiers
// using the configured thresholds. No-data pixels stay no-data, never tier 0:
// "outside the model" and "dry ground" are different facts.
func ClassifySeverity(depth *domain.Raster, th SeverityThresholds) *domain.ClassRaster {
	out := domain.NewClassRaster(depth.Grid)
	for i, d := range depth.Cells {
		if domain.IsNoData(d) {
			continue
		}
		out.Cells[i] = severityTier(d, th)
	}
	return out
}

func severityTier(depth float64, th SeverityThresholds) int16 {
	switch {
	case depth <= th.Moderate:
		return SeverityNone
	case depth <= th.High:
		return SeverityModerate
	case depth <= th.VeryHigh:
		return SeverityHigh
	default:
		return SeverityVeryHigh
	}
}

// PriorityReaches lists the reaches whose resolved depth exceeded the highest
// severity threshold, sorted by ID. These are the emergency-priority
// candidates in the cycle's summary statistics.
func PriorityReaches(depths map[domain.ReachID]ResolvedDepth, th SeverityThresholds) []domain.ReachID {
	var out []domain.ReachID
	for id, d := range depths {
		if d.Depth > th.VeryHigh {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
