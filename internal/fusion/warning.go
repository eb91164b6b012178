package fusion

import (
	"fmt"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

// Warning codes for per-pixel and per-reach anomalies that are resolved
// locally by policy rather than aborting the cycle.
const (
	// WarnExtrapolatedHigh flags a depth extrapolated beyond the highest
	// rating breakpoint at the last segment's slope.
	WarnExtrapolatedHigh = "extrapolated-high"

	// WarnNegativeDischarge flags a negative forecast discharge resolved to
	// zero depth.
	WarnNegativeDischarge = "negative-discharge"

	// WarnOverlapResolved flags pixels claimed by multiple catchment masks,
	// resolved to the maximum depth.
	WarnOverlapResolved = "overlap-resolved"
)

// Warning records one recovered anomaly for the cycle's summary statistics.
// One bad pixel never discards an otherwise valid map.
type Warning struct {
	Code   string         `json:"code"`
	Reach  domain.ReachID `json:"reach,omitempty"`
	Detail string         `json:"detail,omitempty"`
}

func (w Warning) String() string {
	if w.Reach != "" {
		return fmt.Sprintf("%s reach=%s %s", w.Code, w.Reach, w.Detail)
	}
	return fmt.Sprintf("%s %s", w.Code, w.Detail)
}
