package domain

import "time"

// ForecastSample is one reach's maximum forecast discharge for a cycle.
type ForecastSample struct {
	ReachID      ReachID   `json:"reach_id"`
	MaxDischarge float64   `json:"max_discharge"` // m³/s
	ValidFrom    time.Time `json:"valid_from"`
	ValidTo      time.Time `json:"valid_to"`
}

// ForecastCycle is one batch of forecast samples: at most one sample per
// reach, all sharing a reference time. The engine processes one cycle at a
// time and keeps no state between cycles.
type ForecastCycle struct {
	ID            string           `json:"id"`
	ReferenceTime time.Time        `json:"reference_time"`
	Samples       []ForecastSample `json:"samples"`
}
