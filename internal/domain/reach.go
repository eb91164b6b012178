package domain

import "fmt"

// ReachID identifies a stream reach (NWM feature_id) within a study area.
type ReachID string

// RatingPoint is one breakpoint of a synthetic rating table: the inundation
// depth expected at a given discharge.
type RatingPoint struct {
	Discharge float64 `json:"discharge"` // m³/s
	Depth     float64 `json:"depth"`     // m
}

// RatingTable maps discharge to flood depth for one reach, as an ordered list
// of breakpoints, monotonically non-decreasing in both fields.
type RatingTable []RatingPoint

// Validate checks that the table has at least two breakpoints and is
// monotonically non-decreasing in both discharge and depth.
func (rt RatingTable) Validate() error {
	if len(rt) < 2 {
		return fmt.Errorf("rating table needs at least 2 breakpoints, got %d", len(rt))
	}
	for i := 1; i < len(rt); i++ {
		if rt[i].Discharge < rt[i-1].Discharge {
			return fmt.Errorf("rating table discharge not monotonic at breakpoint %d: %g < %g",
				i, rt[i].Discharge, rt[i-1].Discharge)
		}
		if rt[i].Depth < rt[i-1].Depth {
			return fmt.Errorf("rating table depth not monotonic at breakpoint %d: %g < %g",
				i, rt[i].Depth, rt[i-1].Depth)
		}
	}
	return nil
}

// Cell addresses one pixel of a grid.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// CatchmentMask lists the cells of the study grid flooded by a reach. Masks
// of neighboring reaches may overlap along catchment boundaries.
type CatchmentMask []Cell

// Reach bundles the static, immutable per-reach inputs: the synthetic rating
// table and the catchment pixel mask. Loaded once per run and never mutated.
type Reach struct {
	ID     ReachID       `json:"id"`
	Rating RatingTable   `json:"rating"`
	Mask   CatchmentMask `json:"mask"`
}

// StaticData holds the per-run immutable lookup tables, keyed by reach. It is
// passed explicitly into the engine so concurrent cycle runs never share
// ambient state.
type StaticData struct {
	Grid    GridDef           `json:"grid"`
	Reaches map[ReachID]Reach `json:"reaches"`
}

// Validate checks the grid and every reach's rating table and mask bounds.
func (s *StaticData) Validate() error {
	if err := s.Grid.Validate(); err != nil {
		return err
	}
	if len(s.Reaches) == 0 {
		return fmt.Errorf("static data has no reaches")
	}
	for id, reach := range s.Reaches {
		if err := reach.Rating.Validate(); err != nil {
			return fmt.Errorf("reach %s: %w", id, err)
		}
		for _, c := range reach.Mask {
			if c.Row < 0 || c.Row >= s.Grid.Rows || c.Col < 0 || c.Col >= s.Grid.Cols {
				return fmt.Errorf("reach %s: mask cell (%d,%d) outside %dx%d grid",
					id, c.Row, c.Col, s.Grid.Rows, s.Grid.Cols)
			}
		}
	}
	return nil
}
