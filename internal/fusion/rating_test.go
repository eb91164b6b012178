package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-risk-fusion/internal/domain"
)

func testRating() domain.RatingTable {
	return domain.RatingTable{
		{Discharge: 0, Depth: 0.0},
		{Discharge: 100, Depth: 1.0},
		{Discharge: 200, Depth: 3.0},
	}
}

func TestResolveDepth(t *testing.T) {
	t.Run("linear interpolation between breakpoints", func(t *testing.T) {
		depth, extrapolated, err := ResolveDepth(testRating(), 150)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, depth, 1e-12)
		assert.False(t, extrapolated)
	})

	t.Run("exact breakpoint", func(t *testing.T) {
		depth, extrapolated, err := ResolveDepth(testRating(), 100)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, depth, 1e-12)
		assert.False(t, extrapolated)
	})

	t.Run("above range extrapolates at last segment slope", func(t *testing.T) {
		// Last segment slope is 2.0 depth per 100 discharge.
		depth, extrapolated, err := ResolveDepth(testRating(), 250)
		require.NoError(t, err)
		assert.InDelta(t, 4.0, depth, 1e-12)
		assert.True(t, extrapolated)
	})

	t.Run("below range is zero, not extrapolated", func(t *testing.T) {
		rt := domain.RatingTable{
			{Discharge: 50, Depth: 0.5},
			{Discharge: 100, Depth: 1.0},
		}
		depth, extrapolated, err := ResolveDepth(rt, 10)
		require.NoError(t, err)
		assert.Zero(t, depth)
		assert.False(t, extrapolated)
	})

	t.Run("non-monotonic discharge rejected", func(t *testing.T) {
		rt := domain.RatingTable{
			{Discharge: 100, Depth: 1.0},
			{Discharge: 50, Depth: 2.0},
		}
		_, _, err := ResolveDepth(rt, 75)
		assert.ErrorIs(t, err, domain.ErrInvalidRatingTable)
	})

	t.Run("non-monotonic depth rejected", func(t *testing.T) {
		rt := domain.RatingTable{
			{Discharge: 50, Depth: 2.0},
			{Discharge: 100, Depth: 1.0},
		}
		_, _, err := ResolveDepth(rt, 75)
		assert.ErrorIs(t, err, domain.ErrInvalidRatingTable)
	})

	t.Run("single breakpoint rejected", func(t *testing.T) {
		_, _, err := ResolveDepth(domain.RatingTable{{Discharge: 50, Depth: 1}}, 75)
		assert.ErrorIs(t, err, domain.ErrInvalidRatingTable)
	})
}

func staticWith(reaches ...domain.Reach) *domain.StaticData {
	m := make(map[domain.ReachID]domain.Reach, len(reaches))
	for _, r := range reaches {
		m[r.ID] = r
	}
	return &domain.StaticData{
		Grid:    domain.GridDef{EPSG: 5070, OriginX: 0, OriginY: 300, CellSize: 30, Rows: 10, Cols: 10},
		Reaches: m,
	}
}

func TestResolveCycle(t *testing.T) {
	static := staticWith(
		domain.Reach{ID: "r1", Rating: testRating(), Mask: domain.CatchmentMask{{Row: 0, Col: 0}}},
		domain.Reach{ID: "r2", Rating: testRating(), Mask: domain.CatchmentMask{{Row: 1, Col: 1}}},
	)

	t.Run("resolves all samples", func(t *testing.T) {
		cycle := domain.ForecastCycle{ID: "c1", Samples: []domain.ForecastSample{
			{ReachID: "r1", MaxDischarge: 150},
			{ReachID: "r2", MaxDischarge: 250},
		}}
		depths, warnings, err := ResolveCycle(static, cycle, 2)
		require.NoError(t, err)

		assert.InDelta(t, 2.0, depths["r1"].Depth, 1e-12)
		assert.False(t, depths["r1"].Extrapolated)
		assert.InDelta(t, 4.0, depths["r2"].Depth, 1e-12)
		assert.True(t, depths["r2"].Extrapolated)

		require.Len(t, warnings, 1)
		assert.Equal(t, WarnExtrapolatedHigh, warnings[0].Code)
		assert.Equal(t, domain.ReachID("r2"), warnings[0].Reach)
	})

	t.Run("negative discharge resolves to zero with warning", func(t *testing.T) {
		cycle := domain.ForecastCycle{ID: "c1", Samples: []domain.ForecastSample{
			{ReachID: "r1", MaxDischarge: -10},
		}}
		depths, warnings, err := ResolveCycle(static, cycle, 1)
		require.NoError(t, err)
		assert.Zero(t, depths["r1"].Depth)
		require.Len(t, warnings, 1)
		assert.Equal(t, WarnNegativeDischarge, warnings[0].Code)
	})

	t.Run("duplicate reach aborts the cycle", func(t *testing.T) {
		cycle := domain.ForecastCycle{ID: "c1", Samples: []domain.ForecastSample{
			{ReachID: "r1", MaxDischarge: 10},
			{ReachID: "r1", MaxDischarge: 20},
		}}
		_, _, err := ResolveCycle(static, cycle, 1)
		require.ErrorIs(t, err, domain.ErrDuplicateReach)

		var stageErr *domain.StageError
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, "rating", stageErr.Stage)
		assert.Equal(t, "r1", stageErr.Key)
	})

	t.Run("unknown reach aborts the cycle", func(t *testing.T) {
		cycle := domain.ForecastCycle{ID: "c1", Samples: []domain.ForecastSample{
			{ReachID: "missing", MaxDischarge: 10},
		}}
		_, _, err := ResolveCycle(static, cycle, 1)
		assert.ErrorIs(t, err, domain.ErrUnknownReach)
	})

	t.Run("empty cycle rejected", func(t *testing.T) {
		_, _, err := ResolveCycle(static, domain.ForecastCycle{ID: "c1"}, 1)
		assert.ErrorIs(t, err, domain.ErrEmptyInput)
	})
}
