package domain

import (
	"errors"
	"fmt"
)

// Cycle-aborting error conditions. Configuration and schema errors abort the
// whole cycle; per-pixel anomalies are resolved locally and surfaced as
// warnings instead (see fusion.Warning).
var (
	// ErrUnknownReach means a forecast sample names a reach with no rating
	// table or mask in the static data.
	ErrUnknownReach = errors.New("unknown reach")

	// ErrInvalidRatingTable means a rating table's breakpoints are not
	// monotonically non-decreasing.
	ErrInvalidRatingTable = errors.New("invalid rating table")

	// ErrDuplicateReach means one forecast cycle carries two samples for the
	// same reach.
	ErrDuplicateReach = errors.New("duplicate reach in cycle")

	// ErrMissingConfiguration means a required engine setting (severity
	// thresholds, quantile count) is absent. There are no silent defaults.
	ErrMissingConfiguration = errors.New("missing configuration")

	// ErrDisjointExtents means the two rasters to align share no ground area.
	ErrDisjointExtents = errors.New("disjoint extents")

	// ErrIncompatibleCRS means reprojection parameters between the two
	// rasters' coordinate systems cannot be resolved.
	ErrIncompatibleCRS = errors.New("incompatible CRS")

	// ErrEmptyInput means the cycle has zero samples or an input raster holds
	// no valid cells at all.
	ErrEmptyInput = errors.New("empty input")
)

// StageError attributes a cycle abort to the pipeline stage and offending key
// (reach or raster identifier) that produced it.
type StageError struct {
	Stage string
	Key   string
	Err   error
}

func (e *StageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Key, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err with stage and key attribution.
func NewStageError(stage, key string, err error) *StageError {
	return &StageError{Stage: stage, Key: key, Err: err}
}
