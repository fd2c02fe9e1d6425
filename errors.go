package vsceval

import (
	"errors"
	"fmt"

	"github.com/vsceval/vsceval/index/capped"
	"github.com/vsceval/vsceval/metricspace"
	"github.com/vsceval/vsceval/model"
	"github.com/vsceval/vsceval/score"
)

var (
	// ErrEmptyReference is returned when a search is attempted against an
	// empty reference set.
	ErrEmptyReference = errors.New("empty reference set")

	// ErrInvalidBudget is returned for a non-positive result budget.
	ErrInvalidBudget = errors.New("invalid result budget")
)

// ErrDimensionMismatch indicates a query/reference dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrDomain indicates a violated augmentation precondition: phi smaller
// than a reference vector's squared norm.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDomain struct {
	Row   int
	Phi   float32
	Norm  float32
	cause error
}

func (e *ErrDomain) Error() string {
	return fmt.Sprintf("domain error: phi %g < squared norm %g of reference row %d", e.Phi, e.Norm, e.Row)
}

func (e *ErrDomain) Unwrap() error { return e.cause }

// ErrInvalidScore indicates a non-finite or NaN candidate score presented
// to the metric engine.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidScore struct {
	Candidate model.Candidate
	cause     error
}

func (e *ErrInvalidScore) Error() string {
	return fmt.Sprintf("invalid score %v for pair (%d, %d)",
		e.Candidate.Score, e.Candidate.QueryID, e.Candidate.RefID)
}

func (e *ErrInvalidScore) Unwrap() error { return e.cause }

// translateError normalizes component errors into the package's public kinds.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, capped.ErrEmptyReference) {
		return fmt.Errorf("%w: %w", ErrEmptyReference, err)
	}
	if errors.Is(err, capped.ErrInvalidBudget) {
		return fmt.Errorf("%w: %w", ErrInvalidBudget, err)
	}

	var dm *capped.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var de *metricspace.ErrDomain
	if errors.As(err, &de) {
		return &ErrDomain{Row: de.Row, Phi: de.Phi, Norm: de.Norm, cause: err}
	}
	var ise *score.ErrInvalidScore
	if errors.As(err, &ise) {
		return &ErrInvalidScore{Candidate: ise.Candidate, cause: err}
	}

	return err
}
