package core

import (
	"errors"
	"fmt"
)

// Analysis errors - centralized error definitions
var (
	// Input errors
	ErrValidation   = errors.New("validation failed")
	ErrEmptyDataset = errors.New("no observations remain after exclusion")

	// Diagnostic precondition errors
	ErrDomain = errors.New("diagnostic domain violated")

	// Estimation errors
	ErrConvergence    = errors.New("model did not converge")
	ErrSingularDesign = errors.New("singular design matrix")

	// Comparison errors
	ErrNotNested = errors.New("models are not nested")
)

// ConvergenceError reports an IRLS fit that hit its iteration cap.
// It carries the last-iteration diagnostics so callers can decide how to retry.
type ConvergenceError struct {
	Model          string
	Iterations     int
	Deviance       float64
	DevianceChange float64
	Tolerance      float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%v: model %q after %d iterations (deviance %.6g, change %.3g > tolerance %.1g)",
		ErrConvergence, e.Model, e.Iterations, e.Deviance, e.DevianceChange, e.Tolerance)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrConvergence
}

// Error constructors with context
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrValidation, field, reason)
}

func NewEmptyDatasetError(total, missing, invalid int) error {
	return fmt.Errorf("%w: %d rows read, %d missing a required field, %d invalid",
		ErrEmptyDataset, total, missing, invalid)
}

func NewDomainError(predictor string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrDomain, predictor, reason)
}

func NewSingularDesignError(model string, reason string) error {
	return fmt.Errorf("%w in model %q: %s", ErrSingularDesign, model, reason)
}

func NewNotNestedError(reduced, full string, reason string) error {
	return fmt.Errorf("%w: %q is not contained in %q (%s)", ErrNotNested, reduced, full, reason)
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsFatalInputError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrEmptyDataset)
}

func IsEstimationError(err error) bool {
	return errors.Is(err, ErrConvergence) || errors.Is(err, ErrSingularDesign)
}
