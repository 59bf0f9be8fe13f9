package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// Narrower errors wrap their family so callers can match either level
// with errors.Is (e.g. ErrTimeout is also an ErrExternalCall).
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInput indicates a missing or invalid source file or argument.
	// Input errors are fatal and never retried.
	ErrInput = errors.New("invalid input")

	// ErrExtraction indicates the PDF could not be opened or produced no text.
	ErrExtraction = fmt.Errorf("extraction failed: %w", ErrInput)

	// ErrEmptyContent indicates no content-bearing blocks were available to synthesise.
	ErrEmptyContent = errors.New("no content-bearing text")

	// External Call Errors.

	// ErrExternalCall indicates the oracle or recognition capability failed.
	ErrExternalCall = errors.New("external call failed")

	// ErrUnavailable indicates the external capability could not be reached.
	ErrUnavailable = fmt.Errorf("service unavailable: %w", ErrExternalCall)

	// ErrTimeout indicates the external call exceeded its deadline.
	ErrTimeout = fmt.Errorf("timed out: %w", ErrExternalCall)

	// Format Errors.

	// ErrFormat indicates oracle output could not be parsed into the expected shape.
	ErrFormat = errors.New("unexpected output format")

	// ErrArtifactFormat indicates a generated artifact contained no valid bracketed list.
	ErrArtifactFormat = fmt.Errorf("artifact format: %w", ErrFormat)

	// Store Errors.

	// ErrStore indicates a record-store write or read failed.
	ErrStore = errors.New("store error")

	// ErrStoreUnavailable indicates the record store could not be reached.
	ErrStoreUnavailable = fmt.Errorf("store unavailable: %w", ErrStore)

	// Pipeline Errors.

	// ErrInvalidTransition indicates a status change not permitted by the state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrValidationGate indicates a stage's declared output is missing or empty.
	ErrValidationGate = errors.New("stage output missing or empty")

	// ErrStagePanic indicates a stage panicked and was recovered by its supervisor.
	ErrStagePanic = errors.New("stage panicked")
)

// StageError attributes a failure to the pipeline stage that produced it.
type StageError struct {
	// Stage is the name of the failing stage.
	Stage string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with the stage name. Returns nil when err is nil.
func NewStageError(stage string, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) && se.Stage == stage {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}
