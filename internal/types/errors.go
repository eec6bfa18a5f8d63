package types

import (
	"errors"
	"fmt"
)

// Terminal error kinds of a planning run. Callers match with errors.Is;
// wrapped messages carry the violated detail.
var (
	// ErrResolution: the whole coordinate batch failed. Individual name
	// failures are absorbed by the resolver and never reach callers.
	ErrResolution = errors.New("coordinate resolution failed")

	// ErrFormat: structured output could not be recovered from the
	// reasoning component after the bounded repair attempts.
	ErrFormat = errors.New("structured output unrecoverable")

	// ErrInsufficientData: fewer viable candidates than required after
	// relaxation (extra pages, fallbacks) was exhausted.
	ErrInsufficientData = errors.New("insufficient candidates")

	// ErrValidation: the plan still violates a hard invariant after the
	// bounded repair attempts.
	ErrValidation = errors.New("plan validation failed")

	// ErrProvider: an external call failed at the transport level.
	ErrProvider = errors.New("provider call failed")
)

// StageError marks which pipeline stage terminated the run. The wrapped
// error keeps its kind, so errors.Is(err, ErrValidation) still matches.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailStage wraps err with the stage it happened in.
func FailStage(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// StageOf reports the failed stage name, or "" when err carries none.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
