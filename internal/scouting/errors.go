package scouting

import (
	"errors"
	"fmt"
)

// ErrCycleConflict is returned when a start-class action runs while a cycle
// is still open. Catalog visibility should prevent this; the controller
// guards it regardless so a stale UI cannot corrupt the log.
var ErrCycleConflict = errors.New("an active cycle is already open")

// ErrNoActiveCycle is returned when patch/close runs with no open cycle.
var ErrNoActiveCycle = errors.New("no active cycle")

// ErrActionUnavailable is returned when an action is invoked outside its
// applicable phases or while its visibility predicate rejects it.
var ErrActionUnavailable = errors.New("action not available")

// ValidationError blocks a transition or submission with missing required
// session fields. Session state is left unchanged.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Reason)
}

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
