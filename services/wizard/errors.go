package wizard

import (
	"errors"
	"fmt"

	"medibook/models"
)

// ErrSessionNotFound marks a missing or expired wizard session.
var ErrSessionNotFound = errors.New("wizard session not found or expired")

// GuardError rejects a transition whose guard failed: the wizard stays on its
// current stage and the caller can correct the input.
type GuardError struct {
	Stage   models.WizardStage
	Message string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func newGuardError(stage models.WizardStage, format string, args ...any) error {
	return &GuardError{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports every failing field at once so a client can
// annotate all invalid inputs in a single pass.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// TransientError wraps a failed call to an external collaborator. The
// operation can be retried without losing any wizard state.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
