package capture

import (
	"fmt"

	"github.com/desertthunder/loopback/internal/shared"
)

// BindError reports that no port could be bound for a new session.
//
// Candidates holds the exhausted candidate list; it is empty when the OS
// refused to allocate an ephemeral port.
type BindError struct {
	Candidates []int
	Err        error
}

func (e *BindError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("%v: no ephemeral port available: %v", shared.ErrBindFailed, e.Err)
	}
	return fmt.Sprintf("%v: exhausted candidates %v", shared.ErrBindFailed, e.Candidates)
}

func (e *BindError) Unwrap() []error {
	errs := []error{shared.ErrBindFailed}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NotRunningError reports a cancel call for a port with no active session.
type NotRunningError struct {
	Port int
}

func (e *NotRunningError) Error() string {
	return fmt.Sprintf("%v %d", shared.ErrNotRunning, e.Port)
}

func (e *NotRunningError) Unwrap() error { return shared.ErrNotRunning }
