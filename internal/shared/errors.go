package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Capture server errors
	ErrBindFailed = fmt.Errorf("failed to bind port")
	ErrNotRunning = fmt.Errorf("no server running on port")
	ErrTimeout    = fmt.Errorf("operation timed out")

	// Authorization flow errors
	ErrAuthFailed    = fmt.Errorf("authorization failed")
	ErrStateMismatch = fmt.Errorf("state parameter mismatch")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
