package tirta

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios
var (
	// ErrMultipleWrappers is returned when a second wrapper tries to
	// initialize a client inside a request that already has one.
	ErrMultipleWrappers = errors.New("tirta: multiple wrapper instances in one request, apply Wrap once per page hierarchy")

	// ErrNilConstructor is returned when no client constructor was supplied.
	ErrNilConstructor = errors.New("tirta: client constructor is required")

	// ErrNilRequestContext is returned when the initial-props hook is
	// invoked without a request context.
	ErrNilRequestContext = errors.New("tirta: request context is required")

	// ErrCircuitOpen is returned when the GraphQL client's breaker refuses
	// a fetch.
	ErrCircuitOpen = errors.New("tirta: circuit open")

	// ErrRateLimited is returned when an upstream fetch is denied by the
	// client-side rate limiter.
	ErrRateLimited = errors.New("tirta: rate limited")
)

// Error type identifiers carried by *Error.
const (
	// ErrorTypeConfig marks fatal misconfiguration: a missing constructor,
	// a duplicate wrapper, invalid options.
	ErrorTypeConfig = "Config"

	// ErrorTypeFetch marks a failed data resolution during the prefetch
	// pass. These are recorded and logged, never raised out of the hook.
	ErrorTypeFetch = "Fetch"

	// ErrorTypeTransport marks a network or HTTP failure in the built-in
	// GraphQL client.
	ErrorTypeTransport = "Transport"

	// ErrorTypeGraphQL marks an errors array in a GraphQL response
	// envelope.
	ErrorTypeGraphQL = "GraphQL"
)

// Error is the structured error produced by this package.
type Error struct {
	Type      string
	Message   string
	Component string
	Op        string
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Component != "" {
		msg = fmt.Sprintf("%s (component %s)", msg, e.Component)
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s (op %s)", msg, e.Op)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*Error); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// IsConfig reports whether err is a fatal configuration error: these must
// surface immediately rather than be swallowed by the best-effort fetch.
func IsConfig(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMultipleWrappers) || errors.Is(err, ErrNilConstructor) || errors.Is(err, ErrNilRequestContext) {
		return true
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrorTypeConfig
	}
	return false
}

func configError(message string, cause error) *Error {
	return &Error{Type: ErrorTypeConfig, Message: message, Cause: cause}
}

func fetchError(component string, cause error) *Error {
	return &Error{Type: ErrorTypeFetch, Message: "data resolution failed", Component: component, Cause: cause}
}
