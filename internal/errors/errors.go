// Package errors defines the error taxonomy shared by the control-plane
// client, the identity provider client and the CLI.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Client-side preconditions.
var (
	ErrDeviceNotAuthenticated = errors.New("this device is not authenticated")
	ErrCannotBuildRequest     = errors.New("cannot build request")
)

// Control-plane and identity provider outcomes.
var (
	ErrMachineNotStarted      = errors.New("machine is not started")
	ErrCannotProcessResponse  = errors.New("cannot process response")
	ErrAuthorizationExhausted = errors.New("device authorization was not approved in time")
)

// FetchError wraps any transport or HTTP failure. StatusCode is zero when
// the request never produced a response (DNS, timeout, connection reset).
type FetchError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil && e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Body != "":
		return fmt.Sprintf("%s returned status %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s returned status %d", e.Op, e.StatusCode)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// ResponseError reports a response that parsed but lacked an expected
// field, or did not parse at all.
type ResponseError struct {
	Field  string
	Reason string
}

func (e *ResponseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrCannotProcessResponse, e.Reason)
	}

	return fmt.Sprintf("%s: %s %s", ErrCannotProcessResponse, e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrCannotProcessResponse) match any ResponseError.
func (e *ResponseError) Is(target error) bool { return target == ErrCannotProcessResponse }

// ValidationError reports bad command-line input. It is always raised
// before any network call.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}

	return fmt.Sprintf("invalid %s `%s`: %s", e.Field, e.Value, e.Reason)
}

// Invalid is shorthand for constructing a ValidationError.
func Invalid(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// Kind is the discriminant of the taxonomy.
type Kind int

const (
	KindUnknown Kind = iota
	KindDeviceNotAuthenticated
	KindMachineNotStarted
	KindFetch
	KindCannotProcessResponse
	KindValidation
	KindCannotBuildRequest
	KindAuthorizationExhausted
)

func (k Kind) String() string {
	switch k {
	case KindDeviceNotAuthenticated:
		return "device_not_authenticated"
	case KindMachineNotStarted:
		return "machine_not_started"
	case KindFetch:
		return "fetch"
	case KindCannotProcessResponse:
		return "cannot_process_response"
	case KindValidation:
		return "validation"
	case KindCannotBuildRequest:
		return "cannot_build_request"
	case KindAuthorizationExhausted:
		return "authorization_exhausted"
	}

	return "unknown"
}

// KindOf classifies err. Sentinels are checked before FetchError so that
// a wrapped ErrMachineNotStarted is never reported as a plain fetch failure.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var (
		fe *FetchError
		ve *ValidationError
	)

	switch {
	case errors.Is(err, ErrDeviceNotAuthenticated):
		return KindDeviceNotAuthenticated
	case errors.Is(err, ErrMachineNotStarted):
		return KindMachineNotStarted
	case errors.Is(err, ErrAuthorizationExhausted):
		return KindAuthorizationExhausted
	case errors.Is(err, ErrCannotProcessResponse):
		return KindCannotProcessResponse
	case errors.Is(err, ErrCannotBuildRequest):
		return KindCannotBuildRequest
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &fe):
		return KindFetch
	}

	return KindUnknown
}

// IsStatus reports whether err carries an HTTP response with the given status.
func IsStatus(err error, code int) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.StatusCode == code
}

// Hint returns a recovery suggestion for err, or "" when there is none.
func Hint(err error) string {
	switch KindOf(err) {
	case KindDeviceNotAuthenticated:
		return "Hint: Use `build device authenticate` command first."
	case KindMachineNotStarted:
		return "Hint: Start machine first with `build machine start` command."
	case KindAuthorizationExhausted:
		return "Hint: Run `build device authenticate` again and approve the device in time."
	case KindCannotBuildRequest:
		return "Hint: Use `build device authenticate` to obtain a refresh token."
	case KindFetch:
		if IsStatus(err, http.StatusUnauthorized) {
			return "Hint: The access token was rejected. Run `build device refresh` or `build device authenticate`."
		}
	}

	return ""
}
