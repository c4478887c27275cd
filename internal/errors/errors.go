// Package errors provides the bot's error taxonomy: sentinel errors for the
// failure classes handlers care about and typed errors carrying the details
// needed to render a reply.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is() to check these errors in your code.
var (
	// ErrInvalidInput indicates malformed command arguments.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamUnavailable indicates the remote API timed out or answered 5xx.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNotFoundInSchema indicates the path/method is not documented by the cached spec.
	ErrNotFoundInSchema = errors.New("not found in schema")

	// ErrTransport indicates the chat transport call itself failed.
	ErrTransport = errors.New("transport failure")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")
)

// IsInvalidInput reports whether err is a user input error.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsUpstreamUnavailable reports whether err is an upstream availability error.
func IsUpstreamUnavailable(err error) bool { return errors.Is(err, ErrUpstreamUnavailable) }

// IsNotFoundInSchema reports whether err is a schema lookup miss.
func IsNotFoundInSchema(err error) bool { return errors.Is(err, ErrNotFoundInSchema) }

// IsTransport reports whether err came from the chat transport.
func IsTransport(err error) bool { return errors.Is(err, ErrTransport) }

// UpstreamError represents a failed request to a remote API.
type UpstreamError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream error (url=%s, status=%d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream error (url=%s): %v", e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrUpstreamUnavailable for server-side failures.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable && (e.StatusCode == 0 || e.StatusCode >= 500)
}

// NewUpstreamError creates a new upstream error.
func NewUpstreamError(url string, statusCode int, err error) *UpstreamError {
	return &UpstreamError{URL: url, StatusCode: statusCode, Err: err}
}

// NotFoundError describes a path that the cached spec does not document.
type NotFoundError struct {
	Method  string
	Path    string
	Version string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("failed to find %s %s in the %s ESI spec", e.Method, e.Path, e.Version)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFoundInSchema
}

// UserError pairs an internal cause with the text shown in the channel.
type UserError struct {
	Message string
	Cause   error
}

func (e *UserError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *UserError) Unwrap() error {
	if e.Cause == nil {
		return ErrInvalidInput
	}
	return e.Cause
}

// NewUserError creates an error with a user-facing message.
func NewUserError(message string, cause error) *UserError {
	return &UserError{Message: message, Cause: cause}
}

// UserMessage returns the text to show for err. NotFoundError and UserError
// carry their own wording; everything else falls back to err.Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Message
	}
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return notFound.Error()
	}
	return err.Error()
}
