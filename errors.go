package promptivd

import "fmt"

// ErrorKind is the taxonomy of failures visible at the HTTP boundary.
type ErrorKind string

const (
	ErrInvalidRequest         ErrorKind = "invalid_request"
	ErrPayloadTooLarge        ErrorKind = "payload_too_large"
	ErrNoSink                 ErrorKind = "no_sink"
	ErrDispatchTimeout        ErrorKind = "dispatch_timeout"
	ErrSinkNack               ErrorKind = "sink_nack"
	ErrSinkRegistrationFailed ErrorKind = "sink_registration_failed"
	ErrSerialization          ErrorKind = "serialization"
	ErrRateLimited            ErrorKind = "rate_limited"
)

// AppError is the error type returned from dispatch and ingress code. It
// carries enough information for the HTTP layer to pick a status code and
// response body without re-deriving the failure reason.
type AppError struct {
	Kind      ErrorKind
	Message   string
	TimeoutMS int64
}

func (e *AppError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewAppError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// DispatchTimeoutError builds the dispatch_timeout error with its
// characteristic message shape ("Job dispatch timeout after Nms").
func DispatchTimeoutError(timeoutMS int64) *AppError {
	return &AppError{
		Kind:      ErrDispatchTimeout,
		Message:   fmt.Sprintf("Job dispatch timeout after %dms", timeoutMS),
		TimeoutMS: timeoutMS,
	}
}
