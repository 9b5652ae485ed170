package apperror

import "net/http"

// AppError is a custom error type that includes an HTTP status code and an optional internal error code.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// BadRequest creates a validation error (malformed interval, span over the
// role ceiling, insufficient availability, illegal transition, ...).
func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, message)
}

// Forbidden creates an authorization error.
func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, message)
}

// NotFound creates a missing-entity error.
func NotFound(message string) *AppError {
	return New(http.StatusNotFound, message)
}

// Conflict creates a contention error. At the API boundary it reads as a
// validation failure; internally it usually means the storage layer detected
// a capacity race.
func Conflict(message string) *AppError {
	return New(http.StatusConflict, message)
}
