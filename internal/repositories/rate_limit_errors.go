package repositories

import "fmt"

// RateLimitErrorCode enumerates failure reasons for rate limit operations.
type RateLimitErrorCode string

const (
	// RateLimitErrorInvalidInput indicates the caller supplied invalid arguments.
	RateLimitErrorInvalidInput RateLimitErrorCode = "rate_limit_invalid_input"
	// RateLimitErrorCorrupt indicates a stored counter could not be decoded.
	RateLimitErrorCorrupt RateLimitErrorCode = "rate_limit_corrupt"
)

// RateLimitError wraps rate limit failures with machine readable codes.
type RateLimitError struct {
	Op      string
	Code    RateLimitErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *RateLimitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewRateLimitError constructs a typed rate limit error.
func NewRateLimitError(code RateLimitErrorCode, message string, err error) *RateLimitError {
	if message == "" {
		message = string(code)
	}
	return &RateLimitError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
