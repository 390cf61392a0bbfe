package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// RateLimitMessage is returned when a client exceeds the request ceiling.
	RateLimitMessage = "Rate limit exceeded. Please wait a moment and try again."
	// EmptyMessageMessage is returned when the message is empty after sanitisation.
	EmptyMessageMessage = "Message cannot be empty."
	// LookupErrorMessage describes a failed cutoff/answer lookup.
	LookupErrorMessage = "lookup service unavailable"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// RateLimited reports that a client key exceeded its request ceiling.
// Engine state is untouched; the client must back off.
func RateLimited() *AppError {
	return New(nil, http.StatusTooManyRequests, RateLimitMessage)
}

// EmptyMessage reports that the incoming message was empty after sanitisation.
func EmptyMessage() *AppError {
	return New(nil, http.StatusBadRequest, EmptyMessageMessage)
}

// WrapLookup marks a cutoff/LLM collaborator failure. Callers recover from
// this locally with a degraded reply; it never reaches the HTTP surface.
func WrapLookup(err error) *AppError {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, LookupErrorMessage)
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
