// Package errors classifies failures from external collaborators and maps
// them to messages that are safe to show to end users.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// TransientError represents an error that can be retried
type TransientError struct {
	Err     error
	Message string // user-facing message
}

func (e *TransientError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError represents an error that should not be retried
type PermanentError struct {
	Err     error
	Message string // user-facing message
}

func (e *PermanentError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewTransientError marks err as retryable.
func NewTransientError(err error, message string) error {
	return &TransientError{Err: err, Message: message}
}

// NewPermanentError marks err as not retryable.
func NewPermanentError(err error, message string) error {
	return &PermanentError{Err: err, Message: message}
}

// IsTransient checks if an error is retry-able
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}

	lower := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection refused", "connection reset", "broken pipe", "too many connections", "timeout"} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// Generic user-facing failure messages.
const (
	MessageUnavailable = "I couldn't save your reminder right now. Please try again in a moment."
	MessageInvalid     = "I couldn't save that reminder because some details were invalid. Could you rephrase it?"
	MessageGeneric     = "Something went wrong while saving your reminder."
)

// FormatForUser converts an internal error into a generic message that leaks
// no storage details.
func FormatForUser(err error) string {
	if err == nil {
		return ""
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) && transientErr.Message != "" {
		return transientErr.Message
	}
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) && permanentErr.Message != "" {
		return permanentErr.Message
	}

	if IsTransient(err) {
		return MessageUnavailable
	}
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "invalid") || strings.Contains(lower, "required") || strings.Contains(lower, "validation") {
		return MessageInvalid
	}
	return MessageGeneric
}
