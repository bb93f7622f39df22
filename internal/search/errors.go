package search

import (
	"errors"
	"fmt"
)

// RuntimeErrorCode categorizes search errors.
type RuntimeErrorCode string

const (
	// ErrCodeInvalidConfig indicates a search parameter out of range.
	ErrCodeInvalidConfig RuntimeErrorCode = "INVALID_CONFIG"

	// ErrCodeOracleFailed indicates the oracle could not score a candidate.
	ErrCodeOracleFailed RuntimeErrorCode = "ORACLE_FAILED"

	// ErrCodeNothingToMutate indicates a candidate without body operations.
	ErrCodeNothingToMutate RuntimeErrorCode = "NOTHING_TO_MUTATE"

	// ErrCodeStoreFailed indicates telemetry could not be written.
	ErrCodeStoreFailed RuntimeErrorCode = "STORE_FAILED"
)

// RuntimeError represents an error detected while searching.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Chain is the index of the affected chain, -1 if none.
	Chain int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Chain >= 0 {
		msg += fmt.Sprintf(" (chain=%d)", e.Chain)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error { return e.Err }

func isCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsOracleError returns true if the error is an oracle failure.
// Uses errors.As to handle wrapped errors.
func IsOracleError(err error) bool { return isCode(err, ErrCodeOracleFailed) }

// IsConfigError returns true if the error is an invalid search parameter.
func IsConfigError(err error) bool { return isCode(err, ErrCodeInvalidConfig) }

func configError(format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: ErrCodeInvalidConfig, Message: fmt.Sprintf(format, args...), Chain: -1}
}
