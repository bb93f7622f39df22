package mutation

import (
	"errors"
	"fmt"
)

// ProtocolErrorCode categorizes protocol violations.
type ProtocolErrorCode string

const (
	// ErrCodeMutationPending indicates a recorded substitution was started
	// while another mutation was pending.
	ErrCodeMutationPending ProtocolErrorCode = "MUTATION_PENDING"

	// ErrCodeNoPendingMutation indicates Revert or Commit without a pending
	// mutation.
	ErrCodeNoPendingMutation ProtocolErrorCode = "NO_PENDING_MUTATION"

	// ErrCodeMalformedTail indicates a candidate that does not end in the
	// terminator shape.
	ErrCodeMalformedTail ProtocolErrorCode = "MALFORMED_TAIL"
)

// ProtocolError reports a violated precondition of the mutation protocol.
// Except for New, which returns it, it is raised by panic.
type ProtocolError struct {
	Code    ProtocolErrorCode
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsProtocolError reports whether err is a ProtocolError with the given
// code. Uses errors.As to handle wrapped errors.
func IsProtocolError(err error, code ProtocolErrorCode) bool {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

func violation(code ProtocolErrorCode, format string, args ...any) {
	panic(&ProtocolError{Code: code, Message: fmt.Sprintf(format, args...)})
}
