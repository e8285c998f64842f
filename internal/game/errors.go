package game

import "fmt"

// ErrorCode is the machine-readable code sent to clients in error events.
type ErrorCode string

const (
	CodeNotFound    ErrorCode = "SESSION_NOT_FOUND"
	CodeFull        ErrorCode = "SESSION_FULL"
	CodeOutOfTurn   ErrorCode = "NOT_YOUR_TURN"
	CodeWrongPhase  ErrorCode = "WRONG_PHASE"
	CodeNotReady    ErrorCode = "NOT_ALL_READY"
	CodeInvalidVote ErrorCode = "INVALID_VOTE"
	CodeBadMessage  ErrorCode = "BAD_MESSAGE"
	CodeInternal    ErrorCode = "SERVER_ERROR"
)

// ActionError is returned when a session action is rejected. A rejected
// action never changes session state.
type ActionError struct {
	Code    ErrorCode
	Message string
}

func (e *ActionError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code so errors.Is(err, ErrOutOfTurn) works for any message.
func (e *ActionError) Is(target error) bool {
	t, ok := target.(*ActionError)
	return ok && t.Code == e.Code
}

var (
	ErrNotFound    = &ActionError{Code: CodeNotFound}
	ErrFull        = &ActionError{Code: CodeFull}
	ErrOutOfTurn   = &ActionError{Code: CodeOutOfTurn}
	ErrWrongPhase  = &ActionError{Code: CodeWrongPhase}
	ErrNotReady    = &ActionError{Code: CodeNotReady}
	ErrInvalidVote = &ActionError{Code: CodeInvalidVote}
	ErrBadMessage  = &ActionError{Code: CodeBadMessage}
	ErrInternal    = &ActionError{Code: CodeInternal}
)

func actionErrorf(code ErrorCode, format string, args ...interface{}) *ActionError {
	return &ActionError{Code: code, Message: fmt.Sprintf(format, args...)}
}
