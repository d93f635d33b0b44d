package core

import "errors"

// Error codes for domain errors surfaced to clients.
const (
	ErrCodeEmptyMessage    = "empty_message"
	ErrCodeMissingRoomName = "missing_room_name"
	ErrCodeDefaultRoom     = "default_room"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeBadRequest      = "bad_request"
)

var (
	ErrDuplicateConnection = errors.New("duplicate connection")
	ErrUnknownConnection   = errors.New("unknown connection")
	ErrEmptyMessage        = errors.New("message text required")
	ErrMissingRoomName     = errors.New("room name required")
	ErrLeaveDefaultRoom    = errors.New("cannot leave default room")
	ErrUnknownCommand      = errors.New("unknown command")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// NewErrorEvent builds an error event addressed to a single connection.
func NewErrorEvent(code, msg string) *Event {
	return &Event{Kind: EventError, Error: coreError(code, msg)}
}
