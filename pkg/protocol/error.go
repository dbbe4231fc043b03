package protocol

// ErrorCode identifies the type of error.
type ErrorCode uint16

const (
	ErrUnknown       ErrorCode = 0x0000 // Unknown error
	ErrInvalidFrame  ErrorCode = 0x0001 // Malformed frame
	ErrInvalidEvent  ErrorCode = 0x0002 // Event not understood
	ErrAlreadyReady  ErrorCode = 0x0003 // Duplicate ready frame
	ErrNotReady      ErrorCode = 0x0004 // Event before ready
	ErrRateLimited   ErrorCode = 0x0006 // Too many frames queued
	ErrServerError   ErrorCode = 0x0100 // Internal server error
	ErrSessionClosed ErrorCode = 0x0101 // Session shutting down
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case ErrInvalidFrame:
		return "InvalidFrame"
	case ErrInvalidEvent:
		return "InvalidEvent"
	case ErrAlreadyReady:
		return "AlreadyReady"
	case ErrNotReady:
		return "NotReady"
	case ErrRateLimited:
		return "RateLimited"
	case ErrServerError:
		return "ServerError"
	case ErrSessionClosed:
		return "SessionClosed"
	default:
		return "Unknown"
	}
}
