package live

import "errors"

var (
	// ErrSessionClosed is returned when operating on a closed session.
	ErrSessionClosed = errors.New("live: session closed")

	// ErrSendQueueFull is returned when a client is too slow to keep up.
	ErrSendQueueFull = errors.New("live: send queue full")

	// ErrEventQueueFull is returned when a client sends frames faster than
	// they can be handled.
	ErrEventQueueFull = errors.New("live: event queue full")

	// ErrManagerClosed is returned when connecting after Shutdown.
	ErrManagerClosed = errors.New("live: manager shut down")
)
