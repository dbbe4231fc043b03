package session

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by a Store after Close.
var ErrClosed = errors.New("session: store closed")

// Store holds a queue of opaque entries per browser session. Entries are
// read back once, in the order they were appended. Implementations must be
// safe for concurrent use.
type Store interface {
	// Append adds entry to the end of sessionID's queue and moves the
	// queue's expiry to expiresAt. It returns the queue length.
	Append(ctx context.Context, sessionID string, entry []byte, expiresAt time.Time) (int, error)

	// Take removes and returns sessionID's queue. An unknown or expired
	// session yields (nil, nil).
	Take(ctx context.Context, sessionID string) ([][]byte, error)

	// Close releases any resources held by the store.
	Close() error
}
