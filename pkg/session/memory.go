package session

import (
	"context"
	"sync"
	"time"

	"github.com/medihome/storefront/pkg/clock"
)

// MemoryStore keeps session queues in process memory. Queues are lost on
// restart, which is fine for messages meant for the next page load.
type MemoryStore struct {
	mu     sync.Mutex
	queues map[string]*queue
	clock  clock.Clock
	closed bool
	done   chan struct{}
}

type queue struct {
	entries   [][]byte
	expiresAt time.Time
}

func (q *queue) expired(now time.Time) bool {
	return now.After(q.expiresAt)
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore, *time.Duration)

// WithCleanupInterval sets how often expired queues are swept.
// Default: 1 minute. A non-positive interval disables sweeping; expired
// queues are then dropped when next touched.
func WithCleanupInterval(d time.Duration) MemoryStoreOption {
	return func(_ *MemoryStore, interval *time.Duration) {
		*interval = d
	}
}

// WithClock sets the clock used for expiry.
func WithClock(clk clock.Clock) MemoryStoreOption {
	return func(m *MemoryStore, _ *time.Duration) {
		m.clock = clk
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	m := &MemoryStore{
		queues: make(map[string]*queue),
		clock:  clock.New(),
		done:   make(chan struct{}),
	}
	interval := time.Minute
	for _, opt := range opts {
		opt(m, &interval)
	}
	if interval > 0 {
		go m.sweepLoop(interval)
	}
	return m
}

// Append implements Store. The entry is copied.
func (m *MemoryStore) Append(ctx context.Context, sessionID string, entry []byte, expiresAt time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	q, ok := m.queues[sessionID]
	if !ok || q.expired(m.clock.Now()) {
		q = &queue{}
		m.queues[sessionID] = q
	}
	q.entries = append(q.entries, append([]byte(nil), entry...))
	q.expiresAt = expiresAt
	return len(q.entries), nil
}

// Take implements Store.
func (m *MemoryStore) Take(ctx context.Context, sessionID string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	q, ok := m.queues[sessionID]
	if !ok {
		return nil, nil
	}
	delete(m.queues, sessionID)
	if q.expired(m.clock.Now()) {
		return nil, nil
	}
	return q.entries, nil
}

// Close stops the sweeper and drops every queue. Further calls fail with
// ErrClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	m.queues = nil
	return nil
}

func (m *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.done:
			return
		}
	}
}

// sweep drops expired queues and reports how many were dropped.
func (m *MemoryStore) sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	n := 0
	for id, q := range m.queues {
		if q.expired(now) {
			delete(m.queues, id)
			n++
		}
	}
	return n
}
