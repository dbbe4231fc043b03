package live

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/medihome/storefront/pkg/clock"
	"github.com/medihome/storefront/pkg/page"
	"github.com/medihome/storefront/pkg/session"
	"github.com/medihome/storefront/pkg/toast"
)

// Manager accepts live connections and tracks their sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
	wg       sync.WaitGroup

	config     *Config
	clock      clock.Clock
	dispatcher *page.Dispatcher
	metrics    Metrics
	logger     *slog.Logger
	upgrader   websocket.Upgrader

	onOpen func(*Session)
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig sets the per-session config.
func WithConfig(cfg *Config) Option {
	return func(m *Manager) {
		m.config = cfg.withDefaults()
	}
}

// WithClock sets the clock used for toast and flash timers.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics Metrics) Option {
	return func(m *Manager) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithOnOpen registers fn to run for every accepted session before its
// loops start.
func WithOnOpen(fn func(*Session)) Option {
	return func(m *Manager) {
		m.onOpen = fn
	}
}

// NewManager creates a Manager dispatching page events to dispatcher.
func NewManager(dispatcher *page.Dispatcher, opts ...Option) *Manager {
	m := &Manager{
		sessions:   make(map[string]*Session),
		config:     DefaultConfig(),
		clock:      clock.New(),
		dispatcher: dispatcher,
		metrics:    nopMetrics{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     m.checkOrigin,
	}
	return m
}

// checkOrigin allows same-origin requests and the configured origins.
func (m *Manager) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range m.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

// ServeHTTP upgrades the request and runs a session for it.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		m.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	browserID, _ := session.FromRequest(r, m.config.CookieName)
	s := newSession(conn, browserID, m.config, m.clock, m.dispatcher, m.metrics, m.logger)

	if err := m.track(s); err != nil {
		_ = conn.Close()
		return
	}
	if m.onOpen != nil {
		m.onOpen(s)
	}

	m.metrics.SessionOpened()
	s.logger.Info("session opened", "remote", r.RemoteAddr)
	s.Start()
}

func (m *Manager) track(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrManagerClosed
	}
	m.sessions[s.ID] = s
	m.wg.Add(1)
	s.onClose = m.untrack
	return nil
}

func (m *Manager) untrack(s *Session) {
	m.mu.Lock()
	_, ok := m.sessions[s.ID]
	delete(m.sessions, s.ID)
	m.mu.Unlock()

	if ok {
		m.wg.Done()
	}
}

// Get returns the session with id, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Config returns a copy of the manager's configuration.
func (m *Manager) Config() *Config {
	return m.config.Clone()
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ForEach calls fn for each open session until fn returns false.
func (m *Manager) ForEach(fn func(*Session) bool) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		if !fn(s) {
			return
		}
	}
}

// Notify shows a toast on every open tab of browserID and returns how many
// tabs it reached.
func (m *Manager) Notify(browserID, message string, kind toast.Kind) int {
	if browserID == "" {
		return 0
	}

	n := 0
	m.ForEach(func(s *Session) bool {
		if s.BrowserID == browserID && s.Toast(message, kind) == nil {
			n++
		}
		return true
	})
	return n
}

// Shutdown closes every session and waits for them to finish or for ctx
// to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.ForEach(func(s *Session) bool {
		s.Close()
		return true
	})

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("live sessions closed")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
