package live

import (
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/medihome/storefront/pkg/clock"
	"github.com/medihome/storefront/pkg/flash"
	"github.com/medihome/storefront/pkg/page"
	"github.com/medihome/storefront/pkg/protocol"
	"github.com/medihome/storefront/pkg/session"
	"github.com/medihome/storefront/pkg/toast"
)

// Session is the server side of one connected page.
type Session struct {
	// ID identifies this tab's connection.
	ID string

	// BrowserID is the browser session cookie value, shared by all tabs
	// of the same browser. Empty if the browser sent none.
	BrowserID string

	// CreatedAt is when the connection was accepted.
	CreatedAt time.Time

	conn       *websocket.Conn
	config     *Config
	logger     *slog.Logger
	metrics    Metrics
	dispatcher *page.Dispatcher

	toast *toast.Controller
	flash *flash.Scheduler

	// Owned by the event loop.
	state page.State
	ready bool

	send   chan *protocol.Frame
	events chan *protocol.Frame
	done   chan struct{}

	// calls run on the event loop in the order they were queued.
	callsMu sync.Mutex
	calls   []func()
	wake    chan struct{}

	closeOnce sync.Once
	onClose   func(*Session)

	framesIn  atomic.Uint64
	framesOut atomic.Uint64
}

func newSession(conn *websocket.Conn, browserID string, cfg *Config, clk clock.Clock,
	dispatcher *page.Dispatcher, metrics Metrics, logger *slog.Logger) *Session {
	id := session.NewID()
	s := &Session{
		ID:         id,
		BrowserID:  browserID,
		CreatedAt:  clk.Now(),
		conn:       conn,
		config:     cfg,
		logger:     logger.With("session", id[:8]),
		metrics:    metrics,
		dispatcher: dispatcher,
		state:      page.Initial(),
		send:       make(chan *protocol.Frame, cfg.SendQueue),
		events:     make(chan *protocol.Frame, cfg.EventQueue),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}

	loopClock := clock.Func{Clock: clk, Run: s.runOnLoop}

	s.toast = toast.NewController(toastSlot{s},
		toast.WithClock(loopClock),
		toast.WithDuration(cfg.ToastDuration),
		toast.WithPolicy(cfg.ToastPolicy),
		toast.WithLogger(s.logger),
		toast.WithObserver(metrics),
	)
	s.flash = flash.NewScheduler(flashDisplay{s},
		flash.WithClock(loopClock),
		flash.WithTimings(cfg.FlashStagger, cfg.FlashVisible, cfg.FlashFade),
		flash.WithLogger(s.logger),
		flash.WithObserver(metrics),
	)
	return s
}

// Start runs the session's loops. It returns immediately.
func (s *Session) Start() {
	go s.ReadLoop()
	go s.WriteLoop()
	go s.EventLoop()
}

// Toast shows a message on this page's toast slot. Safe to call from any
// goroutine.
func (s *Session) Toast(message string, kind toast.Kind) error {
	return s.Dispatch(func() { s.toast.Show(message, kind) })
}

// Dispatch queues fn to run on the event loop and returns without waiting.
// Calls made from one goroutine run in the order they were made.
func (s *Session) Dispatch(fn func()) error {
	if !s.push(fn) {
		return ErrSessionClosed
	}
	return nil
}

// runOnLoop runs fn on the event loop and waits for it to finish. Timer
// callbacks come through here. It must not be called from the loop itself.
func (s *Session) runOnLoop(fn func()) {
	ran := make(chan struct{})
	if !s.push(func() {
		defer close(ran)
		fn()
	}) {
		return
	}
	select {
	case <-ran:
	case <-s.done:
	}
}

func (s *Session) push(fn func()) bool {
	s.callsMu.Lock()
	select {
	case <-s.done:
		s.callsMu.Unlock()
		return false
	default:
	}
	s.calls = append(s.calls, fn)
	s.callsMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// drainCalls runs queued calls until the queue is empty.
func (s *Session) drainCalls() {
	for {
		s.callsMu.Lock()
		if len(s.calls) == 0 {
			s.callsMu.Unlock()
			return
		}
		fn := s.calls[0]
		s.calls[0] = nil
		s.calls = s.calls[1:]
		s.callsMu.Unlock()

		if s.IsClosed() {
			return
		}
		s.safeExecute(fn)
	}
}

// EventLoop handles client frames and queued calls one at a time until
// the session closes.
func (s *Session) EventLoop() {
	for {
		select {
		case f := <-s.events:
			s.safeExecute(func() { s.handleFrame(f) })
		case <-s.wake:
			s.drainCalls()
		case <-s.done:
			return
		}
	}
}

func (s *Session) safeExecute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event loop panic",
				"panic", r,
				"stack", string(debug.Stack()))
			s.sendError(protocol.ErrServerError, "Internal error", false)
		}
	}()
	fn()
}

// handleFrame runs on the event loop.
func (s *Session) handleFrame(f *protocol.Frame) {
	switch f.Type {
	case protocol.FrameReady:
		s.handleReady(f.Ready)
	case protocol.FrameEvent:
		s.handleEvent(f.Event)
	case protocol.FramePing:
		s.enqueue(&protocol.Frame{Type: protocol.FramePong})
	default:
		s.logger.Warn("unexpected frame from client", "type", f.Type)
		s.sendError(protocol.ErrInvalidFrame, "Unexpected frame type", false)
	}
}

// handleReady starts the page's flash cascade. Only the first ready frame
// counts.
func (s *Session) handleReady(r *protocol.ReadyFrame) {
	if s.ready {
		s.sendError(protocol.ErrAlreadyReady, "Page already initialised", false)
		return
	}
	s.ready = true

	s.flash.Schedule(flash.NewItems(make([]flash.Message, r.Flash)))
	s.sendUI()
	s.logger.Debug("page ready", "flash", r.Flash)
}

func (s *Session) handleEvent(e *protocol.EventFrame) {
	if !s.ready {
		s.sendError(protocol.ErrNotReady, "Event before ready", false)
		return
	}

	next, effects, err := s.dispatcher.Dispatch(page.Event{
		Name:   e.Name,
		Target: e.Target,
		Value:  e.Value,
	}, s.state)
	if err != nil {
		s.logger.Warn("event rejected", "name", e.Name, "error", err)
		msg := "Invalid event"
		if errors.Is(err, page.ErrUnknownEvent) {
			msg = "Unknown event"
		}
		s.sendError(protocol.ErrInvalidEvent, msg, false)
		return
	}

	if next != s.state {
		s.state = next
		s.sendUI()
	}

	for _, eff := range effects {
		if eff.Toast != nil {
			s.toast.Show(eff.Toast.Text, eff.Toast.Kind)
		}
		if eff.Command != "" {
			s.enqueue(protocol.NewCommand(eff.Command, eff.URL))
		}
	}
}

func (s *Session) sendUI() {
	s.enqueue(&protocol.Frame{Type: protocol.FrameUI, UI: &protocol.UIFrame{
		Theme:        string(s.state.Theme),
		MenuOpen:     s.state.MenuOpen,
		DropdownOpen: s.state.DropdownOpen,
		OpenFAQ:      s.state.OpenFAQ,
	}})
}

func (s *Session) sendError(code protocol.ErrorCode, message string, fatal bool) {
	s.enqueue(protocol.NewError(code, message, fatal))
}

// enqueue hands f to the write loop. A client whose queue is full is
// disconnected.
func (s *Session) enqueue(f *protocol.Frame) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.send <- f:
	default:
		s.logger.Warn("send queue full, closing session", "type", f.Type)
		go s.Close()
	}
}

// State returns a snapshot of the page UI state. Safe to call from any
// goroutine.
func (s *Session) State() page.State {
	ch := make(chan page.State, 1)
	if err := s.Dispatch(func() { ch <- s.state }); err != nil {
		return page.State{}
	}
	select {
	case st := <-ch:
		return st
	case <-s.done:
		return page.State{}
	}
}

// Stats reports frame counters.
func (s *Session) Stats() SessionStats {
	return SessionStats{
		ID:        s.ID,
		BrowserID: s.BrowserID,
		CreatedAt: s.CreatedAt,
		FramesIn:  s.framesIn.Load(),
		FramesOut: s.framesOut.Load(),
	}
}

// SessionStats is a snapshot of session counters.
type SessionStats struct {
	ID        string
	BrowserID string
	CreatedAt time.Time
	FramesIn  uint64
	FramesOut uint64
}

// Done returns a channel closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// IsClosed reports whether the session has ended.
func (s *Session) IsClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Close ends the session. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.onClose != nil {
			s.onClose(s)
		}
		close(s.done)
		s.toast.Close()

		if s.conn != nil {
			_ = s.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			_ = s.conn.Close()
		}

		s.metrics.SessionClosed()

		s.logger.Info("session closed",
			"frames_in", s.framesIn.Load(),
			"frames_out", s.framesOut.Load())
	})
}
