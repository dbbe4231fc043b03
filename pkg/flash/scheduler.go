package flash

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medihome/storefront/pkg/clock"
)

// Default cascade timings.
const (
	DefaultStagger = 150 * time.Millisecond
	DefaultVisible = 2000 * time.Millisecond
	DefaultFade    = 500 * time.Millisecond
)

// State is the lifecycle position of a flash item.
type State int32

const (
	StatePending State = iota
	StateShown
	StateHiding
	StateRemoved
)

// String returns the state name as sent to the client.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateShown:
		return "shown"
	case StateHiding:
		return "hiding"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Item is one flash message discovered on the page.
type Item struct {
	// Index is the item's position in the discovered sequence. Schedule
	// sets it.
	Index int

	// Message is the rendered content, if known.
	Message Message

	state atomic.Int32
}

// NewItems returns one pending item per message, indexed in order.
func NewItems(messages []Message) []*Item {
	items := make([]*Item, len(messages))
	for i, m := range messages {
		items[i] = &Item{Index: i, Message: m}
	}
	return items
}

// State returns the item's current state.
func (it *Item) State() State {
	return State(it.state.Load())
}

// advance moves the item to next if next is later in the lifecycle.
func (it *Item) advance(next State) bool {
	for {
		cur := it.state.Load()
		if State(cur) >= next {
			return false
		}
		if it.state.CompareAndSwap(cur, int32(next)) {
			return true
		}
	}
}

// Display applies item transitions to the page.
type Display interface {
	Show(index int)
	Hide(index int)
	Remove(index int)
}

// Observer is notified of every item transition.
type Observer interface {
	FlashTransition(index int, state State)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the scheduler's clock.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithTimings overrides the stagger step, the visible period and the fade
// period. Zero values keep the defaults.
func WithTimings(stagger, visible, fade time.Duration) Option {
	return func(s *Scheduler) {
		if stagger > 0 {
			s.stagger = stagger
		}
		if visible > 0 {
			s.visible = visible
		}
		if fade > 0 {
			s.fade = fade
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver registers a transition observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		s.observer = o
	}
}

// Scheduler cascades a fixed sequence of flash items.
type Scheduler struct {
	display  Display
	clock    clock.Clock
	stagger  time.Duration
	visible  time.Duration
	fade     time.Duration
	logger   *slog.Logger
	observer Observer

	mu        sync.Mutex
	scheduled bool
	items     []*Item
}

// NewScheduler creates a Scheduler that writes to display.
func NewScheduler(display Display, opts ...Option) *Scheduler {
	s := &Scheduler{
		display: display,
		clock:   clock.New(),
		stagger: DefaultStagger,
		visible: DefaultVisible,
		fade:    DefaultFade,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShowDelay returns when item i is shown, relative to Schedule.
func (s *Scheduler) ShowDelay(i int) time.Duration {
	return time.Duration(i) * s.stagger
}

// HideDelay returns when item i starts hiding, relative to Schedule.
func (s *Scheduler) HideDelay(i int) time.Duration {
	return s.visible + time.Duration(i)*s.stagger
}

// RemoveDelay returns when item i is removed, relative to Schedule.
func (s *Scheduler) RemoveDelay(i int) time.Duration {
	return s.HideDelay(i) + s.fade
}

// Schedule starts the cascade for items. It returns immediately; the
// transitions happen on timer callbacks. Only the first call has any
// effect. An empty sequence creates no timers.
//
// Delays follow each item's position in items, and Index is set to that
// position.
func (s *Scheduler) Schedule(items []*Item) {
	s.mu.Lock()
	if s.scheduled {
		s.mu.Unlock()
		s.logger.Warn("flash cascade already scheduled", "items", len(items))
		return
	}
	s.scheduled = true
	for i, it := range items {
		it.Index = i
	}
	s.items = items
	s.mu.Unlock()

	for i, it := range items {
		it := it
		s.clock.AfterFunc(s.ShowDelay(i), func() { s.show(it) })
		s.clock.AfterFunc(s.HideDelay(i), func() { s.hide(it) })
	}

	if len(items) > 0 {
		s.logger.Debug("flash cascade scheduled", "items", len(items))
	}
}

// Items returns the scheduled items.
func (s *Scheduler) Items() []*Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items
}

func (s *Scheduler) show(it *Item) {
	if !it.advance(StateShown) {
		return
	}
	s.display.Show(it.Index)
	s.notify(it.Index, StateShown)
}

func (s *Scheduler) hide(it *Item) {
	if !it.advance(StateHiding) {
		return
	}
	s.display.Hide(it.Index)
	s.notify(it.Index, StateHiding)

	s.clock.AfterFunc(s.fade, func() { s.remove(it) })
}

func (s *Scheduler) remove(it *Item) {
	if !it.advance(StateRemoved) {
		return
	}
	s.display.Remove(it.Index)
	s.notify(it.Index, StateRemoved)
}

func (s *Scheduler) notify(index int, state State) {
	if s.observer != nil {
		s.observer.FlashTransition(index, state)
	}
}
