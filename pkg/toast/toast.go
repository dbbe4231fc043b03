package toast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/medihome/storefront/pkg/clock"
)

// DefaultDuration is how long a toast stays visible.
const DefaultDuration = 3000 * time.Millisecond

// Kind represents the toast severity.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// ParseKind converts s to a Kind. Unknown values map to KindInfo.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindSuccess:
		return KindSuccess
	case KindError:
		return KindError
	default:
		return KindInfo
	}
}

// Style is the presentation applied to the slot for a Kind.
type Style struct {
	Background string `json:"background"`
}

// Background colours per kind.
const (
	ColorSuccess = "#38a169"
	ColorError   = "#e53e3e"
	ColorInfo    = "#3182ce"
)

// StyleFor returns the style for kind.
func StyleFor(kind Kind) Style {
	switch kind {
	case KindSuccess:
		return Style{Background: ColorSuccess}
	case KindError:
		return Style{Background: ColorError}
	default:
		return Style{Background: ColorInfo}
	}
}

// Message is the content of the slot.
type Message struct {
	Text string
	Kind Kind
}

// Slot is the single display area a Controller writes to.
// Set makes the slot visible with the given content; Clear hides it.
type Slot interface {
	Set(text string, style Style)
	Clear()
}

// Observer is notified of toast transitions.
type Observer interface {
	ToastShown(kind Kind)
	ToastHidden()
}

// Policy selects how overlapping Show calls interact.
type Policy int

const (
	// PolicyReplace cancels the pending hide on every Show.
	PolicyReplace Policy = iota

	// PolicyLegacy lets every Show's hide fire, even after a newer Show.
	PolicyLegacy
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyLegacy:
		return "legacy"
	default:
		return "replace"
	}
}

// ParsePolicy converts a config value to a Policy.
// Unknown values map to PolicyReplace.
func ParsePolicy(s string) Policy {
	if s == "legacy" {
		return PolicyLegacy
	}
	return PolicyReplace
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used for the hide timer.
func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) {
		ctrl.clock = c
	}
}

// WithDuration sets how long each toast stays visible.
// Non-positive values are ignored.
func WithDuration(d time.Duration) Option {
	return func(ctrl *Controller) {
		if d > 0 {
			ctrl.duration = d
		}
	}
}

// WithPolicy sets the restart policy.
func WithPolicy(p Policy) Option {
	return func(ctrl *Controller) {
		ctrl.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ctrl *Controller) {
		if l != nil {
			ctrl.logger = l
		}
	}
}

// WithObserver registers an observer for show/hide transitions.
func WithObserver(o Observer) Option {
	return func(ctrl *Controller) {
		ctrl.observer = o
	}
}

// Controller owns a Slot and drives its visible/hidden state machine.
// It is safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	slot     Slot
	clock    clock.Clock
	duration time.Duration
	policy   Policy
	logger   *slog.Logger
	observer Observer

	visible bool
	current Message
	pending clock.Timer
	gen     uint64
	closed  bool
}

// NewController creates a Controller writing to slot.
func NewController(slot Slot, opts ...Option) *Controller {
	c := &Controller{
		slot:     slot,
		clock:    clock.New(),
		duration: DefaultDuration,
		policy:   PolicyReplace,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show displays message with the style for kind and schedules it to be
// hidden after the configured duration. Empty messages are shown as-is.
func (c *Controller) Show(message string, kind Kind) {
	kind = ParseKind(string(kind))

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	if c.policy == PolicyReplace && c.pending != nil {
		c.pending.Stop()
	}

	c.gen++
	gen := c.gen
	c.visible = true
	c.current = Message{Text: message, Kind: kind}
	c.pending = c.clock.AfterFunc(c.duration, func() { c.expire(gen) })
	c.slot.Set(message, StyleFor(kind))

	c.logger.Debug("toast shown", "kind", kind, "policy", c.policy)
	if c.observer != nil {
		c.observer.ToastShown(kind)
	}
}

// Info shows an info toast.
func (c *Controller) Info(message string) {
	c.Show(message, KindInfo)
}

// Success shows a success toast.
func (c *Controller) Success(message string) {
	c.Show(message, KindSuccess)
}

// Error shows an error toast.
func (c *Controller) Error(message string) {
	c.Show(message, KindError)
}

// expire runs when the hide timer for Show call gen fires.
func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	// A replaced timer that could not be stopped in time must not hide the
	// newer message.
	if c.policy == PolicyReplace && gen != c.gen {
		return
	}
	if gen == c.gen {
		c.pending = nil
	}

	wasVisible := c.visible
	c.visible = false
	c.slot.Clear()

	if wasVisible && c.observer != nil {
		c.observer.ToastHidden()
	}
}

// Visible reports whether the slot is currently showing a message.
func (c *Controller) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// Current returns the last message shown.
func (c *Controller) Current() Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Close stops the pending hide timer. Later calls to Show are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}
