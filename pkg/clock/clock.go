// Package clock provides the time source used by every timer in the
// storefront: toast dismissal, flash cascades and session expiry.
//
// Production code uses New, which delegates to the time package. Tests use
// Manual, where time only moves when Advance is called and timer callbacks
// run synchronously on the caller's goroutine:
//
//	clk := clock.NewManual(time.Unix(0, 0))
//	ctrl := toast.NewController(slot, toast.WithClock(clk))
//	ctrl.Show("Saved", toast.KindSuccess)
//	clk.Advance(3 * time.Second) // toast hidden
package clock

import "time"

// Clock is a source of the current time and of one-shot timers.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for d to elapse and then calls f.
	// The returned Timer can be used to cancel the call.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending call created by Clock.AfterFunc.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// has already fired or been stopped.
	Stop() bool
}

// New returns a Clock backed by the time package.
func New() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Func adapts a Clock so that every timer callback is handed to run instead
// of being called directly. Live sessions use it to move timer callbacks onto
// their event loop.
type Func struct {
	Clock Clock
	Run   func(func())
}

// Now returns the wrapped clock's time.
func (c Func) Now() time.Time {
	return c.Clock.Now()
}

// AfterFunc schedules f on the wrapped clock and passes it to Run when due.
func (c Func) AfterFunc(d time.Duration, f func()) Timer {
	return c.Clock.AfterFunc(d, func() { c.Run(f) })
}
