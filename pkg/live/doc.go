// Package live runs the server side of a page's live channel.
//
// Each connected browser tab gets a Session. The session owns the tab's
// toast slot, its flash cascade and its page UI state, and it is the only
// goroutine that mutates them:
//
//	browser ──ready/event/ping──▶ ReadLoop ──▶ event loop ──▶ toast/flash/page
//	browser ◀──toast/flash/ui──── WriteLoop ◀── send queue ◀──┘
//
// Timers created by the toast controller and the flash scheduler go through
// a clock.Func that hands each callback to the event loop, so a timer firing
// and a click arriving never race.
//
// A Manager upgrades HTTP requests to WebSocket connections, tracks the open
// sessions and lets HTTP handlers push a toast to every tab of a browser:
//
//	mgr := live.NewManager(page.NewDispatcher(invoices),
//	    live.WithLogger(logger),
//	    live.WithMetrics(metrics),
//	)
//	r.Get("/live", mgr.ServeHTTP)
//	...
//	mgr.Notify(browserID, "Thank you for subscribing!", toast.KindSuccess)
package live
