// Package toast provides the storefront's transient notification slot.
//
// A page has exactly one toast slot. Showing a message writes the text and a
// severity colour into the slot and makes it visible; the slot is cleared a
// fixed duration later (3 seconds by default). A new message shown while one
// is visible replaces it immediately.
//
// # Restart Policy
//
// With PolicyReplace (the default) each Show cancels the previous call's
// pending hide, so a message always stays up for the full duration. With
// PolicyLegacy every call's hide fires on its own schedule, which means an
// early call can hide a later message before its time is up. The legacy
// policy exists for pages that still depend on that behaviour.
//
// # Usage
//
// Form handlers and page events call the controller bound to the live
// session:
//
//	ctrl := toast.NewController(slot)
//	ctrl.Error("Please enter a valid email address")
//	ctrl.Success("Thank you for subscribing to our newsletter!")
//
// The Slot implementation decides how the state reaches the browser. Live
// sessions push it as a toast frame over the WebSocket.
package toast
