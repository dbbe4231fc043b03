// Package flash handles server-rendered flash messages: queuing them per
// browser session until the next page render, and cascading them on and off
// screen once the page is live.
//
// A Bag collects messages during a request (after a form post, a login, a
// failed lookup) and hands them to the next page render. The rendered page
// reports how many flash items it holds when its live channel becomes
// ready, and a Scheduler then drives every item through
//
//	pending -> shown -> hiding -> removed
//
// Item i is shown at i*150ms, starts hiding at 2000ms + i*150ms and is
// removed 500ms after that. Every delay is measured from the moment Schedule
// is called, so items never wait on each other.
package flash
