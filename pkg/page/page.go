// Package page holds the per-tab UI state of a storefront page and the
// reducers that update it.
//
// Handlers are pure: they take the raised event and the current state and
// return the next state plus the effects the live session must carry out.
// A Dispatcher maps event names to handlers; NewDispatcher registers the
// storefront's standard set.
package page

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/medihome/storefront/pkg/invoice"
	"github.com/medihome/storefront/pkg/toast"
)

// ErrUnknownEvent is returned when no handler is registered for an event.
var ErrUnknownEvent = errors.New("page: unknown event")

// Theme is the colour scheme of the page.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// NoFAQ marks that no FAQ entry is expanded.
const NoFAQ = -1

// State is the UI state of one page.
type State struct {
	Theme        Theme
	MenuOpen     bool
	DropdownOpen bool
	OpenFAQ      int
}

// Initial returns the state a freshly rendered page starts in.
func Initial() State {
	return State{Theme: ThemeLight, OpenFAQ: NoFAQ}
}

// Event is a UI event raised in the browser.
type Event struct {
	Name   string
	Target string
	Value  string
}

// Effect is work a handler asks the session to perform.
type Effect struct {
	// Toast, if set, is shown on the page's toast slot.
	Toast *toast.Message

	// Command, if set, is forwarded to the browser.
	Command string

	// URL accompanies Command when it needs one.
	URL string
}

// ToastEffect returns an effect showing text with kind.
func ToastEffect(text string, kind toast.Kind) Effect {
	return Effect{Toast: &toast.Message{Text: text, Kind: kind}}
}

// Handler computes the next state for an event.
type Handler func(ev Event, st State) (State, []Effect, error)

// Event names understood by the standard dispatcher.
const (
	EventThemeToggle     = "theme.toggle"
	EventMenuToggle      = "menu.toggle"
	EventDropdownToggle  = "dropdown.toggle"
	EventDocumentClick   = "document.click"
	EventFAQToggle       = "faq.toggle"
	EventLiveChat        = "chat.live"
	EventEmergencyChat   = "chat.emergency"
	EventContactButton   = "contact.button"
	EventInvoicePrint    = "invoice.print"
	EventInvoiceDownload = "invoice.download"
	EventInvoiceEmail    = "invoice.email"
)

// Dispatcher routes events to handlers.
type Dispatcher struct {
	handlers map[string]Handler
}

// NewDispatcher returns a dispatcher with the standard storefront handlers.
// invoices may be nil, in which case invoice events are rejected.
func NewDispatcher(invoices invoice.Repository) *Dispatcher {
	d := &Dispatcher{handlers: make(map[string]Handler)}

	d.On(EventThemeToggle, toggleTheme)
	d.On(EventMenuToggle, toggleMenu)
	d.On(EventDropdownToggle, toggleDropdown)
	d.On(EventDocumentClick, documentClick)
	d.On(EventFAQToggle, toggleFAQ)
	d.On(EventLiveChat, notice("Live chat feature coming soon!"))
	d.On(EventEmergencyChat, notice("Emergency chat feature coming soon!"))
	d.On(EventContactButton, contactButton)

	if invoices != nil {
		inv := invoiceHandlers{repo: invoices}
		d.On(EventInvoicePrint, inv.print)
		d.On(EventInvoiceDownload, inv.download)
		d.On(EventInvoiceEmail, inv.email)
	}
	return d
}

// On registers h for name, replacing any existing handler.
func (d *Dispatcher) On(name string, h Handler) {
	d.handlers[name] = h
}

// Dispatch runs the handler registered for ev.Name.
// On error the state is returned unchanged.
func (d *Dispatcher) Dispatch(ev Event, st State) (State, []Effect, error) {
	h, ok := d.handlers[ev.Name]
	if !ok {
		return st, nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Name)
	}
	next, effects, err := h(ev, st)
	if err != nil {
		return st, nil, err
	}
	return next, effects, nil
}

func toggleTheme(_ Event, st State) (State, []Effect, error) {
	if st.Theme == ThemeDark {
		st.Theme = ThemeLight
	} else {
		st.Theme = ThemeDark
	}
	return st, nil, nil
}

func toggleMenu(_ Event, st State) (State, []Effect, error) {
	st.MenuOpen = !st.MenuOpen
	return st, nil, nil
}

func toggleDropdown(_ Event, st State) (State, []Effect, error) {
	st.DropdownOpen = !st.DropdownOpen
	return st, nil, nil
}

// Targets reported with document.click for elements that keep the dropdown
// open.
const (
	TargetUserProfile  = "userProfile"
	TargetDropdownMenu = "dropdownMenu"
)

func documentClick(ev Event, st State) (State, []Effect, error) {
	if ev.Target != TargetUserProfile && ev.Target != TargetDropdownMenu {
		st.DropdownOpen = false
	}
	return st, nil, nil
}

// toggleFAQ opens the entry at ev.Value and closes any other; toggling the
// open entry closes it.
func toggleFAQ(ev Event, st State) (State, []Effect, error) {
	idx, err := strconv.Atoi(ev.Value)
	if err != nil || idx < 0 {
		return st, nil, fmt.Errorf("page: faq index %q: invalid", ev.Value)
	}
	if st.OpenFAQ == idx {
		st.OpenFAQ = NoFAQ
	} else {
		st.OpenFAQ = idx
	}
	return st, nil, nil
}

func notice(text string) Handler {
	return func(_ Event, st State) (State, []Effect, error) {
		return st, []Effect{ToastEffect(text, toast.KindInfo)}, nil
	}
}

var contactButtonNotices = map[string]string{
	"Call Now":       "Redirecting to call...",
	"Send Email":     "Opening email client...",
	"Get Directions": "Opening map directions...",
}

func contactButton(ev Event, st State) (State, []Effect, error) {
	text, ok := contactButtonNotices[ev.Value]
	if !ok {
		return st, nil, nil
	}
	return st, []Effect{ToastEffect(text, toast.KindInfo)}, nil
}
