package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/medihome/storefront/internal/errors"
	"github.com/medihome/storefront/pkg/flash"
	"github.com/medihome/storefront/pkg/forms"
	"github.com/medihome/storefront/pkg/invoice"
	"github.com/medihome/storefront/pkg/protocol"
	"github.com/medihome/storefront/pkg/session"
	"github.com/medihome/storefront/pkg/store"
	"github.com/medihome/storefront/pkg/toast"
)

// maxFormBytes limits form bodies.
const maxFormBytes = 64 << 10

// Flash texts used when a form falls back to redirecting.
const (
	FlashContactSent       = "Your message has been sent successfully!"
	FlashAlreadySubscribed = "This email is already subscribed to our newsletter"
)

// FormResponse is the JSON answer to a scripted form submission.
type FormResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// outcome is the result of handling a form.
type outcome struct {
	ok       bool
	message  string
	flash    string // redirect flash text, if different from message
	category string
}

func failure(message string) outcome {
	return outcome{message: message, category: flash.CategoryDanger}
}

func (o outcome) kind() toast.Kind {
	switch o.category {
	case flash.CategorySuccess:
		return toast.KindSuccess
	case flash.CategoryDanger:
		return toast.KindError
	default:
		return toast.KindInfo
	}
}

// respond answers a form submission. Scripted requests get JSON and a toast
// on the browser's open tabs; plain posts get a flash message and a
// redirect back.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, o outcome) {
	if wantsJSON(r) {
		if id, ok := session.FromRequest(r, s.config.CookieName); ok {
			s.live.Notify(id, o.message, o.kind())
		}
		writeJSON(w, http.StatusOK, FormResponse{Success: o.ok, Message: o.message})
		return
	}

	text := o.flash
	if text == "" {
		text = o.message
	}
	sid := session.Ensure(w, r, s.config.CookieName, s.config.SessionTTL)
	if err := s.bag.Add(r.Context(), sid, o.category, text); err != nil {
		s.logger.Warn("flash add failed", "error", err)
	}
	http.Redirect(w, r, redirectTarget(r), http.StatusSeeOther)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.respond(w, r, failure(forms.MsgContactFailed))
		return
	}

	c := forms.ContactFromRequest(r)
	if err := c.Validate(); err != nil {
		s.respond(w, r, failure(validationMessage(err, forms.MsgContactFailed)))
		return
	}

	key, err := s.archive.Put(r.Context(), store.ContactSubmission{
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		Subject:    c.Subject,
		Message:    c.Message,
		Newsletter: c.Newsletter,
		CreatedAt:  s.clock.Now(),
	})
	if err != nil {
		s.logger.Error("contact archive failed", "error", errors.New("E202").Wrap(err))
		s.respond(w, r, failure(forms.MsgContactFailed))
		return
	}

	s.logger.Info("contact received", "key", key, "subject", c.Subject)
	s.respond(w, r, outcome{
		ok:       true,
		message:  forms.MsgContactSent,
		flash:    FlashContactSent,
		category: flash.CategorySuccess,
	})
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.respond(w, r, failure(forms.MsgSubscribeFailed))
		return
	}

	n := forms.NewsletterFromRequest(r)
	if err := n.Validate(); err != nil {
		s.respond(w, r, failure(validationMessage(err, forms.MsgSubscribeFailed)))
		return
	}

	if s.subscribers == nil {
		s.logger.Error("subscribe failed", "error", "no subscriber store configured")
		s.respond(w, r, failure(forms.MsgSubscribeFailed))
		return
	}

	err := s.subscribers.Subscribe(r.Context(), n.Normalized(), s.clock.Now())
	switch {
	case stderrors.Is(err, store.ErrAlreadySubscribed):
		s.respond(w, r, outcome{
			message:  forms.MsgAlreadySubscribed,
			flash:    FlashAlreadySubscribed,
			category: flash.CategoryInfo,
		})
	case err != nil:
		s.logger.Error("subscribe failed", "error", err)
		s.respond(w, r, failure(forms.MsgSubscribeFailed))
	default:
		s.logger.Info("newsletter subscription")
		s.respond(w, r, outcome{
			ok:       true,
			message:  forms.MsgSubscribed,
			category: flash.CategorySuccess,
		})
	}
}

func (s *Server) handleInvoiceDownload(w http.ResponseWriter, r *http.Request) {
	inv, err := s.invoices.Get(chi.URLParam(r, "number"))
	switch {
	case stderrors.Is(err, invoice.ErrInvalidNumber):
		http.Error(w, "Invalid invoice number", http.StatusBadRequest)
		return
	case stderrors.Is(err, invoice.ErrNotFound):
		http.Error(w, "Invoice not found", http.StatusNotFound)
		return
	case err != nil:
		s.logger.Error("invoice lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := invoice.WriteText(&buf, inv); err != nil {
		s.logger.Error("invoice render failed", "invoice", inv.Number, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+inv.Filename()+`"`)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Health is the /healthz body.
type Health struct {
	Status       string `json:"status"`
	LiveSessions int    `json:"live_sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Health{Status: "ok", LiveSessions: s.live.Count()})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sid := session.Ensure(w, r, s.config.CookieName, s.config.SessionTTL)

	messages, err := s.bag.Pop(r.Context(), sid)
	if err != nil {
		s.logger.Warn("flash pop failed", "error", err)
	}
	if len(messages) > protocol.MaxFlashItems {
		s.logger.Warn("dropping flash messages", "queued", len(messages), "max", protocol.MaxFlashItems)
		messages = messages[:protocol.MaxFlashItems]
	}

	data := pageData{
		Flashes:    messages,
		FAQ:        faqEntries,
		ClientPath: ClientPath,
		LivePath:   LivePath,

		ToastMS:         s.live.Config().ToastDuration.Milliseconds(),
		ContactFailed:   forms.MsgContactFailed,
		SubscribeFailed: forms.MsgSubscribeFailed,
	}
	if inv, err := s.invoices.Get(s.config.InvoiceNumber); err == nil {
		data.Invoice = inv
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("page render failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// validationMessage returns the user-facing text for a validation error.
func validationMessage(err error, fallback string) string {
	var ve forms.ValidationError
	if stderrors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}
	return fallback
}

// wantsJSON reports whether r was sent by script and expects JSON back.
func wantsJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// redirectTarget returns the same-host referrer, or "/".
func redirectTarget(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "/"
	}
	if u.Host != "" && !strings.EqualFold(u.Host, r.Host) {
		return "/"
	}

	target := u.EscapedPath()
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
