package page

import (
	"errors"
	"net/url"

	"github.com/medihome/storefront/pkg/invoice"
	"github.com/medihome/storefront/pkg/toast"
)

// Browser commands emitted by invoice handlers.
const (
	CommandPrint    = "print"
	CommandDownload = "download"
)

type invoiceHandlers struct {
	repo invoice.Repository
}

func (h invoiceHandlers) lookup(ev Event) (*invoice.Invoice, []Effect) {
	inv, err := h.repo.Get(ev.Value)
	if err != nil {
		msg := "Invoice not found"
		if errors.Is(err, invoice.ErrInvalidNumber) {
			msg = "Invalid invoice number"
		}
		return nil, []Effect{ToastEffect(msg, toast.KindError)}
	}
	return inv, nil
}

func (h invoiceHandlers) print(ev Event, st State) (State, []Effect, error) {
	if _, effects := h.lookup(ev); effects != nil {
		return st, effects, nil
	}
	return st, []Effect{{Command: CommandPrint}}, nil
}

func (h invoiceHandlers) download(ev Event, st State) (State, []Effect, error) {
	inv, effects := h.lookup(ev)
	if effects != nil {
		return st, effects, nil
	}
	return st, []Effect{{Command: CommandDownload, URL: DownloadPath(inv.Number)}}, nil
}

func (h invoiceHandlers) email(ev Event, st State) (State, []Effect, error) {
	inv, effects := h.lookup(ev)
	if effects != nil {
		return st, effects, nil
	}
	return st, []Effect{ToastEffect("Invoice would be emailed to "+inv.Email, toast.KindInfo)}, nil
}

// DownloadPath returns the URL path serving the text rendition of an invoice.
func DownloadPath(number string) string {
	return "/invoice/" + url.PathEscape(number) + "/download"
}
