package server

import (
	"embed"
	"html/template"

	"github.com/medihome/storefront/pkg/flash"
	"github.com/medihome/storefront/pkg/invoice"
	"github.com/medihome/storefront/pkg/page"
	"github.com/shopspring/decimal"
)

// Paths the page refers to.
const (
	ClientPath = "/assets/storefront.js"
	LivePath   = "/live"
)

//go:embed assets/page.html.tmpl assets/storefront.js
var assets embed.FS

var pageTemplate = template.Must(template.New("page.html.tmpl").Funcs(template.FuncMap{
	"money": func(inv *invoice.Invoice, v decimal.Decimal) string {
		return inv.Currency + v.StringFixed(2)
	},
}).ParseFS(assets, "assets/page.html.tmpl"))

type faqEntry struct {
	Question string
	Answer   string
}

var faqEntries = []faqEntry{
	{"How fast is delivery?", "Orders inside Dhaka arrive within 24 hours. Other districts take two to three days."},
	{"Do I need a prescription?", "Prescription medicines need a valid prescription uploaded at checkout."},
	{"Can I return medicines?", "Once delivered, medicines cannot be returned or exchanged."},
	{"Which payment methods do you accept?", "bKash, Nagad, cards and cash on delivery."},
}

type pageData struct {
	Flashes    []flash.Message
	FAQ        []faqEntry
	Invoice    *invoice.Invoice
	ClientPath string
	LivePath   string

	// ToastMS is the toast duration for toasts the script shows itself.
	ToastMS int64

	// Shown by the script when a form post fails outright.
	ContactFailed   string
	SubscribeFailed string
}

// Events the page raises, exposed to the template.
func (pageData) Events() map[string]string {
	return map[string]string{
		"Theme":           page.EventThemeToggle,
		"Menu":            page.EventMenuToggle,
		"Dropdown":        page.EventDropdownToggle,
		"FAQ":             page.EventFAQToggle,
		"LiveChat":        page.EventLiveChat,
		"EmergencyChat":   page.EventEmergencyChat,
		"ContactButton":   page.EventContactButton,
		"InvoicePrint":    page.EventInvoicePrint,
		"InvoiceDownload": page.EventInvoiceDownload,
		"InvoiceEmail":    page.EventInvoiceEmail,
	}
}
