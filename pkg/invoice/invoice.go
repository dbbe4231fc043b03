// Package invoice renders customer invoices as plain text for download.
package invoice

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"text/template"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an invoice number is unknown.
var ErrNotFound = errors.New("invoice: not found")

// ErrInvalidNumber is returned for malformed invoice numbers.
var ErrInvalidNumber = errors.New("invoice: invalid number")

var numberPattern = regexp.MustCompile(`^[A-Z]{2}-\d{4}-\d{1,8}$`)

// Line is one product on an invoice.
type Line struct {
	Name     string
	SKU      string
	Quantity int
	Price    decimal.Decimal
}

// Total returns quantity times price.
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Invoice is a customer invoice.
type Invoice struct {
	Number       string
	Date         string
	Time         string
	Status       string
	CustomerName string
	Phone        string
	Email        string
	Address      string
	OrderID      string
	Payment      string
	Transaction  string
	Lines        []Line
	Delivery     decimal.Decimal
	DiscountCode string
	DiscountRate decimal.Decimal // fraction of subtotal, e.g. 0.10
	VATRate      decimal.Decimal // fraction of discounted subtotal
	Instructions string
	Currency     string
}

// Subtotal returns the sum of all line totals.
func (inv *Invoice) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range inv.Lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// Discount returns the discount amount.
func (inv *Invoice) Discount() decimal.Decimal {
	return inv.Subtotal().Mul(inv.DiscountRate).Round(2)
}

// VAT returns the VAT charged on the discounted subtotal.
func (inv *Invoice) VAT() decimal.Decimal {
	return inv.Subtotal().Sub(inv.Discount()).Mul(inv.VATRate).Round(2)
}

// Total returns the amount payable.
func (inv *Invoice) Total() decimal.Decimal {
	return inv.Subtotal().Sub(inv.Discount()).Add(inv.Delivery).Add(inv.VAT())
}

// Filename returns the download filename for the invoice.
func (inv *Invoice) Filename() string {
	return "invoice-" + inv.Number + ".txt"
}

// ValidNumber reports whether number is a well-formed invoice number.
func ValidNumber(number string) bool {
	return numberPattern.MatchString(number)
}

// Terms are printed at the bottom of every invoice.
var Terms = []string{
	"All medicines are genuine and sourced from authorized distributors.",
	"Once delivered, medicines cannot be returned or exchanged.",
	"Please check the expiry date before consuming any medicine.",
	"Keep medicines out of reach of children.",
	"Consult your doctor before taking any medicine.",
	"MediHome is not responsible for any adverse effects from medicines.",
}

var textTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"money": func(cur string, d decimal.Decimal) string { return cur + d.StringFixed(2) },
	"upper": strings.ToUpper,
	"terms": func() []string { return Terms },
}).Parse(`MEDIHOME INVOICE
================
Invoice #: #{{.Number}}
Date: {{.Date}}
Time: {{.Time}}
Status: {{.Status}}

ORDERED BY:
Name: {{.CustomerName}}
Phone: {{.Phone}}
Email: {{.Email}}
Address: {{.Address}}

ORDER INFORMATION:
Order ID: {{.OrderID}}
Payment: {{.Payment}}
Transaction: {{.Transaction}}

PRODUCTS:
{{range $i, $l := .Lines}}{{inc $i}}. {{$l.Name}} (SKU: {{$l.SKU}}) - Qty: {{$l.Quantity}} - Price: {{money $.Currency $l.Price}} - Total: {{money $.Currency $l.Total}}
{{end}}
PRICING:
Subtotal: {{money .Currency .Subtotal}}
Delivery: {{money .Currency .Delivery}}
{{if .DiscountCode}}Discount ({{upper .DiscountCode}}): -{{money .Currency .Discount}}
{{end}}VAT: {{money .Currency .VAT}}
Total: {{money .Currency .Total}}
{{if .Instructions}}
SPECIAL INSTRUCTIONS:
{{.Instructions}}
{{end}}
TERMS & CONDITIONS:
{{range $i, $t := terms}}{{inc $i}}. {{$t}}
{{end}}`))

// WriteText renders inv as plain text to w.
func WriteText(w io.Writer, inv *Invoice) error {
	if err := textTemplate.Execute(w, inv); err != nil {
		return fmt.Errorf("invoice: render %s: %w", inv.Number, err)
	}
	return nil
}

// Repository looks up invoices by number.
type Repository interface {
	Get(number string) (*Invoice, error)
}

// MemoryRepository is an in-memory Repository.
type MemoryRepository struct {
	mu       sync.RWMutex
	invoices map[string]*Invoice
}

// NewMemoryRepository returns a repository holding invoices.
func NewMemoryRepository(invoices ...*Invoice) *MemoryRepository {
	r := &MemoryRepository{invoices: make(map[string]*Invoice)}
	for _, inv := range invoices {
		r.Put(inv)
	}
	return r
}

// Put stores inv, replacing any invoice with the same number.
func (r *MemoryRepository) Put(inv *Invoice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices[inv.Number] = inv
}

// Get returns the invoice for number.
func (r *MemoryRepository) Get(number string) (*Invoice, error) {
	if !ValidNumber(number) {
		return nil, ErrInvalidNumber
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.invoices[number]
	if !ok {
		return nil, ErrNotFound
	}
	return inv, nil
}
