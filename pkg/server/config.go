package server

import (
	"fmt"
	"time"

	"github.com/medihome/storefront/pkg/invoice"
	"github.com/medihome/storefront/pkg/session"
)

// Config configures the HTTP server.
type Config struct {
	// Address is the listen address.
	// Default: ":8080".
	Address string

	// ReadHeaderTimeout bounds reading request headers.
	// Default: 5s.
	ReadHeaderTimeout time.Duration

	// ReadTimeout bounds reading a whole request.
	// Default: 15s.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing a response. The live channel hijacks its
	// connection and is not subject to it.
	// Default: 15s.
	WriteTimeout time.Duration

	// IdleTimeout bounds keep-alive connections.
	// Default: 60s.
	IdleTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s.
	ShutdownTimeout time.Duration

	// CookieName is the browser session cookie.
	// Default: session.DefaultCookieName.
	CookieName string

	// SessionTTL is the lifetime of the browser session cookie and of
	// queued flash messages.
	// Default: 24h.
	SessionTTL time.Duration

	// MetricsPath serves Prometheus metrics when non-empty and a gatherer
	// is configured.
	// Default: "/metrics".
	MetricsPath string

	// InvoiceNumber is the invoice shown on the page.
	// Default: the sample invoice.
	InvoiceNumber string

	// DevMode disables client script caching.
	DevMode bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   15 * time.Second,
		CookieName:        session.DefaultCookieName,
		SessionTTL:        24 * time.Hour,
		MetricsPath:       "/metrics",
		InvoiceNumber:     invoice.Sample().Number,
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("server: address cannot be empty")
	}
	if c.CookieName == "" {
		return fmt.Errorf("server: cookie name cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("server: session ttl must be positive, got %s", c.SessionTTL)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("server: shutdown timeout cannot be negative")
	}
	return nil
}

// withDefaults returns a copy with zero fields filled from DefaultConfig.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = d.IdleTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.CookieName == "" {
		out.CookieName = d.CookieName
	}
	if out.SessionTTL == 0 {
		out.SessionTTL = d.SessionTTL
	}
	if out.InvoiceNumber == "" {
		out.InvoiceNumber = d.InvoiceNumber
	}
	return &out
}
