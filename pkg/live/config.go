package live

import (
	"time"

	"github.com/medihome/storefront/pkg/flash"
	"github.com/medihome/storefront/pkg/protocol"
	"github.com/medihome/storefront/pkg/session"
	"github.com/medihome/storefront/pkg/toast"
)

// Config holds per-session settings.
type Config struct {
	// ReadTimeout is how long a connection may stay silent. Server pings
	// every HeartbeatInterval keep healthy clients inside it.
	// Default: 60s.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single frame write.
	// Default: 10s.
	WriteTimeout time.Duration

	// HeartbeatInterval is the WebSocket ping period.
	// Default: 25s.
	HeartbeatInterval time.Duration

	// MaxMessageSize is the largest client message accepted.
	// Default: protocol.MaxFrameSize.
	MaxMessageSize int64

	// SendQueue is the number of outbound frames buffered per session.
	// A client that falls this far behind is disconnected.
	// Default: 64.
	SendQueue int

	// EventQueue is the number of inbound frames buffered per session.
	// Default: 32.
	EventQueue int

	// ToastDuration is how long a toast stays visible.
	// Default: toast.DefaultDuration.
	ToastDuration time.Duration

	// ToastPolicy decides what a second Show does to the first one's
	// hide timer.
	// Default: toast.PolicyReplace.
	ToastPolicy toast.Policy

	// FlashStagger, FlashVisible and FlashFade shape the flash cascade.
	// Defaults: flash.DefaultStagger, flash.DefaultVisible, flash.DefaultFade.
	FlashStagger time.Duration
	FlashVisible time.Duration
	FlashFade    time.Duration

	// CookieName is the browser session cookie used to group tabs.
	// Default: session.DefaultCookieName.
	CookieName string

	// AllowedOrigins lists origins allowed to open the live channel.
	// Empty means same-origin only.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 25 * time.Second,
		MaxMessageSize:    protocol.MaxFrameSize,
		SendQueue:         64,
		EventQueue:        32,
		ToastDuration:     toast.DefaultDuration,
		ToastPolicy:       toast.PolicyReplace,
		FlashStagger:      flash.DefaultStagger,
		FlashVisible:      flash.DefaultVisible,
		FlashFade:         flash.DefaultFade,
		CookieName:        session.DefaultCookieName,
	}
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.AllowedOrigins != nil {
		clone.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	}
	return &clone
}

// withDefaults fills zero fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	out := c.Clone()
	if out == nil {
		return DefaultConfig()
	}
	d := DefaultConfig()
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.HeartbeatInterval <= 0 {
		out.HeartbeatInterval = d.HeartbeatInterval
	}
	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = d.MaxMessageSize
	}
	if out.SendQueue <= 0 {
		out.SendQueue = d.SendQueue
	}
	if out.EventQueue <= 0 {
		out.EventQueue = d.EventQueue
	}
	if out.ToastDuration <= 0 {
		out.ToastDuration = d.ToastDuration
	}
	if out.CookieName == "" {
		out.CookieName = d.CookieName
	}
	return out
}
