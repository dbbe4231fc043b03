package flash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/medihome/storefront/pkg/clock"
	"github.com/medihome/storefront/pkg/session"
)

// Flash categories, matching the alert classes in the page templates.
const (
	CategorySuccess = "success"
	CategoryDanger  = "danger"
	CategoryInfo    = "info"
	CategoryWarning = "warning"
)

// ErrEmptyMessage is returned when adding a flash message with no text.
var ErrEmptyMessage = errors.New("flash: empty message")

// Message is a flash message waiting to be rendered.
type Message struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Bag queues flash messages per browser session until the next render.
type Bag struct {
	store session.Store
	ttl   time.Duration
	clock clock.Clock
}

// NewBag creates a Bag backed by store. A session's queue expires ttl
// after its latest message.
func NewBag(store session.Store, ttl time.Duration, clk clock.Clock) *Bag {
	if clk == nil {
		clk = clock.New()
	}
	return &Bag{store: store, ttl: ttl, clock: clk}
}

// Add queues a message for sessionID. Unknown categories are stored as info.
func (b *Bag) Add(ctx context.Context, sessionID, category, text string) error {
	if text == "" {
		return ErrEmptyMessage
	}

	entry, err := json.Marshal(Message{Category: normalizeCategory(category), Text: text})
	if err != nil {
		return fmt.Errorf("flash: encode: %w", err)
	}
	if _, err := b.store.Append(ctx, sessionID, entry, b.clock.Now().Add(b.ttl)); err != nil {
		return fmt.Errorf("flash: append: %w", err)
	}
	return nil
}

// Pop returns the queued messages for sessionID in insertion order and
// clears the queue. Entries that fail to decode are skipped and reported
// in the returned error alongside the messages that did decode.
func (b *Bag) Pop(ctx context.Context, sessionID string) ([]Message, error) {
	entries, err := b.store.Take(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("flash: take: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	messages := make([]Message, 0, len(entries))
	var bad int
	for _, entry := range entries {
		var m Message
		if err := json.Unmarshal(entry, &m); err != nil {
			bad++
			continue
		}
		messages = append(messages, m)
	}
	if bad > 0 {
		return messages, fmt.Errorf("flash: %d of %d messages undecodable", bad, len(entries))
	}
	return messages, nil
}

func normalizeCategory(c string) string {
	switch c {
	case CategorySuccess, CategoryDanger, CategoryInfo, CategoryWarning:
		return c
	case "error":
		return CategoryDanger
	default:
		return CategoryInfo
	}
}
