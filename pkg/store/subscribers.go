package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver" // SQLite driver (pure Go)
	_ "github.com/ncruces/go-sqlite3/embed"  // Embed SQLite WASM binary
)

// ErrAlreadySubscribed is returned when the address is already on the list.
var ErrAlreadySubscribed = errors.New("store: already subscribed")

// Subscriber is a newsletter subscriber.
type Subscriber struct {
	Email        string
	SubscribedAt time.Time
}

// SubscriberStore persists newsletter subscribers.
type SubscriberStore interface {
	Subscribe(ctx context.Context, email string, at time.Time) error
	List(ctx context.Context) ([]Subscriber, error)
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS newsletter_subscribers (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
	subscribed_at INTEGER NOT NULL
);`

// SQLiteSubscribers is a SubscriberStore backed by SQLite.
type SQLiteSubscribers struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSubscribers opens (creating if needed) the subscriber database at
// path. Use ":memory:" for a throwaway database.
func OpenSubscribers(ctx context.Context, path string, logger *slog.Logger) (*SQLiteSubscribers, error) {
	if path == "" {
		return nil, fmt.Errorf("store: database path cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("store: create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite is single-writer; one long-lived connection also keeps an
	// in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	logger.Info("subscriber database ready", "path", path)
	return &SQLiteSubscribers{db: db, logger: logger}, nil
}

// Subscribe adds email to the list. Addresses are compared
// case-insensitively.
func (s *SQLiteSubscribers) Subscribe(ctx context.Context, email string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO newsletter_subscribers (email, subscribed_at) VALUES (?, ?)
		 ON CONFLICT(email) DO NOTHING`,
		email, at.UTC().Unix())
	if err != nil {
		return fmt.Errorf("store: subscribe: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: subscribe: %w", err)
	}
	if n == 0 {
		return ErrAlreadySubscribed
	}
	return nil
}

// List returns all subscribers, oldest first.
func (s *SQLiteSubscribers) List(ctx context.Context) ([]Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT email, subscribed_at FROM newsletter_subscribers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list subscribers: %w", err)
	}
	defer rows.Close()

	var out []Subscriber
	for rows.Next() {
		var (
			sub Subscriber
			ts  int64
		)
		if err := rows.Scan(&sub.Email, &ts); err != nil {
			return nil, fmt.Errorf("store: scan subscriber: %w", err)
		}
		sub.SubscribedAt = time.Unix(ts, 0).UTC()
		out = append(out, sub)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteSubscribers) Close() error {
	return s.db.Close()
}
