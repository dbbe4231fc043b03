package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSubscribers(t *testing.T) *SQLiteSubscribers {
	t.Helper()
	s, err := OpenSubscribers(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSubscribe(t *testing.T) {
	s := openTestSubscribers(t)
	ctx := context.Background()
	at := time.Date(2024, 12, 25, 14, 30, 0, 0, time.UTC)

	require.NoError(t, s.Subscribe(ctx, "rahman@example.com", at))
	require.NoError(t, s.Subscribe(ctx, "karim@example.com", at.Add(time.Minute)))

	subs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "rahman@example.com", subs[0].Email)
	assert.Equal(t, at, subs[0].SubscribedAt)
	assert.Equal(t, "karim@example.com", subs[1].Email)
}

func TestSubscribe_Duplicate(t *testing.T) {
	s := openTestSubscribers(t)
	ctx := context.Background()

	require.NoError(t, s.Subscribe(ctx, "rahman@example.com", time.Now()))
	err := s.Subscribe(ctx, "Rahman@Example.com", time.Now())
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	subs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestOpenSubscribers_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "storefront.db")
	ctx := context.Background()

	s, err := OpenSubscribers(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Subscribe(ctx, "rahman@example.com", time.Now()))
	require.NoError(t, s.Close())

	reopened, err := OpenSubscribers(ctx, path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	subs, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1, "subscribers survive reopen")
}

func TestOpenSubscribers_EmptyPath(t *testing.T) {
	_, err := OpenSubscribers(context.Background(), "", nil)
	assert.Error(t, err)
}
