package redis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredislib.NewClient(&goredislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewIdempotencyStore(client, time.Hour, 5*time.Second, logger), mr
}

func TestIdempotencyStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	got, err := store.Get(ctx, "acct:key-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	resp := &CachedResponse{
		StatusCode:  201,
		Body:        json.RawMessage(`{"transaction_id":"TXN-20260101-0123456789ABCDEF"}`),
		Fingerprint: "abc",
	}
	require.NoError(t, store.Save(ctx, "acct:key-1", resp))
	assert.False(t, resp.StoredAt.IsZero())

	got, err = store.Get(ctx, "acct:key-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 201, got.StatusCode)
	assert.Equal(t, "abc", got.Fingerprint)
	assert.JSONEq(t, string(resp.Body), string(got.Body))

	assert.Equal(t, time.Hour, mr.TTL(responsePrefix+"acct:key-1"))

	mr.FastForward(time.Hour + time.Second)
	got, err = store.Get(ctx, "acct:key-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIdempotencyStore_CorruptEntryIsDiscarded(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	require.NoError(t, mr.Set(responsePrefix+"k", "{not json"))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists(responsePrefix+"k"))
}

func TestIdempotencyStore_Acquire(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)

	lease, err := store.Acquire(ctx, "acct:key-2")
	require.NoError(t, err)
	assert.True(t, mr.Exists(lockPrefix+"acct:key-2"))

	_, err = store.Acquire(ctx, "acct:key-2")
	assert.ErrorIs(t, err, ErrKeyInUse)

	other, err := store.Acquire(ctx, "acct:key-3")
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists(lockPrefix+"acct:key-2"))

	again, err := store.Acquire(ctx, "acct:key-2")
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestIdempotencyStore_RedisDown(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t)
	mr.Close()

	_, err := store.Get(ctx, "k")
	assert.ErrorContains(t, err, "failed to read idempotent response")

	err = store.Save(ctx, "k", &CachedResponse{StatusCode: 200})
	assert.ErrorContains(t, err, "failed to store idempotent response")

	_, err = store.Acquire(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrKeyInUse)
}
