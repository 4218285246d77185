package persistence

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mobile-money-ledger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	t.Run("connects", func(t *testing.T) {
		mr := miniredis.RunT(t)

		r, err := NewRedis(context.Background(), logger, &config.RedisConfig{Addr: mr.Addr()})
		require.NoError(t, err)

		require.NoError(t, r.Client().Set(context.Background(), "k", "v", 0).Err())
		got, err := mr.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
		assert.NoError(t, r.Close())
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewRedis(context.Background(), logger, &config.RedisConfig{Addr: addr})
		assert.ErrorContains(t, err, "failed to ping Redis")
	})
}
