package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

const (
	responsePrefix = "idempotency:response:"
	lockPrefix     = "idempotency:lock:"
)

// ErrKeyInUse means another request holding the same key has not finished
var ErrKeyInUse = errors.New("idempotency key is in use by another request")

// CachedResponse is a replayable HTTP outcome stored under an idempotency key.
// Fingerprint identifies the request body the response belongs to.
type CachedResponse struct {
	StatusCode  int             `json:"status_code"`
	Body        json.RawMessage `json:"body"`
	Fingerprint string          `json:"fingerprint"`
	StoredAt    time.Time       `json:"stored_at"`
}

// Lease is a held per-key lock
type Lease interface {
	Release(ctx context.Context) error
}

// IdempotencyStore caches responses of money-moving requests and serializes
// concurrent requests that share a key.
type IdempotencyStore struct {
	client     *goredislib.Client
	redsync    *redsync.Redsync
	ttl        time.Duration
	lockExpiry time.Duration
	logger     *slog.Logger
}

func NewIdempotencyStore(client *goredislib.Client, ttl, lockExpiry time.Duration, logger *slog.Logger) *IdempotencyStore {
	return &IdempotencyStore{
		client:     client,
		redsync:    redsync.New(goredis.NewPool(client)),
		ttl:        ttl,
		lockExpiry: lockExpiry,
		logger:     logger,
	}
}

// Get returns the cached response for key, or nil when none is stored
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*CachedResponse, error) {
	raw, err := s.client.Get(ctx, responsePrefix+key).Bytes()
	if errors.Is(err, goredislib.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotent response: %w", err)
	}

	var resp CachedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		// A corrupt entry must not block the key for the whole TTL.
		s.logger.Warn("Discarding undecodable idempotent response", "key", key, "error", err)
		if delErr := s.client.Del(ctx, responsePrefix+key).Err(); delErr != nil {
			return nil, fmt.Errorf("failed to discard idempotent response: %w", delErr)
		}
		return nil, nil
	}
	return &resp, nil
}

// Save stores resp under key for the configured TTL
func (s *IdempotencyStore) Save(ctx context.Context, key string, resp *CachedResponse) error {
	if resp.StoredAt.IsZero() {
		resp.StoredAt = time.Now().UTC()
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode idempotent response: %w", err)
	}
	if err := s.client.Set(ctx, responsePrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotent response: %w", err)
	}
	return nil
}

// Acquire takes the per-key lock without waiting. It returns ErrKeyInUse
// when another request already holds it.
func (s *IdempotencyStore) Acquire(ctx context.Context, key string) (Lease, error) {
	mutex := s.redsync.NewMutex(lockPrefix+key,
		redsync.WithExpiry(s.lockExpiry),
		redsync.WithTries(1),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if errors.Is(err, redsync.ErrFailed) || strings.Contains(err.Error(), "lock already taken") {
			return nil, ErrKeyInUse
		}
		return nil, fmt.Errorf("failed to acquire idempotency lock: %w", err)
	}
	return &lease{mutex: mutex, key: key, logger: s.logger}, nil
}

type lease struct {
	mutex  *redsync.Mutex
	key    string
	logger *slog.Logger
}

func (l *lease) Release(ctx context.Context) error {
	ok, err := l.mutex.UnlockContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to release idempotency lock: %w", err)
	}
	if !ok {
		l.logger.Warn("Idempotency lock expired before release", "key", l.key)
	}
	return nil
}
