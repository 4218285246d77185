package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mobile-money-ledger/internal/data/redis"
	"github.com/mobile-money-ledger/internal/domain/shared"
)

const (
	// IdempotencyKeyHeader carries the client-chosen key of a money-moving request
	IdempotencyKeyHeader = "Idempotency-Key"

	// IdempotentReplayHeader marks a response served from the cache
	IdempotentReplayHeader = "Idempotent-Replayed"

	maxIdempotencyKeyLength = 128

	// MaxIdempotentBodyBytes caps the body read for fingerprinting
	MaxIdempotentBodyBytes = 64 << 10
)

// IdempotencyStore caches responses per key and serializes requests sharing one
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*redis.CachedResponse, error)
	Save(ctx context.Context, key string, resp *redis.CachedResponse) error
	Acquire(ctx context.Context, key string) (redis.Lease, error)
}

// Idempotency replays the stored outcome of a request whose key was already
// used by the same caller. A key reused with a different body is refused.
// It must run after Authenticate.
func Idempotency(store IdempotencyStore, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || len(key) > maxIdempotencyKeyLength {
			abortWithError(c, shared.NewError(shared.KindInvalidArgument, shared.FailureReasonInvalidRequest,
				"Idempotency-Key header is required and must be at most 128 characters"))
			return
		}

		callerID, _, ok := GetCaller(c)
		if !ok {
			abortWithError(c, shared.NewError(shared.KindUnauthorized, shared.FailureReasonInvalidToken, "missing caller"))
			return
		}
		scoped := callerID.String() + ":" + key

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxIdempotentBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
					ErrorBody(c, string(shared.FailureReasonInvalidRequest), "request body is too large"))
				return
			}
			abortWithError(c, shared.NewError(shared.KindInvalidArgument, shared.FailureReasonInvalidRequest, "unreadable request body"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		fingerprint := fingerprintOf(c.Request.Method, c.FullPath(), body)

		log := logger.With("idempotency_key", key, "correlation_id", GetCorrelationID(c))
		ctx := c.Request.Context()

		if replayed := replay(c, store, scoped, fingerprint, log); replayed {
			return
		}

		lease, err := store.Acquire(ctx, scoped)
		if err != nil {
			if errors.Is(err, redis.ErrKeyInUse) {
				abortWithError(c, shared.NewError(shared.KindConflict, shared.FailureReasonRequestInProgress,
					"a request with this Idempotency-Key is still in progress"))
				return
			}
			log.Error("Failed to acquire idempotency lock", "error", err)
			abortWithError(c, shared.WrapError(shared.KindInternal, shared.FailureReasonStoreFailure, "idempotency store unavailable", err))
			return
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to release idempotency lock", "error", err)
			}
		}()

		// The previous holder may have finished between the first lookup and the lock.
		if replayed := replay(c, store, scoped, fingerprint, log); replayed {
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		status := recorder.Status()
		if !cacheable(status) {
			return
		}
		resp := &redis.CachedResponse{
			StatusCode:  status,
			Body:        recorder.body.Bytes(),
			Fingerprint: fingerprint,
		}
		if err := store.Save(context.WithoutCancel(ctx), scoped, resp); err != nil {
			log.Error("Failed to store idempotent response", "error", err)
		}
	}
}

// replay writes the cached outcome for key if one exists and reports whether
// the request was answered.
func replay(c *gin.Context, store IdempotencyStore, key, fingerprint string, log *slog.Logger) bool {
	cached, err := store.Get(c.Request.Context(), key)
	if err != nil {
		log.Error("Failed to read idempotent response", "error", err)
		abortWithError(c, shared.WrapError(shared.KindInternal, shared.FailureReasonStoreFailure, "idempotency store unavailable", err))
		return true
	}
	if cached == nil {
		return false
	}
	if cached.Fingerprint != fingerprint {
		abortWithError(c, shared.NewError(shared.KindConflict, shared.FailureReasonIdempotencyKeyReused,
			"Idempotency-Key was already used with a different request"))
		return true
	}

	log.Info("Replaying idempotent response", "status", cached.StatusCode)
	c.Header(IdempotentReplayHeader, "true")
	c.Data(cached.StatusCode, "application/json; charset=utf-8", cached.Body)
	c.Abort()
	return true
}

// cacheable keeps final outcomes only. Conflicts and throttling are transient
// and the client is expected to retry them with the same key.
func cacheable(status int) bool {
	if status == http.StatusConflict || status == http.StatusTooManyRequests {
		return false
	}
	return status >= 200 && status < 500
}

func fingerprintOf(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
