package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"

	idempotencyLockTTL = 30 * time.Second
)

// CachedResponse is what gets stored under the idempotency key.
type CachedResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

func IdempotencyCacheKey(r *http.Request, key string) string {
	return "payroll:idemp:" + r.Method + ":" + r.URL.Path + ":" + key
}

// EncodeCachedResponse renders the stored value for a response.
func EncodeCachedResponse(status int, body []byte) (string, error) {
	payload, err := json.Marshal(CachedResponse{Status: status, Body: string(body)})
	return string(payload), err
}

// Idempotency replays the stored response of a mutating request carrying an
// Idempotency-Key header. A concurrent duplicate gets 409 while the first is
// in flight. With a nil client the middleware is a pass-through.
func Idempotency(rdb *redis.Client, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if rdb == nil || key == "" || r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			cacheKey := IdempotencyCacheKey(r, key)
			lockKey := cacheKey + ":lock"

			val, err := rdb.Get(ctx, cacheKey).Result()
			switch {
			case err == nil:
				var cached CachedResponse
				if json.Unmarshal([]byte(val), &cached) == nil {
					w.Header().Set("Content-Type", "application/json")
					w.Header().Set(ReplayedHeader, "true")
					w.WriteHeader(cached.Status)
					_, _ = w.Write([]byte(cached.Body))
					return
				}
			case !errors.Is(err, redis.Nil):
				slog.Warn("idempotency lookup failed, processing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			isNew, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
			if err != nil {
				slog.Warn("idempotency lock failed, processing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !isNew {
				response.ConflictWithCode(w, response.CodeProcessing, "A request with this Idempotency-Key is still being processed")
				return
			}
			// Released even when the handler panics, so retries are not
			// blocked until the lock expires.
			defer func() {
				if err := rdb.Del(context.WithoutCancel(ctx), lockKey).Err(); err != nil {
					slog.Warn("idempotency unlock failed", "error", err)
				}
			}()

			rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			// Server errors are not cached so the client can retry.
			if rec.status < http.StatusInternalServerError {
				if payload, err := EncodeCachedResponse(rec.status, rec.body.Bytes()); err == nil {
					if err := rdb.Set(ctx, cacheKey, payload, ttl).Err(); err != nil {
						slog.Warn("idempotency store failed", "error", err)
					}
				}
			}
		})
	}
}

type recordingWriter struct {
	http.ResponseWriter
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func (w *recordingWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}
