package database

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPersistenceFailure marks transient store errors (connection loss,
// timeouts, serialization failures). Domain "not found" errors are never
// wrapped with it.
var ErrPersistenceFailure = errors.New("persistence failure")

// ErrInvalidData marks values the store refused as out of range or
// malformed (SQLSTATE class 22). Retrying cannot succeed.
var ErrInvalidData = errors.New("value rejected by store")

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceFailure
}

// Persistence wraps err as a persistence failure for operation op.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// RetryRead retries an idempotent read while it fails with
// ErrPersistenceFailure. Writes must never go through here.
func RetryRead[T any](ctx context.Context, attempts int, backoff time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrPersistenceFailure) {
			return zero, err
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff * time.Duration(i+1)):
		}
	}
	return zero, lastErr
}
