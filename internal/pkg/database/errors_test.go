package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistence_WrapsAndMatches(t *testing.T) {
	cause := errors.New("connection reset")
	err := Persistence("list liabilities", cause)

	assert.ErrorIs(t, err, ErrPersistenceFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "list liabilities: connection reset", err.Error())
	assert.NoError(t, Persistence("noop", nil))
}

func TestRetryRead_RetriesTransientFailures(t *testing.T) {
	calls := 0
	got, err := RetryRead(context.Background(), 3, time.Millisecond, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, Persistence("read", errors.New("timeout"))
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestRetryRead_DoesNotRetryDomainErrors(t *testing.T) {
	notFound := errors.New("not found")
	calls := 0
	_, err := RetryRead(context.Background(), 5, time.Millisecond, func(ctx context.Context) (string, error) {
		calls++
		return "", notFound
	})

	assert.ErrorIs(t, err, notFound)
	assert.Equal(t, 1, calls)
}

func TestRetryRead_GivesUpAfterAttempts(t *testing.T) {
	calls := 0
	_, err := RetryRead(context.Background(), 2, time.Millisecond, func(ctx context.Context) (string, error) {
		calls++
		return "", Persistence("read", errors.New("down"))
	})

	assert.ErrorIs(t, err, ErrPersistenceFailure)
	assert.Equal(t, 2, calls)
}
