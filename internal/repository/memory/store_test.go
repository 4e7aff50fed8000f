package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLiability(t *testing.T, repo liability.LiabilityRepository) liability.Liability {
	t.Helper()
	l, err := repo.Create(context.Background(), liability.Liability{
		EmployeeID: "emp-1",
		Kind:       liability.KindLoan,
		Amount:     decimal.NewFromInt(100),
		PaidAmount: decimal.Zero,
	})
	require.NoError(t, err)
	return l
}

func TestStore_WithinTransaction_RollsBackOnError(t *testing.T) {
	store := NewStore()
	repo := NewLiabilityRepository(store)
	l := seedLiability(t, repo)

	boom := errors.New("boom")
	err := store.WithinTransaction(context.Background(), func(ctx context.Context) error {
		_, err := repo.AddPaidAmount(ctx, l.ID, decimal.NewFromInt(40))
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.IsZero())
}

func TestStore_WithinTransaction_NestedJoinsOuter(t *testing.T) {
	store := NewStore()
	repo := NewLiabilityRepository(store)
	l := seedLiability(t, repo)

	err := store.WithinTransaction(context.Background(), func(ctx context.Context) error {
		if err := store.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := repo.AddPaidAmount(ctx, l.ID, decimal.NewFromInt(40))
			return err
		}); err != nil {
			return err
		}
		return errors.New("outer fails")
	})
	require.Error(t, err)

	got, err := repo.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.IsZero(), "inner write must roll back with the outer transaction")
}

func TestStore_WithinTransaction_CancelledContext(t *testing.T) {
	store := NewStore()
	repo := NewLiabilityRepository(store)
	l := seedLiability(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := repo.AddPaidAmount(ctx, l.ID, decimal.NewFromInt(40))
		cancel()
		return err
	})
	assert.ErrorIs(t, err, database.ErrPersistenceFailure)

	got, err := repo.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.IsZero())
}

func TestLiabilityRepository_AddPaidAmountGuard(t *testing.T) {
	store := NewStore()
	repo := NewLiabilityRepository(store)
	l := seedLiability(t, repo)
	ctx := context.Background()

	_, err := repo.AddPaidAmount(ctx, l.ID, decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = repo.AddPaidAmount(ctx, l.ID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, liability.ErrAllocationOverflow)

	assert.ErrorIs(t, repo.DeleteUnpaid(ctx, l.ID), liability.ErrDeletionBlocked)
}
