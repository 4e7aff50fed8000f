package liability

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	employeesvc "github.com/cmlabs-hris/payroll-engine/internal/service/employee"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerID    = "0190a5e0-0000-7000-8000-0000000000c1"
	strangerID = "0190a5e0-0000-7000-8000-0000000000c2"
	missingID  = "0190a5e0-0000-7000-8000-0000000000ff"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setupLedger(t *testing.T) liability.LiabilityService {
	t.Helper()
	store := memory.NewStore()
	store.PutEmployee(employee.Employee{ID: ownerID, FullName: "Owner"})
	store.PutEmployee(employee.Employee{ID: strangerID, FullName: "Stranger"})

	directory := employeesvc.NewDirectory(memory.NewEmployeeRepository(store), nil)
	return NewLiabilityService(store, memory.NewLiabilityRepository(store), directory)
}

func createLiability(t *testing.T, svc liability.LiabilityService, employeeID, amount, date string) string {
	t.Helper()
	resp, err := svc.Create(context.Background(), liability.CreateLiabilityRequest{
		EmployeeID: employeeID,
		Kind:       string(liability.KindLoan),
		Amount:     d(amount),
		Date:       date,
	})
	require.NoError(t, err)
	return resp.ID
}

func TestLiabilityService_Create(t *testing.T) {
	svc := setupLedger(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, liability.CreateLiabilityRequest{
		EmployeeID: ownerID,
		Kind:       "advance",
		Amount:     d("450"),
		Date:       "2024-03-01",
	})

	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
	assert.True(t, resp.Remaining.Equal(d("450")))
	assert.Equal(t, "2024-03-01", resp.Date)

	_, err = svc.Create(ctx, liability.CreateLiabilityRequest{EmployeeID: ownerID, Kind: "gift", Amount: d("-1")})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)

	_, err = svc.Create(ctx, liability.CreateLiabilityRequest{EmployeeID: missingID, Kind: "loan", Amount: d("10")})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestLiabilityService_ListOutstanding(t *testing.T) {
	svc := setupLedger(t)
	ctx := context.Background()

	newer := createLiability(t, svc, ownerID, "100", "2024-04-01")
	older := createLiability(t, svc, ownerID, "200", "2024-01-01")
	settled := createLiability(t, svc, ownerID, "50", "2024-02-01")
	createLiability(t, svc, strangerID, "999", "2024-01-01")

	_, err := svc.ApplyAllocations(ctx, ownerID, []liability.Allocation{{LiabilityID: settled, Amount: d("50")}})
	require.NoError(t, err)

	items, err := svc.ListOutstanding(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, older, items[0].ID)
	assert.Equal(t, newer, items[1].ID)

	all, err := svc.ListByEmployee(ctx, ownerID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.ListOutstanding(ctx, "bogus")
	assert.Error(t, err)
}

func TestLiabilityService_ApplyAllocations(t *testing.T) {
	svc := setupLedger(t)
	ctx := context.Background()

	loan := createLiability(t, svc, ownerID, "1000", "2024-01-01")

	applied, err := svc.ApplyAllocations(ctx, ownerID, []liability.Allocation{{LiabilityID: loan, Amount: d("400")}})
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.True(t, applied[0].PaidAmount.Equal(d("400")))
	assert.Equal(t, liability.StatusPartial, applied[0].Status())

	applied, err = svc.ApplyAllocations(ctx, ownerID, []liability.Allocation{{LiabilityID: loan, Amount: d("600")}})
	require.NoError(t, err)
	assert.Equal(t, liability.StatusCompleted, applied[0].Status())

	applied, err = svc.ApplyAllocations(ctx, ownerID, nil)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestLiabilityService_ApplyAllocations_Rejects(t *testing.T) {
	svc := setupLedger(t)
	ctx := context.Background()

	loan := createLiability(t, svc, ownerID, "1000", "2024-01-01")
	advance := createLiability(t, svc, ownerID, "100", "2024-01-02")
	foreign := createLiability(t, svc, strangerID, "100", "2024-01-01")

	tests := []struct {
		name        string
		allocations []liability.Allocation
		wantErr     error
	}{
		{
			name:        "overflow",
			allocations: []liability.Allocation{{LiabilityID: loan, Amount: d("1000.01")}},
			wantErr:     liability.ErrAllocationOverflow,
		},
		{
			name:        "zero amount",
			allocations: []liability.Allocation{{LiabilityID: loan, Amount: decimal.Zero}},
			wantErr:     liability.ErrInvalidAllocation,
		},
		{
			name:        "sub-cent amount",
			allocations: []liability.Allocation{{LiabilityID: loan, Amount: d("99.995")}},
			wantErr:     liability.ErrInvalidAllocation,
		},
		{
			name:        "duplicate",
			allocations: []liability.Allocation{{LiabilityID: loan, Amount: d("1")}, {LiabilityID: loan, Amount: d("1")}},
			wantErr:     liability.ErrDuplicateAllocation,
		},
		{
			name:        "wrong owner",
			allocations: []liability.Allocation{{LiabilityID: foreign, Amount: d("1")}},
			wantErr:     liability.ErrLiabilityWrongOwner,
		},
		{
			name:        "missing",
			allocations: []liability.Allocation{{LiabilityID: missingID, Amount: d("1")}},
			wantErr:     liability.ErrLiabilityNotFound,
		},
		{
			name:        "second item overflows",
			allocations: []liability.Allocation{{LiabilityID: loan, Amount: d("500")}, {LiabilityID: advance, Amount: d("101")}},
			wantErr:     liability.ErrAllocationOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ApplyAllocations(ctx, ownerID, tt.allocations)
			assert.ErrorIs(t, err, tt.wantErr)

			// No partial writes.
			got, err := svc.Get(ctx, loan)
			require.NoError(t, err)
			assert.True(t, got.PaidAmount.IsZero())
		})
	}
}

func TestLiabilityService_Delete(t *testing.T) {
	svc := setupLedger(t)
	ctx := context.Background()

	unpaid := createLiability(t, svc, ownerID, "100", "2024-01-01")
	paid := createLiability(t, svc, ownerID, "100", "2024-01-01")
	_, err := svc.ApplyAllocations(ctx, ownerID, []liability.Allocation{{LiabilityID: paid, Amount: d("10")}})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, unpaid))
	_, err = svc.Get(ctx, unpaid)
	assert.ErrorIs(t, err, liability.ErrLiabilityNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, paid), liability.ErrDeletionBlocked)
	assert.ErrorIs(t, svc.Delete(ctx, missingID), liability.ErrLiabilityNotFound)
}
