package liability

import (
	"context"

	"github.com/shopspring/decimal"
)

// LiabilityRepository is the backing store of the ledger.
type LiabilityRepository interface {
	Create(ctx context.Context, l Liability) (Liability, error)
	GetByID(ctx context.Context, id string) (Liability, error)
	ListByEmployee(ctx context.Context, employeeID string, outstandingOnly bool) ([]Liability, error)

	// LockByEmployee row-locks every liability of the employee for the
	// rest of the surrounding transaction.
	LockByEmployee(ctx context.Context, employeeID string) ([]Liability, error)

	// AddPaidAmount increments paid_amount only when the result stays within
	// amount. Returns ErrAllocationOverflow otherwise.
	AddPaidAmount(ctx context.Context, id string, amount decimal.Decimal) (Liability, error)

	// DeleteUnpaid removes the liability only while paid_amount is zero.
	DeleteUnpaid(ctx context.Context, id string) error
}
