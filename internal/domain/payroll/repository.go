package payroll

import (
	"context"
	"time"
)

// PayrollRepository defines data access methods for salary records.
type PayrollRepository interface {
	Create(ctx context.Context, record SalaryRecord) (SalaryRecord, error)
	GetByID(ctx context.Context, id string) (SalaryRecord, error)

	// GetByIDForUpdate row-locks the record for the surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id string) (SalaryRecord, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]SalaryRecord, error)

	// LatestUnpaid returns the most recently updated non-paid record. An empty
	// monthRef leaves the lookup unscoped.
	LatestUnpaid(ctx context.Context, employeeID string, monthRef string) (SalaryRecord, error)

	// ListPaidBySalaryList returns paid records linked to a batch sheet.
	ListPaidBySalaryList(ctx context.Context, salaryListID string) ([]SalaryRecord, error)

	// UpdateDraft overwrites the breakdown of a record still in draft.
	UpdateDraft(ctx context.Context, record SalaryRecord) (SalaryRecord, error)

	// MarkPaid flips a draft to paid. Returns ErrIllegalState when the record
	// is no longer draft.
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (SalaryRecord, error)

	// DeleteDraft removes a draft; paid records yield ErrDeletionBlocked.
	DeleteDraft(ctx context.Context, id string) error
}
