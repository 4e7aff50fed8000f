package salarylist

import "context"

type SalaryListRepository interface {
	Create(ctx context.Context, list SalaryList) (SalaryList, error)
	GetByID(ctx context.Context, id string) (SalaryList, error)

	// MarkEntryPaid sets the entry of employeeID on list listID to paid.
	// Marking an already paid entry is a no-op.
	MarkEntryPaid(ctx context.Context, listID, employeeID string) error

	// ListPendingLinked returns pending entries whose employee has a paid
	// salary record pointing at the same list.
	ListPendingLinked(ctx context.Context, limit int) ([]SalaryListEntry, error)
}
