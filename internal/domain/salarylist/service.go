package salarylist

import "context"

type SalaryListService interface {
	Create(ctx context.Context, req CreateSalaryListRequest) (SalaryListResponse, error)
	Get(ctx context.Context, id string) (SalaryListResponse, error)
	View(ctx context.Context, id string) (SalaryListResponse, error)

	// MarkEntryPaid is the best-effort write performed after a payroll run
	// linked to the list is finalized.
	MarkEntryPaid(ctx context.Context, listID, employeeID string) error

	// SyncPending repairs entries left pending by failed best-effort writes.
	SyncPending(ctx context.Context) (int, error)
}
