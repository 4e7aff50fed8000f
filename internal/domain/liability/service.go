package liability

import "context"

type LiabilityService interface {
	Create(ctx context.Context, req CreateLiabilityRequest) (LiabilityResponse, error)
	Get(ctx context.Context, id string) (LiabilityResponse, error)
	ListOutstanding(ctx context.Context, employeeID string) ([]Liability, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]LiabilityResponse, error)
	Delete(ctx context.Context, id string) error

	// ApplyAllocations joins the caller's transaction when ctx carries one,
	// so the increments commit or roll back with the payroll record.
	ApplyAllocations(ctx context.Context, employeeID string, allocations []Allocation) ([]Liability, error)
}
