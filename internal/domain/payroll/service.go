package payroll

import "context"

type PayrollService interface {
	// Planning & preview (no writes)
	ProposePlan(ctx context.Context, employeeID string) (AllocationPlanResponse, error)
	Preview(ctx context.Context, req CreatePayrollRunRequest) (BreakdownResponse, error)

	// Lifecycle
	Create(ctx context.Context, req CreatePayrollRunRequest) (PayrollRunResponse, error)
	Get(ctx context.Context, id string) (PayrollRunResponse, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]PayrollRunResponse, error)
	UpdateDraft(ctx context.Context, id string, req CreatePayrollRunRequest) (PayrollRunResponse, error)
	Finalize(ctx context.Context, id string) (FinalizeResponse, error)
	ResumeDraft(ctx context.Context, employeeID string, monthRef string) (PayrollRunResponse, error)
	Delete(ctx context.Context, id string) error
}
