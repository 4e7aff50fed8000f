package payroll

import (
	"context"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/shopspring/decimal"
)

const EventTypeRunFinalized = "payroll.run.finalized"

// RunFinalizedEvent is published once a salary record commits as paid.
type RunFinalizedEvent struct {
	PayrollRunID    string                 `json:"payroll_run_id"`
	EmployeeID      string                 `json:"employee_id"`
	ProjectID       string                 `json:"project_id"`
	MonthRef        string                 `json:"month_ref"`
	NetSalary       decimal.Decimal        `json:"net_salary"`
	DBExpensesTotal decimal.Decimal        `json:"db_expenses_total"`
	Allocations     []liability.Allocation `json:"allocations"`
	SalaryListID    *string                `json:"salary_list_id,omitempty"`
	PaidAt          time.Time              `json:"paid_at"`
}

type EventPublisher interface {
	PublishRunFinalized(ctx context.Context, event RunFinalizedEvent) error
}

type noopEventPublisher struct{}

func (noopEventPublisher) PublishRunFinalized(context.Context, RunFinalizedEvent) error {
	return nil
}

// NoopEventPublisher is used when no broker is configured.
func NoopEventPublisher() EventPublisher {
	return noopEventPublisher{}
}
