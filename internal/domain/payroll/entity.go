package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/shopspring/decimal"
)

// PayrollStatus enum
type PayrollStatus string

const (
	PayrollStatusDraft PayrollStatus = "draft"
	PayrollStatusPaid  PayrollStatus = "paid"

	// PayrollStatusPending is how drafts are labelled in lists; accepted on input.
	PayrollStatusPending PayrollStatus = "pending"
)

// Normalize folds the pending alias into draft.
func (s PayrollStatus) Normalize() PayrollStatus {
	if s == PayrollStatusPending || s == "" {
		return PayrollStatusDraft
	}
	return s
}

func (s PayrollStatus) IsValid() bool {
	switch s {
	case PayrollStatusDraft, PayrollStatusPending, PayrollStatusPaid:
		return true
	}
	return false
}

// Period - Pay period a record covers
type Period struct {
	MonthRef string     `json:"month_ref"` // "2024-05"
	FromDate *time.Time `json:"from_date,omitempty"`
	ToDate   *time.Time `json:"to_date,omitempty"`
}

// ManualExpense - Ad-hoc deduction typed in by the operator
type ManualExpense struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// AllocationPlan maps liability id to the amount deducted in this run.
type AllocationPlan map[string]decimal.Decimal

// Total sums every planned allocation.
func (p AllocationPlan) Total() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range p {
		total = total.Add(amount)
	}
	return total
}

// Breakdown - Result of a salary computation
type Breakdown struct {
	BaseSalary          decimal.Decimal
	Allowances          decimal.Decimal
	AbsentDays          decimal.Decimal
	AbsentDeduction     decimal.Decimal
	ManualExpenses      []ManualExpense
	ManualExpensesTotal decimal.Decimal
	LinkedExpenses      []liability.Allocation
	DBExpensesTotal     decimal.Decimal
	ExtraDeductions     decimal.Decimal
	TotalDeductions     decimal.Decimal
	GrossSalary         decimal.Decimal
	NetSalary           decimal.Decimal

	// Shortfall is what flooring NetSalary at zero discarded.
	Shortfall decimal.Decimal
}

// SalaryRecord - Persisted payroll run for one employee and one period
type SalaryRecord struct {
	ID           string
	EmployeeID   string
	ProjectID    string
	Period       Period
	SalaryListID *string
	Breakdown
	Status    PayrollStatus
	PaidDate  *time.Time
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined fields
	EmployeeName *string
	ProjectName  *string
}

func (r SalaryRecord) IsPaid() bool {
	return r.Status == PayrollStatusPaid
}

// DisplayStatus is the label used in lists.
func (r SalaryRecord) DisplayStatus() string {
	if r.IsPaid() {
		return string(PayrollStatusPaid)
	}
	return string(PayrollStatusPending)
}
