package liability

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind enum
type Kind string

const (
	KindLoan          Kind = "loan"
	KindReimbursement Kind = "reimbursement"
	KindAdvance       Kind = "advance"
	KindOther         Kind = "other"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindLoan, KindReimbursement, KindAdvance, KindOther:
		return true
	}
	return false
}

// Status enum. Always derived from Amount/PaidAmount, never stored.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPartial   Status = "partial"
	StatusCompleted Status = "completed"
)

// Liability - Debt owed by an employee, paid down through payroll runs
type Liability struct {
	ID          string
	EmployeeID  string
	Kind        Kind
	Amount      decimal.Decimal
	PaidAmount  decimal.Decimal
	Date        time.Time
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (l Liability) Status() Status {
	switch {
	case l.PaidAmount.GreaterThanOrEqual(l.Amount):
		return StatusCompleted
	case l.PaidAmount.IsPositive():
		return StatusPartial
	default:
		return StatusPending
	}
}

func (l Liability) Remaining() decimal.Decimal {
	remaining := l.Amount.Sub(l.PaidAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// CanApply reports whether amount can be added to PaidAmount without
// exceeding Amount.
func (l Liability) CanApply(amount decimal.Decimal) bool {
	return amount.IsPositive() && l.PaidAmount.Add(amount).LessThanOrEqual(l.Amount)
}

// Allocation - Committed deduction against one liability
type Allocation struct {
	LiabilityID string          `json:"liability_id"`
	Amount      decimal.Decimal `json:"amount"`
}
