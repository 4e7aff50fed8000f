package liability

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateLiabilityRequest struct {
	EmployeeID  string          `json:"employee_id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description *string         `json:"description,omitempty"`
}

func (r *CreateLiabilityRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	} else if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
	}
	if !Kind(r.Kind).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "kind", Message: "must be one of loan, reimbursement, advance, other"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be greater than zero"})
	} else if msg := validator.MoneyError(r.Amount); msg != "" {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: msg})
	}
	if r.Date != "" {
		if _, ok := validator.IsValidDate(r.Date); !ok {
			errs = append(errs, validator.ValidationError{Field: "date", Message: "must be in YYYY-MM-DD format"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type LiabilityResponse struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employee_id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Remaining   decimal.Decimal `json:"remaining"`
	Status      string          `json:"status"`
	Date        string          `json:"date"`
	Description *string         `json:"description,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

func ToResponse(l Liability) LiabilityResponse {
	return LiabilityResponse{
		ID:          l.ID,
		EmployeeID:  l.EmployeeID,
		Kind:        string(l.Kind),
		Amount:      l.Amount,
		PaidAmount:  l.PaidAmount,
		Remaining:   l.Remaining(),
		Status:      string(l.Status()),
		Date:        l.Date.Format("2006-01-02"),
		Description: l.Description,
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
	}
}

func ToResponses(items []Liability) []LiabilityResponse {
	result := make([]LiabilityResponse, 0, len(items))
	for _, l := range items {
		result = append(result, ToResponse(l))
	}
	return result
}
