package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== REQUEST DTOs ==========

type PeriodRequest struct {
	MonthRef string `json:"month_ref"`
	FromDate string `json:"from_date,omitempty"`
	ToDate   string `json:"to_date,omitempty"`
}

// CreatePayrollRunRequest is the command behind POST /payroll-runs, the
// preview endpoint and draft updates.
type CreatePayrollRunRequest struct {
	EmployeeID      string           `json:"employee_id"`
	ProjectID       string           `json:"project_id"`
	Period          PeriodRequest    `json:"period"`
	BaseSalary      *decimal.Decimal `json:"base_salary,omitempty"` // nil = employee directory salary
	Allowances      decimal.Decimal  `json:"allowances"`
	AbsentDays      decimal.Decimal  `json:"absent_days"`
	ManualExpenses  []ManualExpense  `json:"manual_expenses,omitempty"`
	AllocationPlan  AllocationPlan   `json:"allocation_plan,omitempty"` // nil = settle every outstanding liability in full
	ExtraDeductions decimal.Decimal  `json:"extra_deductions"`
	Status          string           `json:"status,omitempty"`
	SalaryListID    *string          `json:"salary_list_id,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

func (r *CreatePayrollRunRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	} else if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
	}
	if validator.IsEmpty(r.ProjectID) {
		errs = append(errs, validator.ValidationError{Field: "project_id", Message: "is required"})
	} else if !validator.IsValidUUID(r.ProjectID) {
		errs = append(errs, validator.ValidationError{Field: "project_id", Message: "must be a valid UUID"})
	}

	if validator.IsEmpty(r.Period.MonthRef) {
		errs = append(errs, validator.ValidationError{Field: "period.month_ref", Message: "is required"})
	} else if !validator.IsValidMonthRef(r.Period.MonthRef) {
		errs = append(errs, validator.ValidationError{Field: "period.month_ref", Message: "must be in YYYY-MM format"})
	}
	var from, to time.Time
	var hasFrom, hasTo bool
	if r.Period.FromDate != "" {
		if from, hasFrom = validator.IsValidDate(r.Period.FromDate); !hasFrom {
			errs = append(errs, validator.ValidationError{Field: "period.from_date", Message: "must be in YYYY-MM-DD format"})
		}
	}
	if r.Period.ToDate != "" {
		if to, hasTo = validator.IsValidDate(r.Period.ToDate); !hasTo {
			errs = append(errs, validator.ValidationError{Field: "period.to_date", Message: "must be in YYYY-MM-DD format"})
		}
	}
	if hasFrom && hasTo && from.After(to) {
		errs = append(errs, validator.ValidationError{Field: "period.to_date", Message: "must not be before from_date"})
	}

	if r.BaseSalary != nil {
		if !r.BaseSalary.IsPositive() {
			errs = append(errs, validator.ValidationError{Field: "base_salary", Message: "must be greater than zero"})
		} else if msg := validator.MoneyError(*r.BaseSalary); msg != "" {
			errs = append(errs, validator.ValidationError{Field: "base_salary", Message: msg})
		}
	}
	errs = appendAmountErr(errs, "allowances", r.Allowances)
	if !validator.IsNonNegative(r.AbsentDays) {
		errs = append(errs, validator.ValidationError{Field: "absent_days", Message: "must be non-negative"})
	} else if msg := validator.DaysError(r.AbsentDays); msg != "" {
		errs = append(errs, validator.ValidationError{Field: "absent_days", Message: msg})
	}
	errs = appendAmountErr(errs, "extra_deductions", r.ExtraDeductions)
	for i, e := range r.ManualExpenses {
		errs = appendAmountErr(errs, fmt.Sprintf("manual_expenses[%d].amount", i), e.Amount)
	}
	for id, amount := range r.AllocationPlan {
		if !validator.IsValidUUID(id) {
			errs = append(errs, validator.ValidationError{Field: "allocation_plan", Message: "keys must be liability UUIDs"})
			break
		}
		// Sign is not checked here; the planner clamps overrides silently.
		if msg := validator.MoneyError(amount); msg != "" {
			errs = append(errs, validator.ValidationError{Field: "allocation_plan." + id, Message: msg})
		}
	}
	if r.Status != "" && !PayrollStatus(r.Status).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be draft, pending or paid"})
	}
	if r.SalaryListID != nil && !validator.IsValidUUID(*r.SalaryListID) {
		errs = append(errs, validator.ValidationError{Field: "salary_list_id", Message: "must be a valid UUID"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// appendAmountErr checks a non-negative money field.
func appendAmountErr(errs validator.ValidationErrors, field string, d decimal.Decimal) validator.ValidationErrors {
	if !validator.IsNonNegative(d) {
		return append(errs, validator.ValidationError{Field: field, Message: "must be non-negative"})
	}
	if msg := validator.MoneyError(d); msg != "" {
		return append(errs, validator.ValidationError{Field: field, Message: msg})
	}
	return errs
}

// ToPeriod converts the validated request period.
func (r *CreatePayrollRunRequest) ToPeriod() Period {
	p := Period{MonthRef: r.Period.MonthRef}
	if t, ok := validator.IsValidDate(r.Period.FromDate); ok {
		p.FromDate = &t
	}
	if t, ok := validator.IsValidDate(r.Period.ToDate); ok {
		p.ToDate = &t
	}
	return p
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateStatusRequest) Validate() error {
	if PayrollStatus(r.Status) != PayrollStatusPaid {
		return validator.ValidationErrors{{Field: "status", Message: "only 'paid' is accepted"}}
	}
	return nil
}

// ========== RESPONSE DTOs ==========

type AllocationProposal struct {
	LiabilityID string          `json:"liability_id"`
	Kind        string          `json:"kind"`
	Description *string         `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Remaining   decimal.Decimal `json:"remaining"`
	Proposed    decimal.Decimal `json:"proposed"`
}

type AllocationPlanResponse struct {
	EmployeeID string               `json:"employee_id"`
	Items      []AllocationProposal `json:"items"`
	Total      decimal.Decimal      `json:"total"`
}

type BreakdownResponse struct {
	BaseSalary          decimal.Decimal        `json:"base_salary"`
	Allowances          decimal.Decimal        `json:"allowances"`
	AbsentDays          decimal.Decimal        `json:"absent_days"`
	AbsentDeduction     decimal.Decimal        `json:"absent_deduction"`
	ManualExpenses      []ManualExpense        `json:"manual_expenses"`
	ManualExpensesTotal decimal.Decimal        `json:"manual_expenses_total"`
	LinkedExpenses      []liability.Allocation `json:"linked_expenses"`
	DBExpensesTotal     decimal.Decimal        `json:"db_expenses_total"`
	ExtraDeductions     decimal.Decimal        `json:"extra_deductions"`
	TotalDeductions     decimal.Decimal        `json:"total_deductions"`
	GrossSalary         decimal.Decimal        `json:"gross_salary"`
	NetSalary           decimal.Decimal        `json:"net_salary"`
	Shortfall           decimal.Decimal        `json:"shortfall"`
}

type PayrollRunResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName *string `json:"employee_name,omitempty"`
	ProjectID    string  `json:"project_id"`
	ProjectName  *string `json:"project_name,omitempty"`
	MonthRef     string  `json:"month_ref"`
	FromDate     *string `json:"from_date,omitempty"`
	ToDate       *string `json:"to_date,omitempty"`
	BreakdownResponse
	Status       string  `json:"status"`
	PaidDate     *string `json:"paid_date,omitempty"`
	SalaryListID *string `json:"salary_list_id,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type FinalizeResponse struct {
	Record             PayrollRunResponse            `json:"record"`
	AppliedLiabilities []liability.LiabilityResponse `json:"applied_liabilities"`

	// SheetSynced is nil when the record is not linked to a batch sheet.
	SheetSynced *bool `json:"sheet_synced,omitempty"`
}

// ========== MAPPERS ==========

func ToBreakdownResponse(b Breakdown) BreakdownResponse {
	manual := b.ManualExpenses
	if manual == nil {
		manual = []ManualExpense{}
	}
	linked := b.LinkedExpenses
	if linked == nil {
		linked = []liability.Allocation{}
	}
	return BreakdownResponse{
		BaseSalary:          b.BaseSalary,
		Allowances:          b.Allowances,
		AbsentDays:          b.AbsentDays,
		AbsentDeduction:     b.AbsentDeduction,
		ManualExpenses:      manual,
		ManualExpensesTotal: b.ManualExpensesTotal,
		LinkedExpenses:      linked,
		DBExpensesTotal:     b.DBExpensesTotal,
		ExtraDeductions:     b.ExtraDeductions,
		TotalDeductions:     b.TotalDeductions,
		GrossSalary:         b.GrossSalary,
		NetSalary:           b.NetSalary,
		Shortfall:           b.Shortfall,
	}
}

func ToRunResponse(r SalaryRecord) PayrollRunResponse {
	var fromStr, toStr, paidStr *string
	if r.Period.FromDate != nil {
		str := r.Period.FromDate.Format("2006-01-02")
		fromStr = &str
	}
	if r.Period.ToDate != nil {
		str := r.Period.ToDate.Format("2006-01-02")
		toStr = &str
	}
	if r.PaidDate != nil {
		str := r.PaidDate.Format(time.RFC3339)
		paidStr = &str
	}

	return PayrollRunResponse{
		ID:                r.ID,
		EmployeeID:        r.EmployeeID,
		EmployeeName:      r.EmployeeName,
		ProjectID:         r.ProjectID,
		ProjectName:       r.ProjectName,
		MonthRef:          r.Period.MonthRef,
		FromDate:          fromStr,
		ToDate:            toStr,
		BreakdownResponse: ToBreakdownResponse(r.Breakdown),
		Status:            r.DisplayStatus(),
		PaidDate:          paidStr,
		SalaryListID:      r.SalaryListID,
		Notes:             r.Notes,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         r.UpdatedAt.Format(time.RFC3339),
	}
}

func ToRunResponses(records []SalaryRecord) []PayrollRunResponse {
	result := make([]PayrollRunResponse, 0, len(records))
	for _, r := range records {
		result = append(result, ToRunResponse(r))
	}
	return result
}
