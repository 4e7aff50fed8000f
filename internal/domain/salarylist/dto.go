package salarylist

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateEntryRequest struct {
	EmployeeID string          `json:"employee_id"`
	Name       string          `json:"name"`
	Iqama      *string         `json:"iqama,omitempty"`
	Salary     decimal.Decimal `json:"salary"`
}

type CreateSalaryListRequest struct {
	ProjectID   string               `json:"project_id"`
	ForemanName string               `json:"foreman_name"`
	MonthRef    string               `json:"month_ref"`
	Entries     []CreateEntryRequest `json:"entries"`
}

func (r *CreateSalaryListRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ProjectID) {
		errs = append(errs, validator.ValidationError{Field: "project_id", Message: "must be a valid UUID"})
	}
	if validator.IsEmpty(r.ForemanName) {
		errs = append(errs, validator.ValidationError{Field: "foreman_name", Message: "is required"})
	}
	if !validator.IsValidMonthRef(r.MonthRef) {
		errs = append(errs, validator.ValidationError{Field: "month_ref", Message: "must be in YYYY-MM format"})
	}
	if len(r.Entries) == 0 {
		errs = append(errs, validator.ValidationError{Field: "entries", Message: "at least one entry is required"})
	}

	seen := make(map[string]bool, len(r.Entries))
	for i, e := range r.Entries {
		if !validator.IsValidUUID(e.EmployeeID) {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("entries[%d].employee_id", i), Message: "must be a valid UUID"})
		} else if seen[e.EmployeeID] {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("entries[%d].employee_id", i), Message: "is listed more than once"})
		}
		seen[e.EmployeeID] = true
		if validator.IsEmpty(e.Name) {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("entries[%d].name", i), Message: "is required"})
		}
		if e.Salary.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("entries[%d].salary", i), Message: "must be non-negative"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EntryResponse struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employee_id"`
	Name       string          `json:"name"`
	Iqama      *string         `json:"iqama,omitempty"`
	Salary     decimal.Decimal `json:"salary"`
	Status     string          `json:"status"`

	// Populated by View when a payroll run is linked to the sheet.
	PayrollRunID *string          `json:"payroll_run_id,omitempty"`
	NetSalary    *decimal.Decimal `json:"net_salary,omitempty"`
}

type SalaryListResponse struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	ForemanName string          `json:"foreman_name"`
	MonthRef    string          `json:"month_ref"`
	Entries     []EntryResponse `json:"entries"`
	TotalSalary decimal.Decimal `json:"total_salary"`
	PaidCount   int             `json:"paid_count"`
	CreatedAt   string          `json:"created_at"`
}

func ToResponse(l SalaryList) SalaryListResponse {
	resp := SalaryListResponse{
		ID:          l.ID,
		ProjectID:   l.ProjectID,
		ForemanName: l.ForemanName,
		MonthRef:    l.MonthRef,
		Entries:     make([]EntryResponse, 0, len(l.Entries)),
		TotalSalary: decimal.Zero,
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
	}
	for _, e := range l.Entries {
		resp.Entries = append(resp.Entries, EntryResponse{
			ID:         e.ID,
			EmployeeID: e.EmployeeID,
			Name:       e.Name,
			Iqama:      e.Iqama,
			Salary:     e.Salary,
			Status:     string(e.Status),
		})
		resp.TotalSalary = resp.TotalSalary.Add(e.Salary)
		if e.Status == EntryStatusPaid {
			resp.PaidCount++
		}
	}
	return resp
}
