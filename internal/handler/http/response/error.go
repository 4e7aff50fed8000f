package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/project"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salarylist"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayrollRecordNotFound):
		NotFound(w, "Payroll run not found")
	case errors.Is(err, payroll.ErrNoDraftFound):
		NotFound(w, "No draft payroll run found")
	case errors.Is(err, payroll.ErrIllegalState):
		ConflictWithCode(w, CodeInvalidState, "Payroll run is already paid")
	case errors.Is(err, payroll.ErrPayrollRecordAlreadyPaid):
		ConflictWithCode(w, CodeInvalidState, "Payroll run already paid, cannot modify")
	case errors.Is(err, payroll.ErrDeletionBlocked):
		ConflictWithCode(w, CodeDeletionBlocked, "Paid payroll runs cannot be deleted")
	case errors.Is(err, payroll.ErrEmployeeNotFound):
		BadRequest(w, "Employee not found", map[string]string{"employee_id": "does not exist"})
	case errors.Is(err, payroll.ErrProjectNotFound):
		BadRequest(w, "Project not found", map[string]string{"project_id": "does not exist"})
	case errors.Is(err, payroll.ErrSalaryListNotFound):
		BadRequest(w, "Salary list not found", map[string]string{"salary_list_id": "does not exist"})
	case errors.Is(err, payroll.ErrSalaryListProject):
		BadRequest(w, "Salary list belongs to a different project", map[string]string{"salary_list_id": "project mismatch"})
	case errors.Is(err, payroll.ErrEmployeeHasNoBaseSalary):
		BadRequest(w, "Employee has no base salary configured", map[string]string{"base_salary": "is required"})
	case errors.Is(err, payroll.ErrUnknownLiability):
		BadRequest(w, "Allocation plan references a liability that is not outstanding", map[string]string{"allocation_plan": "unknown liability"})

	// Liability domain errors
	case errors.Is(err, liability.ErrLiabilityNotFound):
		NotFound(w, "Liability not found")
	case errors.Is(err, liability.ErrAllocationOverflow):
		ConflictWithCode(w, CodeAllocationOverflow, "Allocation exceeds the remaining liability balance")
	case errors.Is(err, liability.ErrDeletionBlocked):
		ConflictWithCode(w, CodeDeletionBlocked, "Liability has payments recorded, cannot delete")
	case errors.Is(err, liability.ErrDuplicateAllocation),
		errors.Is(err, liability.ErrInvalidAllocation),
		errors.Is(err, liability.ErrLiabilityWrongOwner):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, liability.ErrInvalidLiabilityValue), errors.Is(err, liability.ErrInvalidLiabilityKind):
		BadRequest(w, err.Error(), nil)

	// Salary list domain errors
	case errors.Is(err, salarylist.ErrSalaryListNotFound):
		NotFound(w, "Salary list not found")
	case errors.Is(err, salarylist.ErrEntryNotFound):
		NotFound(w, "Employee is not on this salary list")
	case errors.Is(err, salarylist.ErrSalaryListDuplicate):
		Conflict(w, "Salary list already exists for this project, foreman and month")
	case errors.Is(err, salarylist.ErrDuplicateEmployee):
		Conflict(w, "Employee listed more than once on the salary list")

	// Directory errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, project.ErrProjectNotFound):
		NotFound(w, "Project not found")

	// Infrastructure
	case errors.Is(err, database.ErrInvalidData):
		writeError(w, http.StatusUnprocessableEntity, CodeValidation, "Value out of range", nil)
	case errors.Is(err, database.ErrPersistenceFailure),
		errors.Is(err, context.DeadlineExceeded):
		slog.Error("persistence failure", "error", err)
		ServiceUnavailable(w, "Storage temporarily unavailable, retry later")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
