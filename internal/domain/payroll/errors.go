package payroll

import "errors"

var (
	ErrPayrollRecordNotFound    = errors.New("payroll record not found")
	ErrIllegalState             = errors.New("payroll record is not in draft state")
	ErrPayrollRecordAlreadyPaid = errors.New("payroll record already paid, cannot modify")
	ErrDeletionBlocked          = errors.New("cannot delete paid payroll record")
	ErrEmployeeHasNoBaseSalary  = errors.New("employee has no base salary configured")
	ErrEmployeeNotFound         = errors.New("employee not found")
	ErrProjectNotFound          = errors.New("project not found")
	ErrSalaryListNotFound       = errors.New("salary list not found")
	ErrSalaryListProject        = errors.New("salary list belongs to a different project")
	ErrUnknownLiability         = errors.New("allocation references a liability that is not outstanding for this employee")
	ErrInvalidStatusTransition  = errors.New("payroll status can only be changed to paid")
	ErrNoDraftFound             = errors.New("no draft payroll run found for employee")
)
