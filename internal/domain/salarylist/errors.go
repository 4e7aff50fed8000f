package salarylist

import "errors"

var (
	ErrSalaryListNotFound  = errors.New("salary list not found")
	ErrEntryNotFound       = errors.New("employee is not on this salary list")
	ErrDuplicateEmployee   = errors.New("employee listed more than once on the salary list")
	ErrSalaryListDuplicate = errors.New("salary list already exists for this project, foreman and month")
)
