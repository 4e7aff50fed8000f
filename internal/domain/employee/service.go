package employee

import "context"

// Directory is the read-only employee lookup consumed by payroll.
type Directory interface {
	GetEmployee(ctx context.Context, id string) (Employee, error)

	// GetEmployeeFresh skips any cache. Used where the salary is snapshotted.
	GetEmployeeFresh(ctx context.Context, id string) (Employee, error)
}
