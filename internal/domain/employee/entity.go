package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is read-only here; it is owned by the employee directory.
type Employee struct {
	ID               string
	FullName         string
	Iqama            *string
	Role             string
	BaseSalary       *decimal.Decimal
	EmploymentStatus EmploymentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// HasBaseSalary reports whether a positive base salary is configured.
func (e Employee) HasBaseSalary() bool {
	return e.BaseSalary != nil && e.BaseSalary.IsPositive()
}
