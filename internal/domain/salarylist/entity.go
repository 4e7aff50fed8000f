package salarylist

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus enum
type EntryStatus string

const (
	EntryStatusPending EntryStatus = "pending"
	EntryStatusPaid    EntryStatus = "paid"
)

// SalaryList - Monthly batch sheet for one project and foreman
type SalaryList struct {
	ID          string
	ProjectID   string
	ForemanName string
	MonthRef    string
	Entries     []SalaryListEntry
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SalaryListEntry - One roster row of a batch sheet
type SalaryListEntry struct {
	ID           string
	SalaryListID string
	EmployeeID   string
	Name         string
	Iqama        *string
	Salary       decimal.Decimal
	Status       EntryStatus
	UpdatedAt    time.Time
}
