package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/project"
	"github.com/shopspring/decimal"
)

// Seed is the JSON document accepted by LoadSeedFile.
type Seed struct {
	Employees []struct {
		ID         string           `json:"id"`
		FullName   string           `json:"full_name"`
		Iqama      *string          `json:"iqama,omitempty"`
		Role       string           `json:"role"`
		BaseSalary *decimal.Decimal `json:"base_salary,omitempty"`
		Status     string           `json:"employment_status,omitempty"`
	} `json:"employees"`
	Projects []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"projects"`
}

// LoadSeedFile fills the directory tables from a JSON file. The memory
// driver has no other way to learn about employees and projects.
func LoadSeedFile(store *Store, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}

	for _, e := range seed.Employees {
		store.PutEmployee(employee.Employee{
			ID:               e.ID,
			FullName:         e.FullName,
			Iqama:            e.Iqama,
			Role:             e.Role,
			BaseSalary:       e.BaseSalary,
			EmploymentStatus: employee.EmploymentStatus(e.Status),
		})
	}
	for _, p := range seed.Projects {
		store.PutProject(project.Project{ID: p.ID, Name: p.Name})
	}
	return len(seed.Employees) + len(seed.Projects), nil
}
