package liability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const (
	readAttempts = 3
	readBackoff  = 50 * time.Millisecond
)

type LiabilityServiceImpl struct {
	tx            database.Transactor
	liabilityRepo liability.LiabilityRepository
	employees     employee.Directory
}

func NewLiabilityService(
	tx database.Transactor,
	liabilityRepo liability.LiabilityRepository,
	employees employee.Directory,
) liability.LiabilityService {
	return &LiabilityServiceImpl{
		tx:            tx,
		liabilityRepo: liabilityRepo,
		employees:     employees,
	}
}

func (s *LiabilityServiceImpl) Create(ctx context.Context, req liability.CreateLiabilityRequest) (liability.LiabilityResponse, error) {
	if err := req.Validate(); err != nil {
		return liability.LiabilityResponse{}, err
	}

	if _, err := s.employees.GetEmployee(ctx, req.EmployeeID); err != nil {
		return liability.LiabilityResponse{}, err
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if req.Date != "" {
		date, _ = validator.IsValidDate(req.Date)
	}

	created, err := s.liabilityRepo.Create(ctx, liability.Liability{
		EmployeeID:  req.EmployeeID,
		Kind:        liability.Kind(req.Kind),
		Amount:      req.Amount,
		PaidAmount:  decimal.Zero,
		Date:        date,
		Description: req.Description,
	})
	if err != nil {
		return liability.LiabilityResponse{}, fmt.Errorf("failed to create liability: %w", err)
	}

	slog.Info("liability created", "liability_id", created.ID, "employee_id", created.EmployeeID, "kind", created.Kind, "amount", created.Amount)
	return liability.ToResponse(created), nil
}

func (s *LiabilityServiceImpl) Get(ctx context.Context, id string) (liability.LiabilityResponse, error) {
	if !validator.IsValidUUID(id) {
		return liability.LiabilityResponse{}, liability.ErrLiabilityNotFound
	}

	l, err := database.RetryRead(ctx, readAttempts, readBackoff, func(ctx context.Context) (liability.Liability, error) {
		return s.liabilityRepo.GetByID(ctx, id)
	})
	if err != nil {
		return liability.LiabilityResponse{}, err
	}
	return liability.ToResponse(l), nil
}

// ListOutstanding returns liabilities with paid_amount < amount, oldest first.
func (s *LiabilityServiceImpl) ListOutstanding(ctx context.Context, employeeID string) ([]liability.Liability, error) {
	if !validator.IsValidUUID(employeeID) {
		return nil, validator.ValidationErrors{{Field: "employee_id", Message: "must be a valid UUID"}}
	}

	return database.RetryRead(ctx, readAttempts, readBackoff, func(ctx context.Context) ([]liability.Liability, error) {
		return s.liabilityRepo.ListByEmployee(ctx, employeeID, true)
	})
}

func (s *LiabilityServiceImpl) ListByEmployee(ctx context.Context, employeeID string) ([]liability.LiabilityResponse, error) {
	if !validator.IsValidUUID(employeeID) {
		return nil, validator.ValidationErrors{{Field: "employee_id", Message: "must be a valid UUID"}}
	}

	items, err := database.RetryRead(ctx, readAttempts, readBackoff, func(ctx context.Context) ([]liability.Liability, error) {
		return s.liabilityRepo.ListByEmployee(ctx, employeeID, false)
	})
	if err != nil {
		return nil, err
	}
	return liability.ToResponses(items), nil
}

// Delete removes a liability that has never been paid against.
func (s *LiabilityServiceImpl) Delete(ctx context.Context, id string) error {
	if !validator.IsValidUUID(id) {
		return liability.ErrLiabilityNotFound
	}

	if err := s.liabilityRepo.DeleteUnpaid(ctx, id); err != nil {
		return err
	}

	slog.Info("liability deleted", "liability_id", id)
	return nil
}

// ApplyAllocations increments paid_amount for each allocation. The whole
// batch is checked against locked rows before any write, and a failure
// leaves every liability untouched.
func (s *LiabilityServiceImpl) ApplyAllocations(ctx context.Context, employeeID string, allocations []liability.Allocation) ([]liability.Liability, error) {
	if len(allocations) == 0 {
		return []liability.Liability{}, nil
	}

	var applied []liability.Liability
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.liabilityRepo.LockByEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		byID := make(map[string]liability.Liability, len(locked))
		for _, l := range locked {
			byID[l.ID] = l
		}

		seen := make(map[string]bool, len(allocations))
		for _, a := range allocations {
			if seen[a.LiabilityID] {
				return fmt.Errorf("%w: %s", liability.ErrDuplicateAllocation, a.LiabilityID)
			}
			seen[a.LiabilityID] = true

			if !a.Amount.IsPositive() || validator.MoneyError(a.Amount) != "" {
				return fmt.Errorf("%w: %s", liability.ErrInvalidAllocation, a.LiabilityID)
			}

			l, ok := byID[a.LiabilityID]
			if !ok {
				if _, err := s.liabilityRepo.GetByID(ctx, a.LiabilityID); err == nil {
					return fmt.Errorf("%w: %s", liability.ErrLiabilityWrongOwner, a.LiabilityID)
				} else if !errors.Is(err, liability.ErrLiabilityNotFound) {
					return err
				}
				return fmt.Errorf("%w: %s", liability.ErrLiabilityNotFound, a.LiabilityID)
			}
			if !l.CanApply(a.Amount) {
				return fmt.Errorf("%w: %s requested %s, remaining %s",
					liability.ErrAllocationOverflow, a.LiabilityID, a.Amount, l.Remaining())
			}
		}

		applied = make([]liability.Liability, 0, len(allocations))
		for _, a := range allocations {
			updated, err := s.liabilityRepo.AddPaidAmount(ctx, a.LiabilityID, a.Amount)
			if err != nil {
				return err
			}
			applied = append(applied, updated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return applied, nil
}
