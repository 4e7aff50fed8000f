package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/project"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salarylist"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// SheetUpdater receives the best-effort batch sheet write after a linked
// record is finalized.
type SheetUpdater interface {
	MarkEntryPaid(ctx context.Context, listID, employeeID string) error
}

type PayrollServiceImpl struct {
	tx          database.Transactor
	payrollRepo payroll.PayrollRepository
	ledger      liability.LiabilityService
	employees   employee.Directory
	projectRepo project.ProjectRepository
	listRepo    salarylist.SalaryListRepository
	sheets      SheetUpdater
	publisher   payroll.EventPublisher
	calculator  *SalaryCalculator
	planner     *AllocationPlanner
	now         func() time.Time
}

func NewPayrollService(
	tx database.Transactor,
	payrollRepo payroll.PayrollRepository,
	ledger liability.LiabilityService,
	employees employee.Directory,
	projectRepo project.ProjectRepository,
	listRepo salarylist.SalaryListRepository,
	sheets SheetUpdater,
	publisher payroll.EventPublisher,
) payroll.PayrollService {
	if publisher == nil {
		publisher = payroll.NoopEventPublisher()
	}
	return &PayrollServiceImpl{
		tx:          tx,
		payrollRepo: payrollRepo,
		ledger:      ledger,
		employees:   employees,
		projectRepo: projectRepo,
		listRepo:    listRepo,
		sheets:      sheets,
		publisher:   publisher,
		calculator:  NewSalaryCalculator(),
		planner:     NewAllocationPlanner(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ========== PLANNING ==========

func (s *PayrollServiceImpl) ProposePlan(ctx context.Context, employeeID string) (payroll.AllocationPlanResponse, error) {
	if !validator.IsValidUUID(employeeID) {
		return payroll.AllocationPlanResponse{}, validator.ValidationErrors{{Field: "employee_id", Message: "must be a valid UUID"}}
	}
	if _, err := s.lookupEmployee(ctx, employeeID); err != nil {
		return payroll.AllocationPlanResponse{}, err
	}

	outstanding, err := s.ledger.ListOutstanding(ctx, employeeID)
	if err != nil {
		return payroll.AllocationPlanResponse{}, err
	}

	items, total := s.planner.Proposals(outstanding)
	return payroll.AllocationPlanResponse{
		EmployeeID: employeeID,
		Items:      items,
		Total:      total,
	}, nil
}

func (s *PayrollServiceImpl) Preview(ctx context.Context, req payroll.CreatePayrollRunRequest) (payroll.BreakdownResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.BreakdownResponse{}, err
	}

	base, err := s.resolveInputs(ctx, req)
	if err != nil {
		return payroll.BreakdownResponse{}, err
	}

	breakdown, err := s.compute(ctx, req, base)
	if err != nil {
		return payroll.BreakdownResponse{}, err
	}
	return payroll.ToBreakdownResponse(breakdown), nil
}

// resolveInputs checks the referenced employee, project and salary list and
// returns the base salary to use.
func (s *PayrollServiceImpl) resolveInputs(ctx context.Context, req payroll.CreatePayrollRunRequest) (decimal.Decimal, error) {
	lookup := s.employees.GetEmployee
	if req.BaseSalary == nil {
		// The directory salary is snapshotted into the record.
		lookup = s.employees.GetEmployeeFresh
	}
	emp, err := s.findEmployee(ctx, lookup, req.EmployeeID)
	if err != nil {
		return decimal.Zero, err
	}

	if _, err := s.projectRepo.GetByID(ctx, req.ProjectID); err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			return decimal.Zero, payroll.ErrProjectNotFound
		}
		return decimal.Zero, err
	}

	if req.SalaryListID != nil {
		list, err := s.listRepo.GetByID(ctx, *req.SalaryListID)
		if err != nil {
			if errors.Is(err, salarylist.ErrSalaryListNotFound) {
				return decimal.Zero, payroll.ErrSalaryListNotFound
			}
			return decimal.Zero, err
		}
		if list.ProjectID != req.ProjectID {
			return decimal.Zero, payroll.ErrSalaryListProject
		}
	}

	if req.BaseSalary != nil {
		return *req.BaseSalary, nil
	}
	if !emp.HasBaseSalary() {
		return decimal.Zero, payroll.ErrEmployeeHasNoBaseSalary
	}
	return *emp.BaseSalary, nil
}

func (s *PayrollServiceImpl) lookupEmployee(ctx context.Context, id string) (employee.Employee, error) {
	return s.findEmployee(ctx, s.employees.GetEmployee, id)
}

func (s *PayrollServiceImpl) findEmployee(
	ctx context.Context,
	lookup func(ctx context.Context, id string) (employee.Employee, error),
	id string,
) (employee.Employee, error) {
	emp, err := lookup(ctx, id)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, payroll.ErrEmployeeNotFound
		}
		return employee.Employee{}, err
	}
	return emp, nil
}

// compute plans allocations against the current outstanding balances and
// runs the calculator.
func (s *PayrollServiceImpl) compute(ctx context.Context, req payroll.CreatePayrollRunRequest, base decimal.Decimal) (payroll.Breakdown, error) {
	outstanding, err := s.ledger.ListOutstanding(ctx, req.EmployeeID)
	if err != nil {
		return payroll.Breakdown{}, err
	}

	plan, err := s.planner.Plan(outstanding, req.AllocationPlan)
	if err != nil {
		return payroll.Breakdown{}, err
	}

	return s.calculator.Compute(SalaryInput{
		BaseSalary:      base,
		Allowances:      req.Allowances,
		AbsentDays:      req.AbsentDays,
		ManualExpenses:  req.ManualExpenses,
		Plan:            plan,
		ExtraDeductions: req.ExtraDeductions,
	}), nil
}

// ========== LIFECYCLE ==========

// Create persists a draft. With status=paid the record is created and
// finalized in the same transaction.
func (s *PayrollServiceImpl) Create(ctx context.Context, req payroll.CreatePayrollRunRequest) (payroll.PayrollRunResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	base, err := s.resolveInputs(ctx, req)
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	finalize := payroll.PayrollStatus(req.Status).Normalize() == payroll.PayrollStatusPaid

	var record payroll.SalaryRecord
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		breakdown, err := s.compute(ctx, req, base)
		if err != nil {
			return err
		}

		record, err = s.payrollRepo.Create(ctx, payroll.SalaryRecord{
			EmployeeID:   req.EmployeeID,
			ProjectID:    req.ProjectID,
			Period:       req.ToPeriod(),
			SalaryListID: req.SalaryListID,
			Breakdown:    breakdown,
			Status:       payroll.PayrollStatusDraft,
			Notes:        req.Notes,
		})
		if err != nil {
			return fmt.Errorf("failed to create payroll record: %w", err)
		}

		if finalize {
			record, _, err = s.finalizeInTx(ctx, record.ID)
			return err
		}
		return nil
	})
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	slog.Info("payroll run created",
		"payroll_run_id", record.ID,
		"employee_id", record.EmployeeID,
		"month_ref", record.Period.MonthRef,
		"status", record.Status,
		"net_salary", record.NetSalary,
	)

	if finalize {
		s.afterFinalize(ctx, record)
	}
	return payroll.ToRunResponse(record), nil
}

func (s *PayrollServiceImpl) Get(ctx context.Context, id string) (payroll.PayrollRunResponse, error) {
	if !validator.IsValidUUID(id) {
		return payroll.PayrollRunResponse{}, payroll.ErrPayrollRecordNotFound
	}

	record, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}
	return payroll.ToRunResponse(record), nil
}

func (s *PayrollServiceImpl) ListByEmployee(ctx context.Context, employeeID string) ([]payroll.PayrollRunResponse, error) {
	if !validator.IsValidUUID(employeeID) {
		return nil, validator.ValidationErrors{{Field: "employee_id", Message: "must be a valid UUID"}}
	}

	records, err := s.payrollRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return payroll.ToRunResponses(records), nil
}

// UpdateDraft recomputes a draft from a new command. The employee of a
// record never changes.
func (s *PayrollServiceImpl) UpdateDraft(ctx context.Context, id string, req payroll.CreatePayrollRunRequest) (payroll.PayrollRunResponse, error) {
	if !validator.IsValidUUID(id) {
		return payroll.PayrollRunResponse{}, payroll.ErrPayrollRecordNotFound
	}
	if err := req.Validate(); err != nil {
		return payroll.PayrollRunResponse{}, err
	}
	if payroll.PayrollStatus(req.Status).Normalize() != payroll.PayrollStatusDraft {
		return payroll.PayrollRunResponse{}, validator.ValidationErrors{{Field: "status", Message: "use the status endpoint to mark a run paid"}}
	}

	base, err := s.resolveInputs(ctx, req)
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	var record payroll.SalaryRecord
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.payrollRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if existing.IsPaid() {
			return payroll.ErrPayrollRecordAlreadyPaid
		}
		if existing.EmployeeID != req.EmployeeID {
			return validator.ValidationErrors{{Field: "employee_id", Message: "cannot change the employee of a payroll run"}}
		}

		breakdown, err := s.compute(ctx, req, base)
		if err != nil {
			return err
		}

		existing.ProjectID = req.ProjectID
		existing.Period = req.ToPeriod()
		existing.SalaryListID = req.SalaryListID
		existing.Breakdown = breakdown
		existing.Notes = req.Notes

		record, err = s.payrollRepo.UpdateDraft(ctx, existing)
		return err
	})
	if err != nil {
		return payroll.PayrollRunResponse{}, err
	}

	slog.Info("payroll draft updated", "payroll_run_id", record.ID, "net_salary", record.NetSalary)
	return payroll.ToRunResponse(record), nil
}

// Finalize marks a draft paid and applies its linked expenses to the ledger
// in one transaction. A record can be finalized at most once.
func (s *PayrollServiceImpl) Finalize(ctx context.Context, id string) (payroll.FinalizeResponse, error) {
	if !validator.IsValidUUID(id) {
		return payroll.FinalizeResponse{}, payroll.ErrPayrollRecordNotFound
	}

	var (
		record  payroll.SalaryRecord
		applied []liability.Liability
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		record, applied, err = s.finalizeInTx(ctx, id)
		return err
	})
	if err != nil {
		return payroll.FinalizeResponse{}, err
	}

	slog.Info("payroll run finalized",
		"payroll_run_id", record.ID,
		"employee_id", record.EmployeeID,
		"liabilities_applied", len(applied),
		"db_expenses_total", record.DBExpensesTotal,
	)

	synced := s.afterFinalize(ctx, record)
	return payroll.FinalizeResponse{
		Record:             payroll.ToRunResponse(record),
		AppliedLiabilities: liability.ToResponses(applied),
		SheetSynced:        synced,
	}, nil
}

// finalizeInTx must run inside a transaction. The record row lock is taken
// first, then the employee's liability rows, always in that order.
func (s *PayrollServiceImpl) finalizeInTx(ctx context.Context, id string) (payroll.SalaryRecord, []liability.Liability, error) {
	record, err := s.payrollRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return payroll.SalaryRecord{}, nil, err
	}
	if record.IsPaid() {
		return payroll.SalaryRecord{}, nil, payroll.ErrIllegalState
	}

	applied, err := s.ledger.ApplyAllocations(ctx, record.EmployeeID, record.LinkedExpenses)
	if err != nil {
		return payroll.SalaryRecord{}, nil, err
	}

	paid, err := s.payrollRepo.MarkPaid(ctx, id, s.now())
	if err != nil {
		return payroll.SalaryRecord{}, nil, err
	}
	return paid, applied, nil
}

// afterFinalize runs the post-commit side effects. Neither can undo the
// commit; failures are logged and the sheet is repaired by the sync job.
func (s *PayrollServiceImpl) afterFinalize(ctx context.Context, record payroll.SalaryRecord) *bool {
	var synced *bool
	if record.SalaryListID != nil && s.sheets != nil {
		ok := true
		if err := s.sheets.MarkEntryPaid(ctx, *record.SalaryListID, record.EmployeeID); err != nil {
			ok = false
			slog.Warn("salary list entry not updated after finalize",
				"payroll_run_id", record.ID,
				"salary_list_id", *record.SalaryListID,
				"employee_id", record.EmployeeID,
				"error", err,
			)
		}
		synced = &ok
	}

	paidAt := s.now()
	if record.PaidDate != nil {
		paidAt = *record.PaidDate
	}
	event := payroll.RunFinalizedEvent{
		PayrollRunID:    record.ID,
		EmployeeID:      record.EmployeeID,
		ProjectID:       record.ProjectID,
		MonthRef:        record.Period.MonthRef,
		NetSalary:       record.NetSalary,
		DBExpensesTotal: record.DBExpensesTotal,
		Allocations:     record.LinkedExpenses,
		SalaryListID:    record.SalaryListID,
		PaidAt:          paidAt,
	}
	if err := s.publisher.PublishRunFinalized(ctx, event); err != nil {
		slog.Warn("payroll finalized event not published", "payroll_run_id", record.ID, "error", err)
	}

	return synced
}

// ResumeDraft returns the most recently updated unpaid record. Without a
// monthRef the lookup spans every month, so an older period's draft can be
// returned.
func (s *PayrollServiceImpl) ResumeDraft(ctx context.Context, employeeID string, monthRef string) (payroll.PayrollRunResponse, error) {
	var errs validator.ValidationErrors
	if !validator.IsValidUUID(employeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
	}
	if monthRef != "" && !validator.IsValidMonthRef(monthRef) {
		errs = append(errs, validator.ValidationError{Field: "month_ref", Message: "must be in YYYY-MM format"})
	}
	if len(errs) > 0 {
		return payroll.PayrollRunResponse{}, errs
	}

	record, err := s.payrollRepo.LatestUnpaid(ctx, employeeID, monthRef)
	if err != nil {
		if errors.Is(err, payroll.ErrPayrollRecordNotFound) {
			return payroll.PayrollRunResponse{}, payroll.ErrNoDraftFound
		}
		return payroll.PayrollRunResponse{}, err
	}
	return payroll.ToRunResponse(record), nil
}

// Delete removes a draft. Paid records are immutable.
func (s *PayrollServiceImpl) Delete(ctx context.Context, id string) error {
	if !validator.IsValidUUID(id) {
		return payroll.ErrPayrollRecordNotFound
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		record, err := s.payrollRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if record.IsPaid() {
			return payroll.ErrDeletionBlocked
		}
		return s.payrollRepo.DeleteDraft(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.Info("payroll draft deleted", "payroll_run_id", id)
	return nil
}
