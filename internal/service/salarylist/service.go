package salarylist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/project"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salarylist"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// syncBatchSize bounds how many entries one SyncPending pass repairs.
const syncBatchSize = 200

type SalaryListServiceImpl struct {
	listRepo    salarylist.SalaryListRepository
	payrollRepo payroll.PayrollRepository
	projectRepo project.ProjectRepository
}

func NewSalaryListService(
	listRepo salarylist.SalaryListRepository,
	payrollRepo payroll.PayrollRepository,
	projectRepo project.ProjectRepository,
) salarylist.SalaryListService {
	return &SalaryListServiceImpl{
		listRepo:    listRepo,
		payrollRepo: payrollRepo,
		projectRepo: projectRepo,
	}
}

func (s *SalaryListServiceImpl) Create(ctx context.Context, req salarylist.CreateSalaryListRequest) (salarylist.SalaryListResponse, error) {
	if err := req.Validate(); err != nil {
		return salarylist.SalaryListResponse{}, err
	}

	if _, err := s.projectRepo.GetByID(ctx, req.ProjectID); err != nil {
		return salarylist.SalaryListResponse{}, err
	}

	list := salarylist.SalaryList{
		ProjectID:   req.ProjectID,
		ForemanName: req.ForemanName,
		MonthRef:    req.MonthRef,
		Entries:     make([]salarylist.SalaryListEntry, 0, len(req.Entries)),
	}
	for _, e := range req.Entries {
		list.Entries = append(list.Entries, salarylist.SalaryListEntry{
			EmployeeID: e.EmployeeID,
			Name:       e.Name,
			Iqama:      e.Iqama,
			Salary:     e.Salary,
			Status:     salarylist.EntryStatusPending,
		})
	}

	created, err := s.listRepo.Create(ctx, list)
	if err != nil {
		return salarylist.SalaryListResponse{}, fmt.Errorf("failed to create salary list: %w", err)
	}

	slog.Info("salary list created", "salary_list_id", created.ID, "project_id", created.ProjectID, "month_ref", created.MonthRef, "entries", len(created.Entries))
	return salarylist.ToResponse(created), nil
}

func (s *SalaryListServiceImpl) Get(ctx context.Context, id string) (salarylist.SalaryListResponse, error) {
	if !validator.IsValidUUID(id) {
		return salarylist.SalaryListResponse{}, salarylist.ErrSalaryListNotFound
	}

	list, err := s.listRepo.GetByID(ctx, id)
	if err != nil {
		return salarylist.SalaryListResponse{}, err
	}
	return salarylist.ToResponse(list), nil
}

// View derives each entry's status from the paid salary records linked to
// the sheet, so it is correct even when the stored entry lags behind.
func (s *SalaryListServiceImpl) View(ctx context.Context, id string) (salarylist.SalaryListResponse, error) {
	if !validator.IsValidUUID(id) {
		return salarylist.SalaryListResponse{}, salarylist.ErrSalaryListNotFound
	}

	list, err := s.listRepo.GetByID(ctx, id)
	if err != nil {
		return salarylist.SalaryListResponse{}, err
	}

	paid, err := s.payrollRepo.ListPaidBySalaryList(ctx, id)
	if err != nil {
		return salarylist.SalaryListResponse{}, err
	}
	byEmployee := make(map[string]payroll.SalaryRecord, len(paid))
	for _, rec := range paid {
		byEmployee[rec.EmployeeID] = rec
	}

	resp := salarylist.ToResponse(list)
	resp.PaidCount = 0
	for i, e := range resp.Entries {
		rec, ok := byEmployee[e.EmployeeID]
		if !ok {
			resp.Entries[i].Status = string(salarylist.EntryStatusPending)
			continue
		}
		runID := rec.ID
		net := rec.NetSalary
		resp.Entries[i].Status = string(salarylist.EntryStatusPaid)
		resp.Entries[i].PayrollRunID = &runID
		resp.Entries[i].NetSalary = &net
		resp.PaidCount++
	}
	return resp, nil
}

func (s *SalaryListServiceImpl) MarkEntryPaid(ctx context.Context, listID, employeeID string) error {
	if err := s.listRepo.MarkEntryPaid(ctx, listID, employeeID); err != nil {
		return fmt.Errorf("mark salary list %s entry for employee %s paid: %w", listID, employeeID, err)
	}
	return nil
}

// SyncPending marks paid every pending entry whose salary record is already
// paid. It returns how many entries were repaired.
func (s *SalaryListServiceImpl) SyncPending(ctx context.Context) (int, error) {
	entries, err := s.listRepo.ListPendingLinked(ctx, syncBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending salary list entries: %w", err)
	}

	var errs []error
	synced := 0
	for _, e := range entries {
		if err := s.listRepo.MarkEntryPaid(ctx, e.SalaryListID, e.EmployeeID); err != nil {
			slog.Warn("salary list entry sync failed", "salary_list_id", e.SalaryListID, "employee_id", e.EmployeeID, "error", err)
			errs = append(errs, err)
			continue
		}
		synced++
	}

	if synced > 0 {
		slog.Info("salary list entries synced", "count", synced)
	}
	return synced, errors.Join(errs...)
}
