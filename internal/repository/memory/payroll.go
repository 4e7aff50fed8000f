package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
)

type payrollRepository struct {
	store *Store
}

func NewPayrollRepository(store *Store) payroll.PayrollRepository {
	return &payrollRepository{store: store}
}

// cloneRecord detaches the slices so callers never alias stored state.
func cloneRecord(r payroll.SalaryRecord) payroll.SalaryRecord {
	r.ManualExpenses = append([]payroll.ManualExpense(nil), r.ManualExpenses...)
	r.LinkedExpenses = append([]liability.Allocation(nil), r.LinkedExpenses...)
	return r
}

func (r *payrollRepository) withJoins(rec payroll.SalaryRecord) payroll.SalaryRecord {
	rec = cloneRecord(rec)
	if e, ok := r.store.employees[rec.EmployeeID]; ok {
		name := e.FullName
		rec.EmployeeName = &name
	}
	if p, ok := r.store.projects[rec.ProjectID]; ok {
		name := p.Name
		rec.ProjectName = &name
	}
	return rec
}

func (r *payrollRepository) Create(ctx context.Context, record payroll.SalaryRecord) (payroll.SalaryRecord, error) {
	defer r.store.lock(ctx)()

	if record.ID == "" {
		record.ID = newID()
	}
	now := r.store.now()
	record.CreatedAt = now
	record.UpdatedAt = now
	record.EmployeeName = nil
	record.ProjectName = nil
	r.store.records[record.ID] = cloneRecord(record)
	return r.withJoins(record), nil
}

func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.SalaryRecord, error) {
	defer r.store.lock(ctx)()

	rec, ok := r.store.records[id]
	if !ok {
		return payroll.SalaryRecord{}, payroll.ErrPayrollRecordNotFound
	}
	return r.withJoins(rec), nil
}

func (r *payrollRepository) GetByIDForUpdate(ctx context.Context, id string) (payroll.SalaryRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *payrollRepository) ListByEmployee(ctx context.Context, employeeID string) ([]payroll.SalaryRecord, error) {
	defer r.store.lock(ctx)()

	result := make([]payroll.SalaryRecord, 0)
	for _, rec := range r.store.records {
		if rec.EmployeeID == employeeID {
			result = append(result, r.withJoins(rec))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Period.MonthRef != result[j].Period.MonthRef {
			return result[i].Period.MonthRef > result[j].Period.MonthRef
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *payrollRepository) LatestUnpaid(ctx context.Context, employeeID string, monthRef string) (payroll.SalaryRecord, error) {
	defer r.store.lock(ctx)()

	var latest *payroll.SalaryRecord
	for _, rec := range r.store.records {
		if rec.EmployeeID != employeeID || rec.IsPaid() {
			continue
		}
		if monthRef != "" && rec.Period.MonthRef != monthRef {
			continue
		}
		if latest == nil || newer(rec, *latest) {
			candidate := rec
			latest = &candidate
		}
	}
	if latest == nil {
		return payroll.SalaryRecord{}, payroll.ErrPayrollRecordNotFound
	}
	return r.withJoins(*latest), nil
}

func newer(a, b payroll.SalaryRecord) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (r *payrollRepository) ListPaidBySalaryList(ctx context.Context, salaryListID string) ([]payroll.SalaryRecord, error) {
	defer r.store.lock(ctx)()

	result := make([]payroll.SalaryRecord, 0)
	for _, rec := range r.store.records {
		if rec.IsPaid() && rec.SalaryListID != nil && *rec.SalaryListID == salaryListID {
			result = append(result, r.withJoins(rec))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *payrollRepository) UpdateDraft(ctx context.Context, record payroll.SalaryRecord) (payroll.SalaryRecord, error) {
	defer r.store.lock(ctx)()

	existing, ok := r.store.records[record.ID]
	if !ok {
		return payroll.SalaryRecord{}, payroll.ErrPayrollRecordNotFound
	}
	if existing.IsPaid() {
		return payroll.SalaryRecord{}, payroll.ErrPayrollRecordAlreadyPaid
	}

	existing.ProjectID = record.ProjectID
	existing.Period = record.Period
	existing.SalaryListID = record.SalaryListID
	existing.Breakdown = record.Breakdown
	existing.Notes = record.Notes
	existing.UpdatedAt = r.store.now()
	r.store.records[record.ID] = cloneRecord(existing)
	return r.withJoins(existing), nil
}

func (r *payrollRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) (payroll.SalaryRecord, error) {
	defer r.store.lock(ctx)()

	rec, ok := r.store.records[id]
	if !ok {
		return payroll.SalaryRecord{}, payroll.ErrPayrollRecordNotFound
	}
	if rec.Status != payroll.PayrollStatusDraft {
		return payroll.SalaryRecord{}, payroll.ErrIllegalState
	}
	rec.Status = payroll.PayrollStatusPaid
	rec.PaidDate = &paidAt
	rec.UpdatedAt = r.store.now()
	r.store.records[id] = rec
	return r.withJoins(rec), nil
}

func (r *payrollRepository) DeleteDraft(ctx context.Context, id string) error {
	defer r.store.lock(ctx)()

	rec, ok := r.store.records[id]
	if !ok {
		return payroll.ErrPayrollRecordNotFound
	}
	if rec.IsPaid() {
		return payroll.ErrDeletionBlocked
	}
	delete(r.store.records, id)
	return nil
}
