package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

const recordColumns = `
	sr.id, sr.employee_id, sr.project_id, sr.month_ref, sr.from_date, sr.to_date, sr.salary_list_id,
	sr.base_salary, sr.allowances, sr.absent_days, sr.absent_deduction,
	sr.manual_expenses, sr.manual_expenses_total, sr.linked_expenses, sr.db_expenses_total,
	sr.extra_deductions, sr.total_deductions, sr.gross_salary, sr.net_salary, sr.shortfall,
	sr.status, sr.paid_date, sr.notes, sr.created_at, sr.updated_at,
	e.full_name, p.name`

const recordFrom = `
	FROM salary_records sr
	LEFT JOIN employees e ON e.id = sr.employee_id
	LEFT JOIN projects p ON p.id = sr.project_id`

func scanRecord(row pgx.Row) (payroll.SalaryRecord, error) {
	var (
		r              payroll.SalaryRecord
		manual, linked []byte
	)
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.ProjectID, &r.Period.MonthRef, &r.Period.FromDate, &r.Period.ToDate, &r.SalaryListID,
		&r.BaseSalary, &r.Allowances, &r.AbsentDays, &r.AbsentDeduction,
		&manual, &r.ManualExpensesTotal, &linked, &r.DBExpensesTotal,
		&r.ExtraDeductions, &r.TotalDeductions, &r.GrossSalary, &r.NetSalary, &r.Shortfall,
		&r.Status, &r.PaidDate, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
		&r.EmployeeName, &r.ProjectName,
	)
	if err != nil {
		return payroll.SalaryRecord{}, err
	}

	if len(manual) > 0 {
		if err := json.Unmarshal(manual, &r.ManualExpenses); err != nil {
			return payroll.SalaryRecord{}, fmt.Errorf("decode manual_expenses: %w", err)
		}
	}
	if len(linked) > 0 {
		if err := json.Unmarshal(linked, &r.LinkedExpenses); err != nil {
			return payroll.SalaryRecord{}, fmt.Errorf("decode linked_expenses: %w", err)
		}
	}
	return r, nil
}

func encodeExpenses(r payroll.SalaryRecord) ([]byte, []byte, error) {
	manual := r.ManualExpenses
	if manual == nil {
		manual = []payroll.ManualExpense{}
	}
	linked := r.LinkedExpenses
	if linked == nil {
		linked = []liability.Allocation{}
	}

	manualJSON, err := json.Marshal(manual)
	if err != nil {
		return nil, nil, fmt.Errorf("encode manual_expenses: %w", err)
	}
	linkedJSON, err := json.Marshal(linked)
	if err != nil {
		return nil, nil, fmt.Errorf("encode linked_expenses: %w", err)
	}
	return manualJSON, linkedJSON, nil
}

func (r *payrollRepository) getOne(ctx context.Context, op, where string, args ...interface{}) (payroll.SalaryRecord, error) {
	q := GetQuerier(ctx, r.db)

	rec, err := scanRecord(q.QueryRow(ctx, `SELECT `+recordColumns+recordFrom+` `+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.SalaryRecord{}, storeErr(op, err)
	}
	return rec, nil
}

func (r *payrollRepository) list(ctx context.Context, op, where string, args ...interface{}) ([]payroll.SalaryRecord, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+recordColumns+recordFrom+` `+where, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	result := make([]payroll.SalaryRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return result, nil
}

func (r *payrollRepository) Create(ctx context.Context, record payroll.SalaryRecord) (payroll.SalaryRecord, error) {
	q := GetQuerier(ctx, r.db)

	manual, linked, err := encodeExpenses(record)
	if err != nil {
		return payroll.SalaryRecord{}, err
	}

	query := `
		INSERT INTO salary_records (
			employee_id, project_id, month_ref, from_date, to_date, salary_list_id,
			base_salary, allowances, absent_days, absent_deduction,
			manual_expenses, manual_expenses_total, linked_expenses, db_expenses_total,
			extra_deductions, total_deductions, gross_salary, net_salary, shortfall,
			status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id
	`

	var id string
	err = q.QueryRow(ctx, query,
		record.EmployeeID, record.ProjectID, record.Period.MonthRef, record.Period.FromDate, record.Period.ToDate, record.SalaryListID,
		record.BaseSalary, record.Allowances, record.AbsentDays, record.AbsentDeduction,
		manual, record.ManualExpensesTotal, linked, record.DBExpensesTotal,
		record.ExtraDeductions, record.TotalDeductions, record.GrossSalary, record.NetSalary, record.Shortfall,
		payroll.PayrollStatusDraft, record.Notes,
	).Scan(&id)
	if err != nil {
		if pgCode(err) == codeForeignKey {
			return payroll.SalaryRecord{}, salaryRecordReferenceErr(err)
		}
		return payroll.SalaryRecord{}, storeErr("create salary record", err)
	}

	return r.getOne(ctx, "get created salary record", `WHERE sr.id = $1`, id)
}

func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.SalaryRecord, error) {
	return r.getOne(ctx, "get salary record", `WHERE sr.id = $1`, id)
}

func (r *payrollRepository) GetByIDForUpdate(ctx context.Context, id string) (payroll.SalaryRecord, error) {
	return r.getOne(ctx, "lock salary record", `WHERE sr.id = $1 FOR UPDATE OF sr`, id)
}

func (r *payrollRepository) ListByEmployee(ctx context.Context, employeeID string) ([]payroll.SalaryRecord, error) {
	return r.list(ctx, "list salary records", `WHERE sr.employee_id = $1 ORDER BY sr.month_ref DESC, sr.created_at DESC`, employeeID)
}

func (r *payrollRepository) LatestUnpaid(ctx context.Context, employeeID string, monthRef string) (payroll.SalaryRecord, error) {
	return r.getOne(ctx, "get latest unpaid salary record", `
		WHERE sr.employee_id = $1 AND sr.status <> 'paid' AND ($2 = '' OR sr.month_ref = $2)
		ORDER BY sr.updated_at DESC, sr.created_at DESC, sr.id DESC
		LIMIT 1`, employeeID, monthRef)
}

func (r *payrollRepository) ListPaidBySalaryList(ctx context.Context, salaryListID string) ([]payroll.SalaryRecord, error) {
	return r.list(ctx, "list salary records by salary list", `WHERE sr.salary_list_id = $1 AND sr.status = 'paid' ORDER BY sr.id`, salaryListID)
}

func (r *payrollRepository) UpdateDraft(ctx context.Context, record payroll.SalaryRecord) (payroll.SalaryRecord, error) {
	q := GetQuerier(ctx, r.db)

	manual, linked, err := encodeExpenses(record)
	if err != nil {
		return payroll.SalaryRecord{}, err
	}

	query := `
		UPDATE salary_records SET
			project_id = $2, month_ref = $3, from_date = $4, to_date = $5, salary_list_id = $6,
			base_salary = $7, allowances = $8, absent_days = $9, absent_deduction = $10,
			manual_expenses = $11, manual_expenses_total = $12, linked_expenses = $13, db_expenses_total = $14,
			extra_deductions = $15, total_deductions = $16, gross_salary = $17, net_salary = $18, shortfall = $19,
			notes = $20, updated_at = NOW()
		WHERE id = $1 AND status = 'draft'
	`

	tag, err := q.Exec(ctx, query,
		record.ID, record.ProjectID, record.Period.MonthRef, record.Period.FromDate, record.Period.ToDate, record.SalaryListID,
		record.BaseSalary, record.Allowances, record.AbsentDays, record.AbsentDeduction,
		manual, record.ManualExpensesTotal, linked, record.DBExpensesTotal,
		record.ExtraDeductions, record.TotalDeductions, record.GrossSalary, record.NetSalary, record.Shortfall,
		record.Notes,
	)
	if err != nil {
		if pgCode(err) == codeForeignKey {
			return payroll.SalaryRecord{}, salaryRecordReferenceErr(err)
		}
		return payroll.SalaryRecord{}, storeErr("update salary record", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, record.ID); err != nil {
			return payroll.SalaryRecord{}, err
		}
		return payroll.SalaryRecord{}, payroll.ErrPayrollRecordAlreadyPaid
	}

	return r.GetByID(ctx, record.ID)
}

func (r *payrollRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) (payroll.SalaryRecord, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE salary_records
		SET status = 'paid', paid_date = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'draft'
	`, id, paidAt)
	if err != nil {
		return payroll.SalaryRecord{}, storeErr("mark salary record paid", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return payroll.SalaryRecord{}, err
		}
		return payroll.SalaryRecord{}, payroll.ErrIllegalState
	}

	return r.GetByID(ctx, id)
}

func (r *payrollRepository) DeleteDraft(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM salary_records WHERE id = $1 AND status <> 'paid'`, id)
	if err != nil {
		return storeErr("delete salary record", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return payroll.ErrDeletionBlocked
	}
	return nil
}

// salaryRecordReferenceErr maps a foreign key violation on salary_records to
// the missing referenced entity.
func salaryRecordReferenceErr(err error) error {
	var target error
	switch pgConstraint(err) {
	case "salary_records_salary_list_id_fkey":
		target = payroll.ErrSalaryListNotFound
	case "salary_records_project_id_fkey":
		target = payroll.ErrProjectNotFound
	case "salary_records_employee_id_fkey":
		target = payroll.ErrEmployeeNotFound
	default:
		return storeErr("create salary record", err)
	}
	return fmt.Errorf("%w: %v", target, err)
}
