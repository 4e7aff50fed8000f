package postgresql

import (
	"context"
	"errors"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/salarylist"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type salaryListRepository struct {
	db *database.DB
}

func NewSalaryListRepository(db *database.DB) salarylist.SalaryListRepository {
	return &salaryListRepository{db: db}
}

// Create inserts the sheet and its entries atomically, joining the
// caller's transaction when there is one.
func (r *salaryListRepository) Create(ctx context.Context, list salarylist.SalaryList) (salarylist.SalaryList, error) {
	var id string
	err := NewTransactor(r.db).WithinTransaction(ctx, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		err := q.QueryRow(ctx, `
			INSERT INTO salary_lists (project_id, foreman_name, month_ref)
			VALUES ($1, $2, $3)
			RETURNING id
		`, list.ProjectID, list.ForemanName, list.MonthRef).Scan(&id)
		if err != nil {
			if pgCode(err) == codeUniqueViolation {
				return salarylist.ErrSalaryListDuplicate
			}
			return storeErr("create salary list", err)
		}

		batch := &pgx.Batch{}
		for _, e := range list.Entries {
			status := e.Status
			if status == "" {
				status = salarylist.EntryStatusPending
			}
			batch.Queue(`
				INSERT INTO salary_list_entries (salary_list_id, employee_id, name, iqama, salary, status)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, id, e.EmployeeID, e.Name, e.Iqama, e.Salary, status)
		}
		results := GetBatcher(ctx, r.db).SendBatch(ctx, batch)
		defer results.Close()
		for range list.Entries {
			if _, err := results.Exec(); err != nil {
				if pgCode(err) == codeUniqueViolation {
					return salarylist.ErrDuplicateEmployee
				}
				return storeErr("create salary list entry", err)
			}
		}
		return nil
	})
	if err != nil {
		return salarylist.SalaryList{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *salaryListRepository) GetByID(ctx context.Context, id string) (salarylist.SalaryList, error) {
	q := GetQuerier(ctx, r.db)

	var l salarylist.SalaryList
	err := q.QueryRow(ctx, `
		SELECT id, project_id, foreman_name, month_ref, created_at, updated_at
		FROM salary_lists
		WHERE id = $1
	`, id).Scan(&l.ID, &l.ProjectID, &l.ForemanName, &l.MonthRef, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return salarylist.SalaryList{}, salarylist.ErrSalaryListNotFound
		}
		return salarylist.SalaryList{}, storeErr("get salary list", err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, salary_list_id, employee_id, name, iqama, salary, status, updated_at
		FROM salary_list_entries
		WHERE salary_list_id = $1
		ORDER BY name, id
	`, id)
	if err != nil {
		return salarylist.SalaryList{}, storeErr("list salary list entries", err)
	}
	l.Entries, err = collectEntries(rows)
	if err != nil {
		return salarylist.SalaryList{}, storeErr("scan salary list entries", err)
	}
	return l, nil
}

func collectEntries(rows pgx.Rows) ([]salarylist.SalaryListEntry, error) {
	defer rows.Close()

	result := make([]salarylist.SalaryListEntry, 0)
	for rows.Next() {
		var e salarylist.SalaryListEntry
		if err := rows.Scan(&e.ID, &e.SalaryListID, &e.EmployeeID, &e.Name, &e.Iqama, &e.Salary, &e.Status, &e.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *salaryListRepository) MarkEntryPaid(ctx context.Context, listID, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE salary_list_entries
		SET status = 'paid', updated_at = NOW()
		WHERE salary_list_id = $1 AND employee_id = $2 AND status <> 'paid'
	`, listID, employeeID)
	if err != nil {
		return storeErr("mark salary list entry paid", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM salary_list_entries WHERE salary_list_id = $1 AND employee_id = $2)
	`, listID, employeeID).Scan(&exists)
	if err != nil {
		return storeErr("check salary list entry", err)
	}
	if exists {
		return nil
	}
	if _, err := r.GetByID(ctx, listID); err != nil {
		return err
	}
	return salarylist.ErrEntryNotFound
}

func (r *salaryListRepository) ListPendingLinked(ctx context.Context, limit int) ([]salarylist.SalaryListEntry, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT e.id, e.salary_list_id, e.employee_id, e.name, e.iqama, e.salary, e.status, e.updated_at
		FROM salary_list_entries e
		WHERE e.status = 'pending'
		  AND EXISTS (
			SELECT 1 FROM salary_records sr
			WHERE sr.salary_list_id = e.salary_list_id
			  AND sr.employee_id = e.employee_id
			  AND sr.status = 'paid'
		  )
		ORDER BY e.id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, storeErr("list pending salary list entries", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, storeErr("scan pending salary list entries", err)
	}
	return entries, nil
}
