package postgresql

import (
	"context"
	"errors"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type liabilityRepository struct {
	db *database.DB
}

func NewLiabilityRepository(db *database.DB) liability.LiabilityRepository {
	return &liabilityRepository{db: db}
}

const liabilityColumns = `id, employee_id, kind, amount, paid_amount, date, description, created_at, updated_at`

func scanLiability(row pgx.Row) (liability.Liability, error) {
	var l liability.Liability
	err := row.Scan(&l.ID, &l.EmployeeID, &l.Kind, &l.Amount, &l.PaidAmount, &l.Date, &l.Description, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func collectLiabilities(rows pgx.Rows) ([]liability.Liability, error) {
	defer rows.Close()

	result := make([]liability.Liability, 0)
	for rows.Next() {
		l, err := scanLiability(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

func (r *liabilityRepository) Create(ctx context.Context, l liability.Liability) (liability.Liability, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO liabilities (employee_id, kind, amount, paid_amount, date, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + liabilityColumns

	created, err := scanLiability(q.QueryRow(ctx, query,
		l.EmployeeID, l.Kind, l.Amount, l.PaidAmount, l.Date, l.Description,
	))
	if err != nil {
		switch pgCode(err) {
		case codeCheckViolation:
			return liability.Liability{}, liability.ErrInvalidLiabilityValue
		case codeForeignKey:
			return liability.Liability{}, liability.ErrLiabilityWrongOwner
		}
		return liability.Liability{}, storeErr("create liability", err)
	}
	return created, nil
}

func (r *liabilityRepository) GetByID(ctx context.Context, id string) (liability.Liability, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + liabilityColumns + ` FROM liabilities WHERE id = $1`

	l, err := scanLiability(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return liability.Liability{}, liability.ErrLiabilityNotFound
		}
		return liability.Liability{}, storeErr("get liability", err)
	}
	return l, nil
}

func (r *liabilityRepository) ListByEmployee(ctx context.Context, employeeID string, outstandingOnly bool) ([]liability.Liability, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + liabilityColumns + `
		FROM liabilities
		WHERE employee_id = $1 AND ($2::boolean = false OR paid_amount < amount)
		ORDER BY date ASC, created_at ASC, id ASC
	`

	rows, err := q.Query(ctx, query, employeeID, outstandingOnly)
	if err != nil {
		return nil, storeErr("list liabilities", err)
	}
	items, err := collectLiabilities(rows)
	if err != nil {
		return nil, storeErr("scan liabilities", err)
	}
	return items, nil
}

// LockByEmployee takes the rows in id order so concurrent finalizations of
// the same employee queue instead of deadlocking.
func (r *liabilityRepository) LockByEmployee(ctx context.Context, employeeID string) ([]liability.Liability, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + liabilityColumns + `
		FROM liabilities
		WHERE employee_id = $1
		ORDER BY id
		FOR UPDATE
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, storeErr("lock liabilities", err)
	}
	items, err := collectLiabilities(rows)
	if err != nil {
		return nil, storeErr("scan locked liabilities", err)
	}
	return items, nil
}

func (r *liabilityRepository) AddPaidAmount(ctx context.Context, id string, amount decimal.Decimal) (liability.Liability, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE liabilities
		SET paid_amount = paid_amount + $2::numeric, updated_at = NOW()
		WHERE id = $1 AND $2::numeric > 0 AND paid_amount + $2::numeric <= amount
		RETURNING ` + liabilityColumns

	l, err := scanLiability(q.QueryRow(ctx, query, id, amount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return liability.Liability{}, getErr
			}
			return liability.Liability{}, liability.ErrAllocationOverflow
		}
		if pgCode(err) == codeCheckViolation {
			return liability.Liability{}, liability.ErrAllocationOverflow
		}
		return liability.Liability{}, storeErr("add paid amount", err)
	}
	return l, nil
}

func (r *liabilityRepository) DeleteUnpaid(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM liabilities WHERE id = $1 AND paid_amount = 0`, id)
	if err != nil {
		return storeErr("delete liability", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return liability.ErrDeletionBlocked
	}
	return nil
}
