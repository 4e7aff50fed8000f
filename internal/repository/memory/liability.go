package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/shopspring/decimal"
)

type liabilityRepository struct {
	store *Store
}

func NewLiabilityRepository(store *Store) liability.LiabilityRepository {
	return &liabilityRepository{store: store}
}

func (r *liabilityRepository) Create(ctx context.Context, l liability.Liability) (liability.Liability, error) {
	defer r.store.lock(ctx)()

	if !l.Amount.IsPositive() {
		return liability.Liability{}, liability.ErrInvalidLiabilityValue
	}
	if l.ID == "" {
		l.ID = newID()
	}
	now := r.store.now()
	l.CreatedAt = now
	l.UpdatedAt = now
	r.store.liabilities[l.ID] = l
	return l, nil
}

func (r *liabilityRepository) GetByID(ctx context.Context, id string) (liability.Liability, error) {
	defer r.store.lock(ctx)()

	l, ok := r.store.liabilities[id]
	if !ok {
		return liability.Liability{}, liability.ErrLiabilityNotFound
	}
	return l, nil
}

func (r *liabilityRepository) ListByEmployee(ctx context.Context, employeeID string, outstandingOnly bool) ([]liability.Liability, error) {
	defer r.store.lock(ctx)()
	return r.byEmployee(employeeID, outstandingOnly), nil
}

// LockByEmployee needs no row locks here: the caller's transaction already
// holds the store mutex.
func (r *liabilityRepository) LockByEmployee(ctx context.Context, employeeID string) ([]liability.Liability, error) {
	defer r.store.lock(ctx)()
	return r.byEmployee(employeeID, false), nil
}

func (r *liabilityRepository) byEmployee(employeeID string, outstandingOnly bool) []liability.Liability {
	result := make([]liability.Liability, 0)
	for _, l := range r.store.liabilities {
		if l.EmployeeID != employeeID {
			continue
		}
		if outstandingOnly && !l.PaidAmount.LessThan(l.Amount) {
			continue
		}
		result = append(result, l)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (r *liabilityRepository) AddPaidAmount(ctx context.Context, id string, amount decimal.Decimal) (liability.Liability, error) {
	defer r.store.lock(ctx)()

	l, ok := r.store.liabilities[id]
	if !ok {
		return liability.Liability{}, liability.ErrLiabilityNotFound
	}
	if !l.CanApply(amount) {
		return liability.Liability{}, liability.ErrAllocationOverflow
	}
	l.PaidAmount = l.PaidAmount.Add(amount)
	l.UpdatedAt = r.store.now()
	r.store.liabilities[id] = l
	return l, nil
}

func (r *liabilityRepository) DeleteUnpaid(ctx context.Context, id string) error {
	defer r.store.lock(ctx)()

	l, ok := r.store.liabilities[id]
	if !ok {
		return liability.ErrLiabilityNotFound
	}
	if !l.PaidAmount.IsZero() {
		return liability.ErrDeletionBlocked
	}
	delete(r.store.liabilities, id)
	return nil
}
