package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/salarylist"
)

type salaryListRepository struct {
	store *Store
}

func NewSalaryListRepository(store *Store) salarylist.SalaryListRepository {
	return &salaryListRepository{store: store}
}

func (r *salaryListRepository) Create(ctx context.Context, list salarylist.SalaryList) (salarylist.SalaryList, error) {
	defer r.store.lock(ctx)()

	for _, existing := range r.store.lists {
		if existing.ProjectID == list.ProjectID && existing.ForemanName == list.ForemanName && existing.MonthRef == list.MonthRef {
			return salarylist.SalaryList{}, salarylist.ErrSalaryListDuplicate
		}
	}

	if list.ID == "" {
		list.ID = newID()
	}
	now := r.store.now()
	list.CreatedAt = now
	list.UpdatedAt = now

	entries := make([]salarylist.SalaryListEntry, 0, len(list.Entries))
	for _, e := range list.Entries {
		if e.ID == "" {
			e.ID = newID()
		}
		if e.Status == "" {
			e.Status = salarylist.EntryStatusPending
		}
		e.SalaryListID = list.ID
		e.UpdatedAt = now
		entries = append(entries, e)
	}
	list.Entries = entries

	r.store.lists[list.ID] = list
	return cloneList(list), nil
}

func cloneList(l salarylist.SalaryList) salarylist.SalaryList {
	l.Entries = append([]salarylist.SalaryListEntry(nil), l.Entries...)
	return l
}

func (r *salaryListRepository) GetByID(ctx context.Context, id string) (salarylist.SalaryList, error) {
	defer r.store.lock(ctx)()

	l, ok := r.store.lists[id]
	if !ok {
		return salarylist.SalaryList{}, salarylist.ErrSalaryListNotFound
	}
	return cloneList(l), nil
}

func (r *salaryListRepository) MarkEntryPaid(ctx context.Context, listID, employeeID string) error {
	defer r.store.lock(ctx)()

	l, ok := r.store.lists[listID]
	if !ok {
		return salarylist.ErrSalaryListNotFound
	}

	l = cloneList(l)
	for i, e := range l.Entries {
		if e.EmployeeID != employeeID {
			continue
		}
		if e.Status == salarylist.EntryStatusPaid {
			return nil
		}
		now := r.store.now()
		l.Entries[i].Status = salarylist.EntryStatusPaid
		l.Entries[i].UpdatedAt = now
		l.UpdatedAt = now
		r.store.lists[listID] = l
		return nil
	}
	return salarylist.ErrEntryNotFound
}

func (r *salaryListRepository) ListPendingLinked(ctx context.Context, limit int) ([]salarylist.SalaryListEntry, error) {
	defer r.store.lock(ctx)()

	paid := make(map[string]bool)
	for _, rec := range r.store.records {
		if rec.IsPaid() && rec.SalaryListID != nil {
			paid[*rec.SalaryListID+"/"+rec.EmployeeID] = true
		}
	}

	result := make([]salarylist.SalaryListEntry, 0)
	for _, l := range r.store.lists {
		for _, e := range l.Entries {
			if e.Status == salarylist.EntryStatusPending && paid[l.ID+"/"+e.EmployeeID] {
				result = append(result, e)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
