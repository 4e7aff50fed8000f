package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/project"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salarylist"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/google/uuid"
)

type txKey struct{}

// Store keeps every table in process memory. A transaction holds the store
// mutex for its whole duration and restores a snapshot on error, which
// gives serializable semantics for a single process.
type Store struct {
	mu sync.Mutex

	employees   map[string]employee.Employee
	projects    map[string]project.Project
	liabilities map[string]liability.Liability
	records     map[string]payroll.SalaryRecord
	lists       map[string]salarylist.SalaryList

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		employees:   make(map[string]employee.Employee),
		projects:    make(map[string]project.Project),
		liabilities: make(map[string]liability.Liability),
		records:     make(map[string]payroll.SalaryRecord),
		lists:       make(map[string]salarylist.SalaryList),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source, for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

type snapshot struct {
	liabilities map[string]liability.Liability
	records     map[string]payroll.SalaryRecord
	lists       map[string]salarylist.SalaryList
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		liabilities: make(map[string]liability.Liability, len(s.liabilities)),
		records:     make(map[string]payroll.SalaryRecord, len(s.records)),
		lists:       make(map[string]salarylist.SalaryList, len(s.lists)),
	}
	for k, v := range s.liabilities {
		snap.liabilities[k] = v
	}
	for k, v := range s.records {
		snap.records[k] = v
	}
	for k, v := range s.lists {
		snap.lists[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.liabilities = snap.liabilities
	s.records = snap.records
	s.lists = snap.lists
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock acquires the store unless ctx already belongs to a transaction
// holding it.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTransaction implements database.Transactor. Nested calls join the
// outer transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
	}()

	if err := ctx.Err(); err != nil {
		return database.Persistence("begin transaction", err)
	}
	if err = fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		s.restore(snap)
		return database.Persistence("commit transaction", err)
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

var _ database.Transactor = (*Store)(nil)
