package employee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	DirectoryKeyPrefix = "payroll:employee:"
	DirectoryCacheTTL  = 10 * time.Minute
)

func DirectoryKey(id string) string {
	return DirectoryKeyPrefix + id
}

// cachedEmployee is the wire shape stored in Redis.
type cachedEmployee struct {
	ID               string           `json:"id"`
	FullName         string           `json:"full_name"`
	Iqama            *string          `json:"iqama,omitempty"`
	Role             string           `json:"role"`
	BaseSalary       *decimal.Decimal `json:"base_salary,omitempty"`
	EmploymentStatus string           `json:"employment_status"`
}

func toCached(e employee.Employee) cachedEmployee {
	return cachedEmployee{
		ID:               e.ID,
		FullName:         e.FullName,
		Iqama:            e.Iqama,
		Role:             e.Role,
		BaseSalary:       e.BaseSalary,
		EmploymentStatus: string(e.EmploymentStatus),
	}
}

func (c cachedEmployee) toEntity() employee.Employee {
	return employee.Employee{
		ID:               c.ID,
		FullName:         c.FullName,
		Iqama:            c.Iqama,
		Role:             c.Role,
		BaseSalary:       c.BaseSalary,
		EmploymentStatus: employee.EmploymentStatus(c.EmploymentStatus),
	}
}

// EncodeCached renders the cache payload for e.
func EncodeCached(e employee.Employee) ([]byte, error) {
	return json.Marshal(toCached(e))
}

type directory struct {
	repo employee.EmployeeRepository
	rdb  *redis.Client
	sf   *singleflight.Group
}

// NewDirectory returns the employee lookup used by payroll. rdb may be nil,
// in which case every lookup goes to the repository.
func NewDirectory(repo employee.EmployeeRepository, rdb *redis.Client) employee.Directory {
	return &directory{repo: repo, rdb: rdb, sf: &singleflight.Group{}}
}

// GetEmployee may return data up to DirectoryCacheTTL old when Redis is
// configured.
func (d *directory) GetEmployee(ctx context.Context, id string) (employee.Employee, error) {
	if !validator.IsValidUUID(id) {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	cacheKey := DirectoryKey(id)

	if d.rdb != nil {
		cached, err := d.rdb.Get(ctx, cacheKey).Result()
		switch {
		case err == nil:
			var c cachedEmployee
			if json.Unmarshal([]byte(cached), &c) == nil {
				return c.toEntity(), nil
			}
		case !errors.Is(err, redis.Nil):
			slog.Warn("employee cache read failed", "employee_id", id, "error", err)
		}
	}

	return d.load(ctx, id, cacheKey)
}

func (d *directory) GetEmployeeFresh(ctx context.Context, id string) (employee.Employee, error) {
	if !validator.IsValidUUID(id) {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return d.load(ctx, id, DirectoryKey(id))
}

// load reads the repository once per key across concurrent callers and
// refreshes the cache. The shared read runs detached from any single
// caller's cancellation; each caller still stops waiting when its own ctx
// is done.
func (d *directory) load(ctx context.Context, id, cacheKey string) (employee.Employee, error) {
	loadCtx := context.WithoutCancel(ctx)

	ch := d.sf.DoChan(cacheKey, func() (interface{}, error) {
		e, err := d.repo.GetByID(loadCtx, id)
		if err != nil {
			return employee.Employee{}, err
		}

		if d.rdb != nil {
			if payload, err := EncodeCached(e); err == nil {
				if err := d.rdb.Set(loadCtx, cacheKey, payload, DirectoryCacheTTL).Err(); err != nil {
					slog.Warn("employee cache write failed", "employee_id", id, "error", err)
				}
			}
		}
		return e, nil
	})

	select {
	case <-ctx.Done():
		return employee.Employee{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if errors.Is(res.Err, employee.ErrEmployeeNotFound) {
				return employee.Employee{}, res.Err
			}
			return employee.Employee{}, fmt.Errorf("get employee %s: %w", id, res.Err)
		}
		return res.Val.(employee.Employee), nil
	}
}
