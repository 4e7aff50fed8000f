package project

import (
	"context"
	"errors"
	"time"
)

// Project is referenced by salary records, never mutated by payroll.
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

var ErrProjectNotFound = errors.New("project not found")

type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (Project, error)
}
