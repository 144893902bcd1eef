package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/nudge/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

// Repository persists tasks and the settings record. Lists are ordered by
// ascending reminder time.
type Repository interface {
	CreateTask(ctx context.Context, in model.Task) error
	GetTask(ctx context.Context, id string) (model.Task, error)
	UpdateTask(ctx context.Context, in model.Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error)

	// GetSettings reports ok=false when nothing has been saved yet.
	GetSettings(ctx context.Context) (settings model.Settings, ok bool, err error)
	SaveSettings(ctx context.Context, in model.Settings) error

	Close() error
}

type TaskListFilter struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}
