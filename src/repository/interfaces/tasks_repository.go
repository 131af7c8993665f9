package interfaces

import (
	"context"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
)

type TasksRepository interface {
	Add(ctx context.Context, task entities.PersistedTask) error
	GetCompleted(ctx context.Context, after time.Time) ([]entities.PersistedTask, error)
	DeleteBefore(ctx context.Context, before time.Time) error
}
