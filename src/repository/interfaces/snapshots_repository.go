package interfaces

import (
	"context"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
)

// SnapshotsRepository keeps the last known snapshot per target. Save replaces the previous one.
type SnapshotsRepository interface {
	Get(ctx context.Context, target entities.Target) (*entities.ScheduleSnapshot, error)
	Save(ctx context.Context, snapshot *entities.ScheduleSnapshot) error
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// HashCache remembers the hash of the last stored snapshot. A miss is ("", nil).
type HashCache interface {
	GetHash(ctx context.Context, target entities.Target) (string, error)
	SetHash(ctx context.Context, target entities.Target, hash string) error
}
