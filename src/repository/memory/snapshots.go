package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
)

var _ interfaces.SnapshotsRepository = (*SnapshotsRepository)(nil)

type SnapshotsRepository struct {
	mu        sync.RWMutex
	snapshots map[entities.Target]entities.ScheduleSnapshot
}

func NewSnapshotsRepository() *SnapshotsRepository {
	return &SnapshotsRepository{snapshots: map[entities.Target]entities.ScheduleSnapshot{}}
}

func (repo *SnapshotsRepository) Get(ctx context.Context, target entities.Target) (*entities.ScheduleSnapshot, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	snapshot, ok := repo.snapshots[target]
	if !ok {
		return nil, fmt.Errorf("failed to get snapshot of %s: %w", target, interfaces.ErrNotFound)
	}
	snapshot.Lessons = slices.Clone(snapshot.Lessons)
	return &snapshot, nil
}

func (repo *SnapshotsRepository) Save(ctx context.Context, snapshot *entities.ScheduleSnapshot) error {
	stored := *snapshot
	stored.Lessons = slices.Clone(snapshot.Lessons)
	repo.mu.Lock()
	repo.snapshots[snapshot.Target] = stored
	repo.mu.Unlock()
	return nil
}

func (repo *SnapshotsRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	deleted := int64(0)
	for target, snapshot := range repo.snapshots {
		if snapshot.FetchedAt.Before(before) {
			delete(repo.snapshots, target)
			deleted++
		}
	}
	return deleted, nil
}
