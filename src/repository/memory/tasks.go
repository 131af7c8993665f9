package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
)

var _ interfaces.TasksRepository = (*TasksRepository)(nil)

type TasksRepository struct {
	mu    sync.Mutex
	tasks []entities.PersistedTask
}

func NewTasksRepository() *TasksRepository {
	return &TasksRepository{}
}

func (repo *TasksRepository) Add(ctx context.Context, task entities.PersistedTask) error {
	repo.mu.Lock()
	repo.tasks = append(repo.tasks, task)
	repo.mu.Unlock()
	return nil
}

func (repo *TasksRepository) GetCompleted(ctx context.Context, after time.Time) ([]entities.PersistedTask, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	result := []entities.PersistedTask{}
	for _, task := range repo.tasks {
		if task.ExecutedAt.After(after) {
			result = append(result, task)
		}
	}
	return result, nil
}

func (repo *TasksRepository) DeleteBefore(ctx context.Context, before time.Time) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	kept := repo.tasks[:0]
	for _, task := range repo.tasks {
		if !task.ExecutedAt.Before(before) {
			kept = append(kept, task)
		}
	}
	repo.tasks = kept
	return nil
}
