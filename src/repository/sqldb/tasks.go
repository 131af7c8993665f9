package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
)

var _ interfaces.TasksRepository = (*TasksRepository)(nil)

const TASKS_TABLE = "tasks"

type TasksRepository struct {
	db *sql.DB
}

func NewTasksRepository(db *sql.DB) *TasksRepository {
	return &TasksRepository{db: db}
}

func (repo *TasksRepository) Add(ctx context.Context, task entities.PersistedTask) error {
	query := fmt.Sprintf("INSERT INTO %s (task_timestamp, task_name) VALUES ($1, $2)", TASKS_TABLE)
	_, err := repo.db.ExecContext(ctx, query, task.ExecutedAt.Unix(), task.Name)
	if err != nil {
		return fmt.Errorf("failed to persist task %s: %w", task.Name, err)
	}
	return nil
}

func (repo *TasksRepository) GetCompleted(ctx context.Context, after time.Time) ([]entities.PersistedTask, error) {
	query := fmt.Sprintf("SELECT task_timestamp, task_name FROM %s WHERE task_timestamp>$1 ORDER BY task_timestamp", TASKS_TABLE)
	rows, err := repo.db.QueryContext(ctx, query, after.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to get completed tasks: %w", err)
	}
	defer rows.Close()

	result := []entities.PersistedTask{}
	for rows.Next() {
		task := entities.PersistedTask{}
		executedAt := int64(0)
		if err := rows.Scan(&executedAt, &task.Name); err != nil {
			return nil, err
		}
		task.ExecutedAt = time.Unix(executedAt, 0)
		result = append(result, task)
	}
	return result, rows.Err()
}

func (repo *TasksRepository) DeleteBefore(ctx context.Context, before time.Time) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE task_timestamp<$1", TASKS_TABLE)
	_, err := repo.db.ExecContext(ctx, query, before.Unix())
	if err != nil {
		return fmt.Errorf("failed to delete old tasks: %w", err)
	}
	return nil
}
