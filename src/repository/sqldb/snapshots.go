package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/sqldb/persistance"
)

var _ interfaces.SnapshotsRepository = (*SnapshotsRepository)(nil)

const SNAPSHOTS_TABLE = "snapshots"

type SnapshotsRepository struct {
	db       *sql.DB
	location *time.Location
}

func NewSnapshotsRepository(db *sql.DB, location *time.Location) *SnapshotsRepository {
	if location == nil {
		location = time.UTC
	}
	return &SnapshotsRepository{db: db, location: location}
}

func (repo *SnapshotsRepository) Get(ctx context.Context, target entities.Target) (*entities.ScheduleSnapshot, error) {
	query := fmt.Sprintf("SELECT fetched_at, lessons FROM %s WHERE target_kind=$1 AND target_name=$2", SNAPSHOTS_TABLE)
	var (
		fetchedAt int64
		raw       string
	)
	err := repo.db.QueryRowContext(ctx, query, target.Kind.ToString(), target.Name).Scan(&fetchedAt, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot of %s: %w", target, mapError(err))
	}
	lessons, err := persistance.UnmarshalLessons(raw, repo.location)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot of %s: %w", target, err)
	}
	return &entities.ScheduleSnapshot{Target: target, FetchedAt: time.Unix(fetchedAt, 0).In(repo.location), Lessons: lessons}, nil
}

func (repo *SnapshotsRepository) Save(ctx context.Context, snapshot *entities.ScheduleSnapshot) error {
	raw, err := persistance.MarshalLessons(snapshot.Lessons)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot of %s: %w", snapshot.Target, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (target_kind, target_name, fetched_at, hash, lessons) VALUES ($1, $2, $3, $4, $5)
						ON CONFLICT (target_kind, target_name) DO UPDATE SET fetched_at=excluded.fetched_at, hash=excluded.hash, lessons=excluded.lessons`, SNAPSHOTS_TABLE)
	_, err = repo.db.ExecContext(ctx, query, snapshot.Target.Kind.ToString(), snapshot.Target.Name,
		snapshot.FetchedAt.Unix(), snapshot.Hash(), raw)
	if err != nil {
		return fmt.Errorf("failed to save snapshot of %s: %w", snapshot.Target, mapError(err))
	}
	return nil
}

func (repo *SnapshotsRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE fetched_at<$1", SNAPSHOTS_TABLE)
	res, err := repo.db.ExecContext(ctx, query, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old snapshots: %w", err)
	}
	return res.RowsAffected()
}
