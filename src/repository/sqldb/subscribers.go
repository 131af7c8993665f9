package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
	datastructures "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/data_structures"
)

var _ interfaces.SubscribersRepository = (*SubscribersRepository)(nil)

const (
	SUBSCRIBERS_TABLE   = "subscribers"
	SUBSCRIBERS_COLUMNS = "chat_id, chat_type, target_kind, target_name, notifications_enabled, daily_enabled, created_at"
)

type SubscribersRepository struct {
	db    *sql.DB
	locks *datastructures.KeyedMutex[int64]
}

func NewSubscribersRepository(db *sql.DB) *SubscribersRepository {
	return &SubscribersRepository{db: db, locks: datastructures.NewKeyedMutex[int64]()}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(row rowScanner) (*entities.Subscriber, error) {
	subscriber := &entities.Subscriber{}
	var (
		kind      string
		createdAt int64
	)
	err := row.Scan(&subscriber.ChatId, &subscriber.ChatType, &kind, &subscriber.Target.Name,
		&subscriber.NotificationsEnabled, &subscriber.DailyEnabled, &createdAt)
	if err != nil {
		return nil, err
	}
	subscriber.Target.Kind = entities.TargetKindFromString(kind)
	subscriber.CreatedAt = time.Unix(createdAt, 0).UTC()
	return subscriber, nil
}

func (repo *SubscribersRepository) Create(ctx context.Context, subscriber *entities.Subscriber) error {
	unlock := repo.locks.Lock(subscriber.ChatId)
	defer unlock()

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)", SUBSCRIBERS_TABLE, SUBSCRIBERS_COLUMNS)
	_, err := repo.db.ExecContext(ctx, query, subscriber.ChatId, subscriber.ChatType, subscriber.Target.Kind.ToString(),
		subscriber.Target.Name, subscriber.NotificationsEnabled, subscriber.DailyEnabled, subscriber.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to create subscriber %d: %w", subscriber.ChatId, mapError(err))
	}
	return nil
}

func (repo *SubscribersRepository) Get(ctx context.Context, chatId int64) (*entities.Subscriber, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE chat_id=$1", SUBSCRIBERS_COLUMNS, SUBSCRIBERS_TABLE)
	subscriber, err := scanSubscriber(repo.db.QueryRowContext(ctx, query, chatId))
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber %d: %w", chatId, mapError(err))
	}
	return subscriber, nil
}

func (repo *SubscribersRepository) Update(ctx context.Context, subscriber *entities.Subscriber) error {
	unlock := repo.locks.Lock(subscriber.ChatId)
	defer unlock()
	return repo.update(ctx, subscriber)
}

func (repo *SubscribersRepository) update(ctx context.Context, subscriber *entities.Subscriber) error {
	query := fmt.Sprintf(`UPDATE %s SET chat_type=$1, target_kind=$2, target_name=$3, notifications_enabled=$4, daily_enabled=$5
						WHERE chat_id=$6`, SUBSCRIBERS_TABLE)
	res, err := repo.db.ExecContext(ctx, query, subscriber.ChatType, subscriber.Target.Kind.ToString(), subscriber.Target.Name,
		subscriber.NotificationsEnabled, subscriber.DailyEnabled, subscriber.ChatId)
	if err != nil {
		return fmt.Errorf("failed to update subscriber %d: %w", subscriber.ChatId, mapError(err))
	}
	return expectAffected(res, fmt.Sprintf("subscriber %d", subscriber.ChatId))
}

func (repo *SubscribersRepository) Modify(ctx context.Context, chatId int64, change func(*entities.Subscriber) error) (*entities.Subscriber, error) {
	unlock := repo.locks.Lock(chatId)
	defer unlock()

	subscriber, err := repo.Get(ctx, chatId)
	if err != nil {
		return nil, err
	}
	if err := change(subscriber); err != nil {
		return nil, err
	}
	subscriber.ChatId = chatId
	if err := repo.update(ctx, subscriber); err != nil {
		return nil, err
	}
	return subscriber, nil
}

func (repo *SubscribersRepository) Delete(ctx context.Context, chatId int64) error {
	unlock := repo.locks.Lock(chatId)
	defer unlock()

	query := fmt.Sprintf("DELETE FROM %s WHERE chat_id=$1", SUBSCRIBERS_TABLE)
	res, err := repo.db.ExecContext(ctx, query, chatId)
	if err != nil {
		return fmt.Errorf("failed to delete subscriber %d: %w", chatId, mapError(err))
	}
	return expectAffected(res, fmt.Sprintf("subscriber %d", chatId))
}

func (repo *SubscribersRepository) ListByTarget(ctx context.Context, target entities.Target) ([]entities.Subscriber, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE target_kind=$1 AND target_name=$2 ORDER BY chat_id", SUBSCRIBERS_COLUMNS, SUBSCRIBERS_TABLE)
	return repo.list(ctx, query, target.Kind.ToString(), target.Name)
}

func (repo *SubscribersRepository) ListAll(ctx context.Context) ([]entities.Subscriber, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY chat_id", SUBSCRIBERS_COLUMNS, SUBSCRIBERS_TABLE)
	return repo.list(ctx, query)
}

func (repo *SubscribersRepository) list(ctx context.Context, query string, args ...any) ([]entities.Subscriber, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := []entities.Subscriber{}
	for rows.Next() {
		subscriber, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subscribers = append(subscribers, *subscriber)
	}
	return subscribers, rows.Err()
}

func (repo *SubscribersRepository) Stats(ctx context.Context) ([]entities.TargetStats, error) {
	query := fmt.Sprintf(`SELECT target_kind, target_name, COUNT(*) FROM %s
						GROUP BY target_kind, target_name ORDER BY target_kind, target_name`, SUBSCRIBERS_TABLE)
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count subscribers: %w", err)
	}
	defer rows.Close()

	stats := []entities.TargetStats{}
	for rows.Next() {
		var (
			kind string
			stat entities.TargetStats
		)
		if err := rows.Scan(&kind, &stat.Target.Name, &stat.Subscribers); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber stats: %w", err)
		}
		stat.Target.Kind = entities.TargetKindFromString(kind)
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func expectAffected(res sql.Result, what string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count affected rows for %s: %w", what, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", what, interfaces.ErrNotFound)
	}
	return nil
}
