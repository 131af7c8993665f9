package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
)

var _ interfaces.BlacklistRepository = (*BlacklistRepository)(nil)

const BLACKLIST_TABLE = "blacklist"

type BlacklistRepository struct {
	db *sql.DB
}

func NewBlacklistRepository(db *sql.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

func (repo *BlacklistRepository) Block(ctx context.Context, chatId int64) error {
	query := fmt.Sprintf("INSERT INTO %s (chat_id, blocked_at) VALUES ($1, $2) ON CONFLICT (chat_id) DO NOTHING", BLACKLIST_TABLE)
	_, err := repo.db.ExecContext(ctx, query, chatId, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to block chat %d: %w", chatId, mapError(err))
	}
	return nil
}

func (repo *BlacklistRepository) Unblock(ctx context.Context, chatId int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE chat_id=$1", BLACKLIST_TABLE)
	res, err := repo.db.ExecContext(ctx, query, chatId)
	if err != nil {
		return fmt.Errorf("failed to unblock chat %d: %w", chatId, mapError(err))
	}
	return expectAffected(res, fmt.Sprintf("blocked chat %d", chatId))
}

func (repo *BlacklistRepository) IsBlocked(ctx context.Context, chatId int64) (bool, error) {
	query := fmt.Sprintf("SELECT chat_id FROM %s WHERE chat_id=$1", BLACKLIST_TABLE)
	var id int64
	err := repo.db.QueryRowContext(ctx, query, chatId).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist for %d: %w", chatId, err)
	}
	return true, nil
}
