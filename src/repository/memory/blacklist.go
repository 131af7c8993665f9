package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
)

var _ interfaces.BlacklistRepository = (*BlacklistRepository)(nil)

type BlacklistRepository struct {
	blocked sync.Map
}

func NewBlacklistRepository() *BlacklistRepository {
	return &BlacklistRepository{}
}

func (repo *BlacklistRepository) Block(ctx context.Context, chatId int64) error {
	repo.blocked.Store(chatId, struct{}{})
	return nil
}

func (repo *BlacklistRepository) Unblock(ctx context.Context, chatId int64) error {
	if _, loaded := repo.blocked.LoadAndDelete(chatId); !loaded {
		return fmt.Errorf("failed to unblock chat %d: %w", chatId, interfaces.ErrNotFound)
	}
	return nil
}

func (repo *BlacklistRepository) IsBlocked(ctx context.Context, chatId int64) (bool, error) {
	_, ok := repo.blocked.Load(chatId)
	return ok, nil
}
