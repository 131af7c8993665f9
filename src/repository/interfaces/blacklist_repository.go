package interfaces

import "context"

type BlacklistRepository interface {
	Block(ctx context.Context, chatId int64) error
	// Unblock fails with ErrNotFound for a chat that is not blocked.
	Unblock(ctx context.Context, chatId int64) error
	IsBlocked(ctx context.Context, chatId int64) (bool, error)
}
