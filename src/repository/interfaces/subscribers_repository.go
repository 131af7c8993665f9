package interfaces

import (
	"context"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
)

// SubscribersRepository stores one subscription per chat. Writes for the same chat_id are serialized.
type SubscribersRepository interface {
	// Create fails with ErrAlreadyExists when the chat is subscribed already.
	Create(ctx context.Context, subscriber *entities.Subscriber) error
	Get(ctx context.Context, chatId int64) (*entities.Subscriber, error)
	Update(ctx context.Context, subscriber *entities.Subscriber) error
	// Modify reads, changes and writes back one subscriber while holding its chat lock.
	Modify(ctx context.Context, chatId int64, change func(*entities.Subscriber) error) (*entities.Subscriber, error)
	Delete(ctx context.Context, chatId int64) error
	ListByTarget(ctx context.Context, target entities.Target) ([]entities.Subscriber, error)
	ListAll(ctx context.Context) ([]entities.Subscriber, error)
	// Stats lists every subscribed target with its subscriber count.
	Stats(ctx context.Context) ([]entities.TargetStats, error)
}
