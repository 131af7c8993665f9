package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
	datastructures "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/data_structures"
)

var _ interfaces.SubscribersRepository = (*SubscribersRepository)(nil)

// SubscribersRepository keeps subscribers in a sync.Map, for STORAGE=memory and tests.
type SubscribersRepository struct {
	storage sync.Map
	locks   *datastructures.KeyedMutex[int64]
}

func NewSubscribersRepository() *SubscribersRepository {
	return &SubscribersRepository{locks: datastructures.NewKeyedMutex[int64]()}
}

func (repo *SubscribersRepository) Create(ctx context.Context, subscriber *entities.Subscriber) error {
	unlock := repo.locks.Lock(subscriber.ChatId)
	defer unlock()

	if _, loaded := repo.storage.LoadOrStore(subscriber.ChatId, *subscriber); loaded {
		return fmt.Errorf("failed to create subscriber %d: %w", subscriber.ChatId, interfaces.ErrAlreadyExists)
	}
	return nil
}

func (repo *SubscribersRepository) Get(ctx context.Context, chatId int64) (*entities.Subscriber, error) {
	value, ok := repo.storage.Load(chatId)
	if !ok {
		return nil, fmt.Errorf("failed to get subscriber %d: %w", chatId, interfaces.ErrNotFound)
	}
	subscriber := value.(entities.Subscriber)
	return &subscriber, nil
}

func (repo *SubscribersRepository) Update(ctx context.Context, subscriber *entities.Subscriber) error {
	unlock := repo.locks.Lock(subscriber.ChatId)
	defer unlock()
	return repo.update(subscriber)
}

func (repo *SubscribersRepository) update(subscriber *entities.Subscriber) error {
	if _, ok := repo.storage.Load(subscriber.ChatId); !ok {
		return fmt.Errorf("failed to update subscriber %d: %w", subscriber.ChatId, interfaces.ErrNotFound)
	}
	repo.storage.Store(subscriber.ChatId, *subscriber)
	return nil
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
	if err := repo.update(subscriber); err != nil {
		return nil, err
	}
	return subscriber, nil
}

func (repo *SubscribersRepository) Delete(ctx context.Context, chatId int64) error {
	unlock := repo.locks.Lock(chatId)
	defer unlock()

	if _, loaded := repo.storage.LoadAndDelete(chatId); !loaded {
		return fmt.Errorf("failed to delete subscriber %d: %w", chatId, interfaces.ErrNotFound)
	}
	return nil
}

func (repo *SubscribersRepository) ListByTarget(ctx context.Context, target entities.Target) ([]entities.Subscriber, error) {
	return repo.filter(func(subscriber *entities.Subscriber) bool { return subscriber.Target == target }), nil
}

func (repo *SubscribersRepository) ListAll(ctx context.Context) ([]entities.Subscriber, error) {
	return repo.filter(func(*entities.Subscriber) bool { return true }), nil
}

func (repo *SubscribersRepository) Stats(ctx context.Context) ([]entities.TargetStats, error) {
	counts := map[entities.Target]int{}
	for _, subscriber := range repo.filter(func(*entities.Subscriber) bool { return true }) {
		counts[subscriber.Target]++
	}
	stats := make([]entities.TargetStats, 0, len(counts))
	for target, count := range counts {
		stats = append(stats, entities.TargetStats{Target: target, Subscribers: count})
	}
	slices.SortFunc(stats, func(a, b entities.TargetStats) int {
		if a.Target.Kind != b.Target.Kind {
			return int(a.Target.Kind) - int(b.Target.Kind)
		}
		return strings.Compare(a.Target.Name, b.Target.Name)
	})
	return stats, nil
}

func (repo *SubscribersRepository) filter(keep func(*entities.Subscriber) bool) []entities.Subscriber {
	subscribers := []entities.Subscriber{}
	repo.storage.Range(func(_, value any) bool {
		subscriber := value.(entities.Subscriber)
		if keep(&subscriber) {
			subscribers = append(subscribers, subscriber)
		}
		return true
	})
	slices.SortFunc(subscribers, func(a, b entities.Subscriber) int { return cmp.Compare(a.ChatId, b.ChatId) })
	return subscribers
}
