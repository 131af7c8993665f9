package ioc

import (
	"context"
	"testing"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/config"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/memory"
)

func TestProvidersAreMemoizedPerContainer(t *testing.T) {
	cfg := &config.Config{Storage: config.STORAGE_MEMORY}
	first := NewContainer(context.Background(), cfg)
	second := NewContainer(context.Background(), cfg)

	repo := useSubscribersRepository(first)
	if _, ok := repo.(*memory.SubscribersRepository); !ok {
		t.Fatalf(`useSubscribersRepository(memory) = %T, want *memory.SubscribersRepository`, repo)
	}
	if useSubscribersRepository(first) != repo {
		t.Errorf(`useSubscribersRepository() built a second instance in the same container`)
	}
	if useSubscribersRepository(second) == repo {
		t.Errorf(`useSubscribersRepository() shared an instance between containers`)
	}
}

func TestHashCacheDisabledWithoutRedis(t *testing.T) {
	c := NewContainer(context.Background(), &config.Config{Storage: config.STORAGE_MEMORY})
	if cache := useHashCache(c); cache != nil {
		t.Errorf(`useHashCache() without REDIS_ADDR = %v, want nil`, cache)
	}
	if err := c.Close(); err != nil {
		t.Errorf(`Close() = %v, want nil`, err)
	}
}
