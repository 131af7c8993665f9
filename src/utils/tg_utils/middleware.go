package tgutils

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	SPAM_WARNING    = "⚠️ Слишком много запросов! Пожалуйста, подождите."
	NOT_OWNER_REPLY = "⛔ Команда доступна только администраторам бота."
)

type BlacklistChecker interface {
	IsBlocked(ctx context.Context, chatId int64) (bool, error)
}

func senderId(update *tgbotapi.Update) int64 {
	if user := update.SentFrom(); user != nil {
		return user.ID
	}
	if chat := update.FromChat(); chat != nil {
		return chat.ID
	}
	return 0
}

// RecoverMiddleware turns a panic in a handler into a logged error.
func RecoverMiddleware() Middleware {
	return func(next UpdateHandler) UpdateHandler {
		return UpdateHandlerFunc(func(ctx context.Context, update *tgbotapi.Update) (err error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("recovered from panic", "err", r, "update_id", update.UpdateID, "stack", string(debug.Stack()))
					err = fmt.Errorf("panic in update handler: %v", r)
				}
			}()
			return next.HandleUpdate(ctx, update)
		})
	}
}

// BlacklistMiddleware silently drops updates from blocked users. Owners are never dropped.
func BlacklistMiddleware(blacklist BlacklistChecker, isOwner func(int64) bool) Middleware {
	return func(next UpdateHandler) UpdateHandler {
		return UpdateHandlerFunc(func(ctx context.Context, update *tgbotapi.Update) error {
			userId := senderId(update)
			if isOwner(userId) {
				return next.HandleUpdate(ctx, update)
			}
			blocked, err := blacklist.IsBlocked(ctx, userId)
			if err != nil {
				return fmt.Errorf("failed to check blacklist during blacklist middleware: %w", err)
			}
			if blocked {
				slog.Info("dropped update from blocked user", "user_id", userId)
				return nil
			}
			return next.HandleUpdate(ctx, update)
		})
	}
}

// AntispamMiddleware lets every user send at most limit messages per window. The extra ones are answered with a warning.
func AntispamMiddleware(limiter *RateLimiter, bot TextSender) Middleware {
	return func(next UpdateHandler) UpdateHandler {
		return UpdateHandlerFunc(func(ctx context.Context, update *tgbotapi.Update) error {
			if update.Message == nil {
				return next.HandleUpdate(ctx, update)
			}
			if limiter.Allow(senderId(update)) {
				return next.HandleUpdate(ctx, update)
			}
			if err := bot.SendText(ctx, update.Message.Chat.ID, SPAM_WARNING); err != nil {
				return fmt.Errorf("failed to send spam warning: %w", err)
			}
			return nil
		})
	}
}

// OwnerOnly guards an admin command.
func OwnerOnly(isOwner func(int64) bool, bot TextSender, next CommandHandler) CommandHandler {
	return CommandHandlerFunc(func(ctx context.Context, message *tgbotapi.Message) error {
		if message.From == nil || !isOwner(message.From.ID) {
			if err := bot.SendText(ctx, message.Chat.ID, NOT_OWNER_REPLY); err != nil {
				return fmt.Errorf("failed to send not owner message during owner middleware: %w", err)
			}
			return nil
		}
		return next.HandleCommand(ctx, message)
	})
}

// RateLimiter is a sliding window counter per key.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[int64][]time.Time
	now    func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{limit: limit, window: window, hits: map[int64][]time.Time{}, now: time.Now}
}

func (limiter *RateLimiter) Allow(key int64) bool {
	if limiter.limit <= 0 {
		return true
	}
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := limiter.now()
	recent := limiter.prune(limiter.hits[key], now)
	if len(recent) >= limiter.limit {
		limiter.hits[key] = recent
		return false
	}
	limiter.hits[key] = append(recent, now)

	if len(limiter.hits) > 1024 {
		for other, hits := range limiter.hits {
			if kept := limiter.prune(hits, now); len(kept) == 0 {
				delete(limiter.hits, other)
			} else {
				limiter.hits[other] = kept
			}
		}
	}
	return true
}

func (limiter *RateLimiter) prune(hits []time.Time, now time.Time) []time.Time {
	kept := hits[:0]
	for _, hit := range hits {
		if now.Sub(hit) < limiter.window {
			kept = append(kept, hit)
		}
	}
	return kept
}
