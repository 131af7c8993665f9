package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/schedule"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

const (
	DEFAULT_CONCURRENCY = 10
	DEFAULT_RETRIES     = 3
)

var _ schedule.Notifier = (*Dispatcher)(nil)

type Sender interface {
	SendText(ctx context.Context, chatId int64, text string) error
}

type SubscribersLister interface {
	ListByTarget(ctx context.Context, target entities.Target) ([]entities.Subscriber, error)
	ListAll(ctx context.Context) ([]entities.Subscriber, error)
}

// Result lists the chats that got the whole message and the ones that did not.
type Result struct {
	Sent   []int64
	Failed []int64
}

type Dispatcher struct {
	sender      Sender
	subscribers SubscribersLister
	concurrency int
	retries     int
}

func WithConcurrency(concurrency int) func(*Dispatcher) {
	return func(dispatcher *Dispatcher) {
		if concurrency > 0 {
			dispatcher.concurrency = concurrency
		}
	}
}

func WithRetries(retries int) func(*Dispatcher) {
	return func(dispatcher *Dispatcher) {
		if retries > 0 {
			dispatcher.retries = retries
		}
	}
}

func NewDispatcher(sender Sender, subscribers SubscribersLister, opts ...func(*Dispatcher)) *Dispatcher {
	dispatcher := &Dispatcher{
		sender:      sender,
		subscribers: subscribers,
		concurrency: DEFAULT_CONCURRENCY,
		retries:     DEFAULT_RETRIES,
	}
	for _, opt := range opts {
		opt(dispatcher)
	}
	return dispatcher
}

func (dispatcher *Dispatcher) NotifyChanges(ctx context.Context, diff *schedule.Diff) error {
	_, err := dispatcher.DispatchDiff(ctx, diff)
	return err
}

// DispatchDiff sends the formatted diff to the target's subscribers that keep notifications on.
func (dispatcher *Dispatcher) DispatchDiff(ctx context.Context, diff *schedule.Diff) (Result, error) {
	if diff.IsEmpty() {
		return Result{}, nil
	}
	chatIds, err := dispatcher.recipients(ctx, diff.Target, func(sub *entities.Subscriber) bool { return sub.NotificationsEnabled })
	if err != nil {
		return Result{}, err
	}
	result := dispatcher.Send(ctx, chatIds, schedule.FormatDiff(diff))
	slog.Info("dispatched schedule changes", "target", diff.Target.String(), "changes", len(diff.Changes),
		"sent", len(result.Sent), "failed", len(result.Failed))
	return result, nil
}

// DispatchDaily sends text to the target's subscribers with daily mailing on.
func (dispatcher *Dispatcher) DispatchDaily(ctx context.Context, target entities.Target, text string) (Result, error) {
	chatIds, err := dispatcher.recipients(ctx, target, func(sub *entities.Subscriber) bool { return sub.DailyEnabled })
	if err != nil {
		return Result{}, err
	}
	return dispatcher.Send(ctx, chatIds, text), nil
}

// Broadcast sends text to every subscriber.
func (dispatcher *Dispatcher) Broadcast(ctx context.Context, text string) (Result, error) {
	subscribers, err := dispatcher.subscribers.ListAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list subscribers for broadcast: %w", err)
	}
	chatIds := make([]int64, 0, len(subscribers))
	for _, subscriber := range subscribers {
		chatIds = append(chatIds, subscriber.ChatId)
	}
	return dispatcher.Send(ctx, chatIds, text), nil
}

func (dispatcher *Dispatcher) recipients(ctx context.Context, target entities.Target, keep func(*entities.Subscriber) bool) ([]int64, error) {
	subscribers, err := dispatcher.subscribers.ListByTarget(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers of %s: %w", target, err)
	}
	chatIds := make([]int64, 0, len(subscribers))
	for i := range subscribers {
		if keep(&subscribers[i]) {
			chatIds = append(chatIds, subscribers[i].ChatId)
		}
	}
	return chatIds, nil
}

// Send fans text out to chatIds. A failed chat is logged and recorded, the others carry on.
func (dispatcher *Dispatcher) Send(ctx context.Context, chatIds []int64, text string) Result {
	chunks := SplitMessage(text, MESSAGE_LIMIT)
	result := Result{}
	var mu sync.Mutex

	group := errgroup.Group{}
	group.SetLimit(dispatcher.concurrency)
	for _, chatId := range chatIds {
		group.Go(func() error {
			err := dispatcher.sendChunks(ctx, chatId, chunks)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("failed to send message", "chat_id", chatId, "err", err)
				result.Failed = append(result.Failed, chatId)
				return nil
			}
			result.Sent = append(result.Sent, chatId)
			return nil
		})
	}
	group.Wait()

	slices.Sort(result.Sent)
	slices.Sort(result.Failed)
	return result
}

func (dispatcher *Dispatcher) sendChunks(ctx context.Context, chatId int64, chunks []string) error {
	for _, chunk := range chunks {
		if err := dispatcher.sendWithRetry(ctx, chatId, chunk); err != nil {
			return err
		}
	}
	return nil
}

// sendWithRetry waits out "too many requests" answers, other errors are returned at once.
func (dispatcher *Dispatcher) sendWithRetry(ctx context.Context, chatId int64, text string) error {
	var err error
	for attempt := range dispatcher.retries {
		err = dispatcher.sender.SendText(ctx, chatId, text)
		if err == nil {
			return nil
		}
		wait, ok := retryAfter(err)
		if !ok || attempt == dispatcher.retries-1 {
			return err
		}
		slog.Warn("flood limit hit, waiting", "chat_id", chatId, "wait", wait.String())
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(wait):
		}
	}
	return err
}

func retryAfter(err error) (time.Duration, bool) {
	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) {
		return 0, false
	}
	if tgErr.Code != http.StatusTooManyRequests && tgErr.RetryAfter == 0 {
		return 0, false
	}
	return time.Duration(tgErr.RetryAfter) * time.Second, true
}
