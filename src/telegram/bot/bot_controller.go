package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/logging"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/telegram/handlers"
	tgutils "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/tg_utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const UPDATES_TIMEOUT = 60

type UpdatesSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type BotController struct {
	bot           *tgutils.Bot
	updates       UpdatesSource
	handler       tgutils.UpdateHandler
	replier       tgutils.TextSender
	updateTimeout time.Duration
}

func NewBotController(bot *tgutils.Bot, handler tgutils.UpdateHandler, updateTimeout time.Duration) *BotController {
	return &BotController{
		bot:           bot,
		updates:       bot.BotAPI,
		handler:       handler,
		replier:       bot,
		updateTimeout: updateTimeout,
	}
}

// Start polls for updates until ctx is done. Updates are handled one at a time.
func (controller *BotController) Start(ctx context.Context) {
	logging.Info(fmt.Sprintf("authorized on account %s", controller.bot.Self.UserName))

	if err := controller.bot.SetCommands(ctx, handlers.BotCommands()); err != nil {
		slog.Error(err.Error())
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = UPDATES_TIMEOUT
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := controller.updates.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			controller.updates.StopReceivingUpdates()
			logging.Info("stopped receiving updates")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			controller.HandleUpdate(ctx, &update)
		}
	}
}

// HandleUpdate runs the handler with its own deadline and answers a failed update with an error message.
func (controller *BotController) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, controller.updateTimeout)
	defer cancel()

	err := controller.handler.HandleUpdate(updateCtx, update)
	if err == nil {
		return
	}
	chat := update.FromChat()
	var invalid *handlers.ErrInvalidInput
	if errors.As(err, &invalid) {
		slog.Debug("invalid user input", "err", err)
	} else if errors.Is(err, tgutils.ErrNoRoute) {
		slog.Debug("no route for update", "update_id", update.UpdateID)
		return
	} else {
		attrs := []any{"update_id", update.UpdateID}
		if chat != nil {
			attrs = append(attrs, "chat_id", chat.ID)
		}
		slog.Error(err.Error(), attrs...)
	}
	if chat == nil {
		return
	}
	if err := controller.replier.SendText(updateCtx, chat.ID, handlers.UserMessage(err)); err != nil {
		slog.Error(fmt.Errorf("failed to send error reply: %w", err).Error())
	}
}
