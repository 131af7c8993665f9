package handlers

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/dispatcher"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/schedule"
	tgutils "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/tg_utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func deliveryReport(result dispatcher.Result) string {
	text := fmt.Sprintf("📨 Доставлено: %d, не доставлено: %d", len(result.Sent), len(result.Failed))
	if len(result.Failed) > 0 {
		ids := make([]string, 0, len(result.Failed))
		for _, chatId := range result.Failed {
			ids = append(ids, fmt.Sprint(chatId))
		}
		text += "\nОшибки: " + strings.Join(ids, ", ")
	}
	return text
}

// splitFirst separates the first argument from the rest of the text, keeping the line breaks of the text.
func splitFirst(arguments string) (string, string) {
	arguments = strings.TrimSpace(arguments)
	i := strings.IndexAny(arguments, " \n\t")
	if i < 0 {
		return arguments, ""
	}
	return arguments[:i], strings.TrimSpace(arguments[i+1:])
}

func (h *Handlers) Broadcast(ctx context.Context, message *tgbotapi.Message) error {
	text := strings.TrimSpace(message.CommandArguments())
	if text == "" {
		return NewInvalidInput("Использование: /broadcast <текст>")
	}
	result, err := h.broadcaster.Broadcast(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to broadcast: %w", err)
	}
	slog.Info("broadcast finished", "sent", len(result.Sent), "failed", len(result.Failed))
	return h.bot.SendText(ctx, message.Chat.ID, deliveryReport(result))
}

func (h *Handlers) SendToChat(ctx context.Context, message *tgbotapi.Message) error {
	rawId, text := splitFirst(message.CommandArguments())
	if text == "" {
		return NewInvalidInput("Использование: /send <chat_id> <текст>")
	}
	chatId, err := tgutils.ParseChatId(rawId)
	if err != nil {
		return NewInvalidInputWrapped("Некорректный chat_id", err)
	}
	result := h.broadcaster.Send(ctx, []int64{chatId}, text)
	return h.bot.SendText(ctx, message.Chat.ID, deliveryReport(result))
}

func (h *Handlers) SendToGroup(ctx context.Context, message *tgbotapi.Message) error {
	group, text := splitFirst(message.CommandArguments())
	if text == "" {
		return NewInvalidInput("Использование: /sendgroup <группа> <текст>")
	}
	target := entities.NewGroupTarget(normalizeGroup(group))
	subscribers, err := h.subscribers.ListByTarget(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to list subscribers of %s: %w", target.String(), err)
	}
	if len(subscribers) == 0 {
		return NewInvalidInput(fmt.Sprintf("У группы %s нет подписчиков", escape(target.Name)))
	}
	chatIds := make([]int64, 0, len(subscribers))
	for _, subscriber := range subscribers {
		chatIds = append(chatIds, subscriber.ChatId)
	}
	result := h.broadcaster.Send(ctx, chatIds, text)
	return h.bot.SendText(ctx, message.Chat.ID, deliveryReport(result))
}

func (h *Handlers) Block(ctx context.Context, message *tgbotapi.Message) error {
	chatId, err := tgutils.ParseChatId(message.CommandArguments())
	if err != nil {
		return NewInvalidInputWrapped("Использование: /block <chat_id>", err)
	}
	if h.isOwner(chatId) {
		return NewInvalidInput("Нельзя заблокировать администратора")
	}
	if err := h.blacklist.Block(ctx, chatId); err != nil {
		return fmt.Errorf("failed to block %d: %w", chatId, err)
	}
	slog.Info("chat blocked", "chat_id", chatId)
	return h.bot.SendText(ctx, message.Chat.ID, fmt.Sprintf("🚫 %d заблокирован", chatId))
}

func (h *Handlers) Unblock(ctx context.Context, message *tgbotapi.Message) error {
	chatId, err := tgutils.ParseChatId(message.CommandArguments())
	if err != nil {
		return NewInvalidInputWrapped("Использование: /unblock <chat_id>", err)
	}
	err = h.blacklist.Unblock(ctx, chatId)
	if errors.Is(err, interfaces.ErrNotFound) {
		return NewInvalidInputWrapped(fmt.Sprintf("%d нет в чёрном списке", chatId), err)
	}
	if err != nil {
		return fmt.Errorf("failed to unblock %d: %w", chatId, err)
	}
	slog.Info("chat unblocked", "chat_id", chatId)
	return h.bot.SendText(ctx, message.Chat.ID, fmt.Sprintf("✅ %d разблокирован", chatId))
}

func (h *Handlers) Stats(ctx context.Context, message *tgbotapi.Message) error {
	stats, err := h.subscribers.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get subscriber stats: %w", err)
	}
	slices.SortFunc(stats, func(a, b entities.TargetStats) int {
		return cmp.Or(cmp.Compare(b.Subscribers, a.Subscribers), cmp.Compare(a.Target.String(), b.Target.String()))
	})

	total := 0
	var lines strings.Builder
	for _, stat := range stats {
		total += stat.Subscribers
		fmt.Fprintf(&lines, "\n%s: %d", escape(schedule.TargetTitle(stat.Target)), stat.Subscribers)
	}
	text := fmt.Sprintf("📊 Подписчиков: %d, расписаний: %d%s", total, len(stats), lines.String())
	for _, chunk := range dispatcher.SplitMessage(text, dispatcher.MESSAGE_LIMIT) {
		if err := h.bot.SendText(ctx, message.Chat.ID, chunk); err != nil {
			return err
		}
	}
	return nil
}

// Check runs a forced polling cycle in the background and reports to the owner when it ends.
func (h *Handlers) Check(ctx context.Context, message *tgbotapi.Message) error {
	chatId := message.Chat.ID
	if err := h.bot.SendText(ctx, chatId, "🔄 Проверка расписания запущена"); err != nil {
		return err
	}
	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), CHECK_TIMEOUT)
	h.spawn(func() {
		defer cancel()
		report, err := h.schedule.CheckAll(checkCtx, true)
		text := fmt.Sprintf("✅ Проверено: %d, изменилось: %d, ошибок: %d", report.Checked, report.Changed, report.Failed)
		if report.Unchecked > 0 {
			text += fmt.Sprintf("\n⏱ Не успели проверить: %d", report.Unchecked)
		}
		if err != nil && report.Unchecked == 0 {
			slog.Error(fmt.Errorf("failed to run manual schedule check: %w", err).Error())
			text = GENERIC_FAILURE
		}
		replyCtx, cancelReply := context.WithTimeout(context.WithoutCancel(checkCtx), REPLY_TIMEOUT)
		defer cancelReply()
		if err := h.bot.SendText(replyCtx, chatId, text); err != nil {
			slog.Error(err.Error())
		}
	})
	return nil
}
