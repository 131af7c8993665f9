package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/dispatcher"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/schedule"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/utils"
	datetime "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/date_time"
	tgutils "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/tg_utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	NOT_SUBSCRIBED    = "Вы ещё не подписаны. Выберите группу /group или преподавателя /mentor."
	CHOOSE_GROUP      = "Выберите группу:"
	CHOOSE_MENTOR     = "Выберите преподавателя:"
	SELECTION_EXPIRED = "Список устарел, повторите команду."
)

func escape(text string) string {
	return html.EscapeString(text)
}

func onOff(enabled bool) string {
	if enabled {
		return "включены ✅"
	}
	return "выключены ❌"
}

// callbackChat is the chat of the message carrying the keyboard. Telegram omits it for very old messages.
func callbackChat(query *tgbotapi.CallbackQuery) (*tgbotapi.Chat, error) {
	if query.Message == nil || query.Message.Chat == nil {
		return nil, NewInvalidInput(SELECTION_EXPIRED)
	}
	return query.Message.Chat, nil
}

func (h *Handlers) subscribe(ctx context.Context, chat *tgbotapi.Chat, target entities.Target) error {
	subscriber := entities.NewSubscriber(chat.ID, target, entities.WithChatType(chat.Type))
	err := h.subscribers.Create(ctx, subscriber)
	if errors.Is(err, interfaces.ErrAlreadyExists) {
		_, err = h.subscribers.Modify(ctx, chat.ID, func(existing *entities.Subscriber) error {
			existing.Target = target
			return nil
		})
	}
	if err != nil {
		return fmt.Errorf("failed to subscribe chat %d to %s: %w", chat.ID, target.String(), err)
	}
	text := fmt.Sprintf("✅ Подписка оформлена: %s\nРасписание: /schedule, настройки: /settings", escape(schedule.TargetTitle(target)))
	return h.bot.SendText(ctx, chat.ID, text)
}

// subscriber loads the subscription of the chat, a missing one becomes a hint for the user.
func (h *Handlers) subscriber(ctx context.Context, chatId int64) (*entities.Subscriber, error) {
	subscriber, err := h.subscribers.Get(ctx, chatId)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, NewInvalidInputWrapped(NOT_SUBSCRIBED, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber %d: %w", chatId, err)
	}
	return subscriber, nil
}

func normalizeGroup(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), ""))
}

func (h *Handlers) Group(ctx context.Context, message *tgbotapi.Message) error {
	params, err := h.schedule.SearchParameters(ctx, entities.Student)
	if err != nil {
		return fmt.Errorf("failed to get groups: %w", err)
	}

	group := normalizeGroup(message.CommandArguments())
	if group == "" {
		markup := tgutils.PagedInlineKeyboard(groupButtons(params.Groups), tgutils.KEYBOARD_COLUMNS, tgutils.KEYBOARD_PAGE, 0, GROUP_PAGE_CALLBACK)
		return h.bot.SendTextWithMarkup(ctx, message.Chat.ID, CHOOSE_GROUP, markup)
	}
	if !params.HasGroup(group) {
		return NewInvalidInput(fmt.Sprintf("Группа %s не найдена. Список групп: /group", escape(group)))
	}
	return h.subscribe(ctx, message.Chat, entities.NewGroupTarget(group))
}

func groupButtons(groups []string) []tgutils.KeyboardButton {
	buttons := make([]tgutils.KeyboardButton, 0, len(groups))
	for _, group := range groups {
		buttons = append(buttons, tgutils.KeyboardButton{Text: group, Data: GROUP_CALLBACK + group})
	}
	return buttons
}

func (h *Handlers) GroupSelected(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if err := h.bot.AnswerCallback(ctx, query.ID, ""); err != nil {
		return fmt.Errorf("failed to answer group callback: %w", err)
	}
	chat, err := callbackChat(query)
	if err != nil {
		return err
	}
	params, err := h.schedule.SearchParameters(ctx, entities.Student)
	if err != nil {
		return fmt.Errorf("failed to get groups: %w", err)
	}
	group := strings.TrimPrefix(query.Data, GROUP_CALLBACK)
	if !params.HasGroup(group) {
		return NewInvalidInput(SELECTION_EXPIRED)
	}
	return h.subscribe(ctx, chat, entities.NewGroupTarget(group))
}

func (h *Handlers) GroupPage(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	page, err := strconv.Atoi(strings.TrimPrefix(query.Data, GROUP_PAGE_CALLBACK))
	if err != nil {
		return fmt.Errorf("failed to parse group page %q: %w", query.Data, err)
	}
	params, err := h.schedule.SearchParameters(ctx, entities.Student)
	if err != nil {
		return fmt.Errorf("failed to get groups: %w", err)
	}
	markup := tgutils.PagedInlineKeyboard(groupButtons(params.Groups), tgutils.KEYBOARD_COLUMNS, tgutils.KEYBOARD_PAGE, page, GROUP_PAGE_CALLBACK)
	return h.turnPage(ctx, query, markup)
}

func (h *Handlers) turnPage(ctx context.Context, query *tgbotapi.CallbackQuery, markup tgbotapi.InlineKeyboardMarkup) error {
	if err := h.bot.AnswerCallback(ctx, query.ID, ""); err != nil {
		return fmt.Errorf("failed to answer page callback: %w", err)
	}
	chat, err := callbackChat(query)
	if err != nil {
		return err
	}
	if err := h.bot.EditMarkup(ctx, chat.ID, query.Message.MessageID, markup); err != nil {
		return fmt.Errorf("failed to switch keyboard page: %w", err)
	}
	return nil
}

// mentorButtons refers to mentors by their position in the full list, names do not fit into callback data.
func mentorButtons(mentors []string, indexes []int) []tgutils.KeyboardButton {
	buttons := make([]tgutils.KeyboardButton, 0, len(indexes))
	for _, i := range indexes {
		buttons = append(buttons, tgutils.KeyboardButton{
			Text: utils.ShortName(mentors[i]),
			Data: MENTOR_CALLBACK + strconv.Itoa(i),
		})
	}
	return buttons
}

func allIndexes(n int) []int {
	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}
	return indexes
}

func (h *Handlers) Mentor(ctx context.Context, message *tgbotapi.Message) error {
	params, err := h.schedule.SearchParameters(ctx, entities.Mentor)
	if err != nil {
		return fmt.Errorf("failed to get mentors: %w", err)
	}

	query := utils.CollapseSpaces(message.CommandArguments())
	if query == "" {
		buttons := mentorButtons(params.Mentors, allIndexes(len(params.Mentors)))
		markup := tgutils.PagedInlineKeyboard(buttons, 2, tgutils.KEYBOARD_PAGE, 0, MENTOR_PAGE_CALLBACK)
		return h.bot.SendTextWithMarkup(ctx, message.Chat.ID, CHOOSE_MENTOR, markup)
	}

	var matches []int
	for i, mentor := range params.Mentors {
		if utils.ContainsFolded(mentor, query) {
			matches = append(matches, i)
		}
	}
	switch {
	case len(matches) == 0:
		return NewInvalidInput(fmt.Sprintf("Преподаватель «%s» не найден.", escape(query)))
	case len(matches) == 1:
		return h.subscribe(ctx, message.Chat, entities.NewMentorTarget(params.Mentors[matches[0]]))
	case len(matches) > tgutils.KEYBOARD_PAGE:
		return NewInvalidInput(fmt.Sprintf("Найдено %d преподавателей, уточните запрос.", len(matches)))
	}
	markup := tgutils.PagedInlineKeyboard(mentorButtons(params.Mentors, matches), 2, 0, 0, MENTOR_PAGE_CALLBACK)
	return h.bot.SendTextWithMarkup(ctx, message.Chat.ID, CHOOSE_MENTOR, markup)
}

func (h *Handlers) MentorSelected(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if err := h.bot.AnswerCallback(ctx, query.ID, ""); err != nil {
		return fmt.Errorf("failed to answer mentor callback: %w", err)
	}
	chat, err := callbackChat(query)
	if err != nil {
		return err
	}
	params, err := h.schedule.SearchParameters(ctx, entities.Mentor)
	if err != nil {
		return fmt.Errorf("failed to get mentors: %w", err)
	}
	index, err := strconv.Atoi(strings.TrimPrefix(query.Data, MENTOR_CALLBACK))
	if err != nil || index < 0 || index >= len(params.Mentors) {
		return NewInvalidInput(SELECTION_EXPIRED)
	}
	return h.subscribe(ctx, chat, entities.NewMentorTarget(params.Mentors[index]))
}

func (h *Handlers) MentorPage(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	page, err := strconv.Atoi(strings.TrimPrefix(query.Data, MENTOR_PAGE_CALLBACK))
	if err != nil {
		return fmt.Errorf("failed to parse mentor page %q: %w", query.Data, err)
	}
	params, err := h.schedule.SearchParameters(ctx, entities.Mentor)
	if err != nil {
		return fmt.Errorf("failed to get mentors: %w", err)
	}
	buttons := mentorButtons(params.Mentors, allIndexes(len(params.Mentors)))
	markup := tgutils.PagedInlineKeyboard(buttons, 2, tgutils.KEYBOARD_PAGE, page, MENTOR_PAGE_CALLBACK)
	return h.turnPage(ctx, query, markup)
}

// Schedule shows the stored schedule from today on, fetching it when nothing is stored yet.
func (h *Handlers) Schedule(ctx context.Context, message *tgbotapi.Message) error {
	subscriber, err := h.subscriber(ctx, message.Chat.ID)
	if err != nil {
		return err
	}
	snapshot, err := h.schedule.Current(ctx, subscriber.Target)
	if err != nil {
		return fmt.Errorf("failed to get schedule of %s: %w", subscriber.Target.String(), err)
	}
	today := datetime.StartOfDay(h.schedule.Now())
	text := schedule.FormatSnapshot(snapshot.OnOrAfter(today))
	for _, chunk := range dispatcher.SplitMessage(text, dispatcher.MESSAGE_LIMIT) {
		if err := h.bot.SendText(ctx, message.Chat.ID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) ToggleNotifications(ctx context.Context, message *tgbotapi.Message) error {
	subscriber, err := h.toggle(ctx, message.Chat.ID, func(subscriber *entities.Subscriber) {
		subscriber.NotificationsEnabled = !subscriber.NotificationsEnabled
	})
	if err != nil {
		return err
	}
	return h.bot.SendText(ctx, message.Chat.ID, "🔔 Уведомления об изменениях "+onOff(subscriber.NotificationsEnabled))
}

func (h *Handlers) ToggleDaily(ctx context.Context, message *tgbotapi.Message) error {
	subscriber, err := h.toggle(ctx, message.Chat.ID, func(subscriber *entities.Subscriber) {
		subscriber.DailyEnabled = !subscriber.DailyEnabled
	})
	if err != nil {
		return err
	}
	return h.bot.SendText(ctx, message.Chat.ID, "📅 Ежедневная рассылка "+onOff(subscriber.DailyEnabled))
}

func (h *Handlers) toggle(ctx context.Context, chatId int64, change func(*entities.Subscriber)) (*entities.Subscriber, error) {
	subscriber, err := h.subscribers.Modify(ctx, chatId, func(subscriber *entities.Subscriber) error {
		change(subscriber)
		return nil
	})
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, NewInvalidInputWrapped(NOT_SUBSCRIBED, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update subscriber %d: %w", chatId, err)
	}
	return subscriber, nil
}

func (h *Handlers) Settings(ctx context.Context, message *tgbotapi.Message) error {
	subscriber, err := h.subscriber(ctx, message.Chat.ID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("⚙️ <b>Настройки</b>\nПодписка: %s\nУведомления об изменениях: %s\nЕжедневная рассылка: %s\n\n"+
		"Изменить: /notify, /daily, /group, /mentor, отписаться: /stop",
		escape(schedule.TargetTitle(subscriber.Target)), onOff(subscriber.NotificationsEnabled), onOff(subscriber.DailyEnabled))
	return h.bot.SendText(ctx, message.Chat.ID, text)
}

func (h *Handlers) Stop(ctx context.Context, message *tgbotapi.Message) error {
	err := h.subscribers.Delete(ctx, message.Chat.ID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return NewInvalidInputWrapped(NOT_SUBSCRIBED, err)
	}
	if err != nil {
		return fmt.Errorf("failed to delete subscriber %d: %w", message.Chat.ID, err)
	}
	return h.bot.SendText(ctx, message.Chat.ID, "👋 Подписка удалена. Вернуться можно командой /group или /mentor.")
}
