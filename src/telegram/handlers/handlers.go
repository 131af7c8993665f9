package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/dispatcher"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/mtec_api"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/schedule"
	tgutils "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/tg_utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	START_COMMAND    = "start"
	HELP_COMMAND     = "help"
	GROUP_COMMAND    = "group"
	MENTOR_COMMAND   = "mentor"
	SCHEDULE_COMMAND = "schedule"
	NOTIFY_COMMAND   = "notify"
	DAILY_COMMAND    = "daily"
	SETTINGS_COMMAND = "settings"
	STOP_COMMAND     = "stop"

	BROADCAST_COMMAND  = "broadcast"
	SEND_COMMAND       = "send"
	SEND_GROUP_COMMAND = "sendgroup"
	BLOCK_COMMAND      = "block"
	UNBLOCK_COMMAND    = "unblock"
	STATS_COMMAND      = "stats"
	CHECK_COMMAND      = "check"

	GROUP_CALLBACK       = "group:"
	GROUP_PAGE_CALLBACK  = "group:page:"
	MENTOR_CALLBACK      = "mentor:"
	MENTOR_PAGE_CALLBACK = "mentor:page:"

	CHECK_TIMEOUT = 10 * time.Minute
	REPLY_TIMEOUT = 30 * time.Second
)

var userCommands = []tgbotapi.BotCommand{
	{Command: START_COMMAND, Description: "Начать работу с ботом"},
	{Command: HELP_COMMAND, Description: "Список команд"},
	{Command: GROUP_COMMAND, Description: "Подписаться на расписание группы"},
	{Command: MENTOR_COMMAND, Description: "Подписаться на расписание преподавателя"},
	{Command: SCHEDULE_COMMAND, Description: "Текущее расписание"},
	{Command: NOTIFY_COMMAND, Description: "Вкл/выкл уведомления об изменениях"},
	{Command: DAILY_COMMAND, Description: "Вкл/выкл ежедневную рассылку"},
	{Command: SETTINGS_COMMAND, Description: "Текущие настройки"},
	{Command: STOP_COMMAND, Description: "Отписаться"},
}

var adminCommands = []tgbotapi.BotCommand{
	{Command: BROADCAST_COMMAND, Description: "<текст> сообщение всем подписчикам"},
	{Command: SEND_COMMAND, Description: "<chat_id> <текст> сообщение одному чату"},
	{Command: SEND_GROUP_COMMAND, Description: "<группа> <текст> сообщение подписчикам группы"},
	{Command: BLOCK_COMMAND, Description: "<chat_id> заблокировать"},
	{Command: UNBLOCK_COMMAND, Description: "<chat_id> разблокировать"},
	{Command: STATS_COMMAND, Description: "Статистика подписок"},
	{Command: CHECK_COMMAND, Description: "Проверить расписание сейчас"},
}

type Messenger interface {
	tgutils.TextSender
	SendTextWithMarkup(ctx context.Context, chatId int64, text string, markup any) error
	AnswerCallback(ctx context.Context, queryId, text string) error
	EditMarkup(ctx context.Context, chatId int64, messageId int, markup tgbotapi.InlineKeyboardMarkup) error
}

type ScheduleService interface {
	Now() time.Time
	SearchParameters(ctx context.Context, kind entities.TargetKind) (*mtec_api.SearchParameters, error)
	Current(ctx context.Context, target entities.Target) (*entities.ScheduleSnapshot, error)
	CheckAll(ctx context.Context, force bool) (schedule.CheckReport, error)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, text string) (dispatcher.Result, error)
	Send(ctx context.Context, chatIds []int64, text string) dispatcher.Result
}

type Handlers struct {
	bot         Messenger
	subscribers interfaces.SubscribersRepository
	blacklist   interfaces.BlacklistRepository
	schedule    ScheduleService
	broadcaster Broadcaster
	isOwner     func(int64) bool
	// spawn runs long admin jobs outside of the update context.
	spawn func(func())
}

func NewHandlers(bot Messenger, subscribers interfaces.SubscribersRepository, blacklist interfaces.BlacklistRepository,
	service ScheduleService, broadcaster Broadcaster, isOwner func(int64) bool) *Handlers {
	return &Handlers{
		bot:         bot,
		subscribers: subscribers,
		blacklist:   blacklist,
		schedule:    service,
		broadcaster: broadcaster,
		isOwner:     isOwner,
		spawn:       func(job func()) { go job() },
	}
}

// Commands is the command table of the bot. Admin commands are wrapped with the owner check.
func (h *Handlers) Commands() map[string]tgutils.CommandHandler {
	owner := func(handler tgutils.CommandHandlerFunc) tgutils.CommandHandler {
		return tgutils.OwnerOnly(h.isOwner, h.bot, handler)
	}
	return map[string]tgutils.CommandHandler{
		START_COMMAND:    tgutils.CommandHandlerFunc(h.Start),
		HELP_COMMAND:     tgutils.CommandHandlerFunc(h.Help),
		GROUP_COMMAND:    tgutils.CommandHandlerFunc(h.Group),
		MENTOR_COMMAND:   tgutils.CommandHandlerFunc(h.Mentor),
		SCHEDULE_COMMAND: tgutils.CommandHandlerFunc(h.Schedule),
		NOTIFY_COMMAND:   tgutils.CommandHandlerFunc(h.ToggleNotifications),
		DAILY_COMMAND:    tgutils.CommandHandlerFunc(h.ToggleDaily),
		SETTINGS_COMMAND: tgutils.CommandHandlerFunc(h.Settings),
		STOP_COMMAND:     tgutils.CommandHandlerFunc(h.Stop),

		BROADCAST_COMMAND:  owner(h.Broadcast),
		SEND_COMMAND:       owner(h.SendToChat),
		SEND_GROUP_COMMAND: owner(h.SendToGroup),
		BLOCK_COMMAND:      owner(h.Block),
		UNBLOCK_COMMAND:    owner(h.Unblock),
		STATS_COMMAND:      owner(h.Stats),
		CHECK_COMMAND:      owner(h.Check),
	}
}

// RegisterCallbacks adds the inline keyboard handlers to router. Page callbacks share
// their prefix with selection callbacks and win by being longer.
func (h *Handlers) RegisterCallbacks(router *tgutils.Router) {
	router.RegisterCallback(GROUP_CALLBACK, tgutils.CallbackHandlerFunc(h.GroupSelected))
	router.RegisterCallback(GROUP_PAGE_CALLBACK, tgutils.CallbackHandlerFunc(h.GroupPage))
	router.RegisterCallback(MENTOR_CALLBACK, tgutils.CallbackHandlerFunc(h.MentorSelected))
	router.RegisterCallback(MENTOR_PAGE_CALLBACK, tgutils.CallbackHandlerFunc(h.MentorPage))
	router.NotFoundHandler = tgutils.CommandHandlerFunc(h.NotFound)
	router.TextHandler = tgutils.CommandHandlerFunc(h.Text)
}

// BotCommands is the menu published to Telegram clients.
func BotCommands() []tgbotapi.BotCommand {
	return userCommands
}

func (h *Handlers) Start(ctx context.Context, message *tgbotapi.Message) error {
	text := "👋 Привет! Я слежу за расписанием МТЭК и сообщаю об изменениях.\n\n" +
		"Подпишитесь на группу командой /group или на преподавателя командой /mentor.\n" +
		"Все команды: /help"
	return h.bot.SendText(ctx, message.Chat.ID, text)
}

func (h *Handlers) Help(ctx context.Context, message *tgbotapi.Message) error {
	var builder strings.Builder
	writeCommands(&builder, userCommands)
	if message.From != nil && h.isOwner(message.From.ID) {
		builder.WriteString("\n<b>Администрирование</b>\n")
		writeCommands(&builder, adminCommands)
	}
	return h.bot.SendText(ctx, message.Chat.ID, builder.String())
}

func writeCommands(builder *strings.Builder, commands []tgbotapi.BotCommand) {
	for _, command := range commands {
		fmt.Fprintf(builder, "/%s: %s\n", command.Command, escape(command.Description))
	}
}

func (h *Handlers) NotFound(ctx context.Context, message *tgbotapi.Message) error {
	return h.bot.SendText(ctx, message.Chat.ID, "Неизвестная команда. Список команд: /help")
}

// Text answers plain messages in private chats only, group chats see a lot of unrelated talk.
func (h *Handlers) Text(ctx context.Context, message *tgbotapi.Message) error {
	if message.Chat == nil || !message.Chat.IsPrivate() {
		return nil
	}
	return h.bot.SendText(ctx, message.Chat.ID, "Я понимаю только команды. Список команд: /help")
}
