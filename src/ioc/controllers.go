package ioc

import (
	"log/slog"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/cron"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/logging"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/telegram/bot"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/telegram/handlers"
	tgutils "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/tg_utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var useTgBot = provider(
	func(c *Container) *tgutils.Bot {
		api, err := tgbotapi.NewBotAPI(c.cfg.BotToken)
		if err != nil {
			logging.FatalLog(err.Error())
		}
		api.Debug = c.cfg.Debug
		return tgutils.NewBot(api)
	},
)

var useHandlers = provider(
	func(c *Container) *handlers.Handlers {
		return handlers.NewHandlers(useTgBot(c), useSubscribersRepository(c), useBlacklistRepository(c),
			useScheduleService(c), useDispatcher(c), c.cfg.IsOwner)
	},
)

// useRouter builds the explicit command table and wraps the router with the middlewares, outermost first.
var useRouter = provider(
	func(c *Container) tgutils.UpdateHandler {
		h := useHandlers(c)
		router := tgutils.NewRouter(h.Commands())
		h.RegisterCallbacks(router)
		slog.Info("bot routes registered", "commands", router.Commands(), "callbacks", router.Callbacks())

		limiter := tgutils.NewRateLimiter(c.cfg.SpamLimit, c.cfg.SpamWindow)
		return tgutils.Chain(router,
			tgutils.RecoverMiddleware(),
			tgutils.BlacklistMiddleware(useBlacklistRepository(c), c.cfg.IsOwner),
			tgutils.AntispamMiddleware(limiter, useTgBot(c)),
		)
	},
)

var useBotController = provider(
	func(c *Container) *bot.BotController {
		return bot.NewBotController(useTgBot(c), useRouter(c), c.cfg.UpdateTimeout)
	},
)

var useTasksController = provider(
	func(c *Container) *cron.TasksController {
		return cron.NewTasksController(useScheduleService(c), useSubscribersRepository(c), useDispatcher(c), useTasksRepository(c),
			cron.Timings{
				PollInterval:   c.cfg.PollInterval,
				CheckTimeout:   c.cfg.CheckTimeout,
				DailyCron:      c.cfg.DailyCron,
				CleanupCron:    c.cfg.CleanupCron,
				SnapshotMaxAge: c.cfg.SnapshotMaxAge,
				Location:       c.cfg.Location,
			})
	},
)

func (c *Container) Bot() *tgutils.Bot {
	return useTgBot(c)
}

func (c *Container) BotController() *bot.BotController {
	return useBotController(c)
}

func (c *Container) TasksController() *cron.TasksController {
	return useTasksController(c)
}
