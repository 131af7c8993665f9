package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/config"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/ioc"
	logging "github.com/aCrYoZPS/mtec_schedule_bot/src/logging"
	tgutils "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/tg_utils"
)

const NOTIFY_TIMEOUT = 10 * time.Second

func main() {
	logging.InitLogging()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logging.FatalLog(fmt.Sprintf("failed to load config: %v", err))
	}
	logging.Configure(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container := ioc.NewContainer(ctx, cfg)
	defer func() {
		if err := container.Close(); err != nil {
			slog.Error(err.Error())
		}
	}()

	// everything is built before the goroutines start, the container is not safe for concurrent use
	controller := container.BotController()
	tasks := container.TasksController()

	notifyCtx, cancel := context.WithTimeout(ctx, NOTIFY_TIMEOUT)
	err = tgutils.SendMessageToOwners(notifyCtx, container.Bot(), cfg.Owners, fmt.Sprintf("🚀 Бот запущен (%s)", cfg.Env))
	cancel()
	if err != nil {
		slog.Error(err.Error())
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tasks.InitTasks(ctx)
	}()

	controller.Start(ctx)
	wg.Wait()
	logging.Info("bot stopped")
}
