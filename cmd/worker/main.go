package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cog_mailing_sync/internal/bootstrap"
	"cog_mailing_sync/internal/parcelsync"
	"cog_mailing_sync/internal/scheduler"
	"cog_mailing_sync/platform/config"
	"cog_mailing_sync/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := bootstrap.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}
	defer stack.Close()

	stack.RegisterNotifications()

	worker, err := scheduler.NewWorker(cfg, stack.SyncService(parcelsync.Options{}), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("worker stopped")
}
