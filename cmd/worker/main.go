package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/course-catalog/internal/app"
	jobmetrics "github.com/odyssey-erp/course-catalog/internal/jobs"
	"github.com/odyssey-erp/course-catalog/internal/messages"
	"github.com/odyssey-erp/course-catalog/internal/platform/db"
	"github.com/odyssey-erp/course-catalog/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var mailer jobs.Mailer = jobs.LogMailer{Logger: logger}
	if cfg.SMTPHost != "" {
		mailer = jobs.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	}
	metrics := jobmetrics.NewMetrics(nil)

	sendEmail := jobs.NewSendEmailJob(mailer, logger, metrics)
	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskTypeSendEmail, Handler: sendEmail.Handle},
	}

	var cron []jobs.CronRegistration
	if cfg.AdminNotifyEmail != "" {
		digest := jobs.NewMessageDigestJob(messages.NewRepository(pool), mailer, cfg.AdminNotifyEmail, logger, metrics)
		digestTask, err := jobs.NewMessageDigestTask()
		if err != nil {
			logger.Error("build digest task", slog.Any("error", err))
			os.Exit(1)
		}
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskTypeMessageDigest, Handler: digest.Handle})
		cron = append(cron, jobs.CronRegistration{Spec: "0 7 * * *", Task: digestTask, Options: []asynq.Option{asynq.MaxRetry(3)}})
	} else {
		logger.Info("ADMIN_NOTIFY_EMAIL not set, message digest disabled")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    handlers,
		Cron:        cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
