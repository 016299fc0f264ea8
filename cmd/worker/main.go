package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/kristianfreeman/saas-starter/internal/app"
	"github.com/kristianfreeman/saas-starter/internal/audit"
	"github.com/kristianfreeman/saas-starter/internal/billing"
	"github.com/kristianfreeman/saas-starter/internal/email"
	jobmetrics "github.com/kristianfreeman/saas-starter/internal/jobs"
	"github.com/kristianfreeman/saas-starter/internal/platform/db"
	"github.com/kristianfreeman/saas-starter/jobs"
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	auditSink := audit.NewPGSink(pool)
	recorder := audit.NewRecorder(auditSink, logger)
	defer recorder.Close()

	metrics := jobmetrics.NewMetrics(nil)

	var sender email.Sender = email.LogSender{Logger: logger}
	if cfg.SMTPAddr != "" {
		sender = email.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPFrom, nil)
	}
	sender = email.NewThrottled(sender, cfg.MailRatePerSecond, cfg.MailBurst)
	mailJob := jobs.NewMailSendJob(sender, logger, metrics)

	billingRepo := billing.NewRepository(pool)
	processor := billing.NewProcessor(logger, billingRepo, recorder)
	webhookJob := jobs.NewBillingWebhookJob(processor, logger, metrics)

	purgeJob := jobs.NewAuditPurgeJob(auditSink, recorder, logger, metrics)
	purgeTask, err := jobs.NewAuditPurgeTask(jobs.AuditPurgePayload{RetentionDays: cfg.AuditRetentionDays})
	if err != nil {
		logger.Error("build purge task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
			{Type: billing.TaskTypeWebhook, Handler: webhookJob.Handle},
			{Type: jobs.TaskTypeAuditPurge, Handler: purgeJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.AuditPurgeCron, Task: purgeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
