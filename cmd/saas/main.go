package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/kristianfreeman/saas-starter/internal/admin"
	"github.com/kristianfreeman/saas-starter/internal/app"
	"github.com/kristianfreeman/saas-starter/internal/audit"
	"github.com/kristianfreeman/saas-starter/internal/auth"
	"github.com/kristianfreeman/saas-starter/internal/authz"
	"github.com/kristianfreeman/saas-starter/internal/billing"
	"github.com/kristianfreeman/saas-starter/internal/observability"
	"github.com/kristianfreeman/saas-starter/internal/platform/cache"
	"github.com/kristianfreeman/saas-starter/internal/platform/db"
	"github.com/kristianfreeman/saas-starter/internal/ratelimit"
	"github.com/kristianfreeman/saas-starter/internal/users"
	"github.com/kristianfreeman/saas-starter/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	auditSink := audit.NewPGSink(pool)
	recorder := audit.NewRecorder(auditSink, logger)
	recorder.OnDrop = metrics.AuditDropped
	defer recorder.Close()

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	sessions := auth.NewSessionStore(redisClient, cfg.SessionCookieName, cfg.SessionTTL, cfg.IsProduction())
	authRepo := auth.NewRepository(pool)
	tokens := auth.NewTokens(authRepo, cfg.TokenSecret, cfg.TokenTTL)
	authService := auth.NewService(authRepo, sessions, tokens)
	authenticator := auth.NewAuthenticator(authService)
	authHandler := auth.NewHandler(logger, authService, recorder, queueClient)

	usersRepo := users.NewRepository(pool)
	usersHandler := users.NewHandler(logger, usersRepo, recorder)

	roleResolver := authz.NewResolver(usersRepo, logger)
	authzMW := authz.Middleware{Resolver: roleResolver, Logger: logger}
	authMW := auth.Middleware{
		Authenticator: authenticator,
		Logger:        logger,
		OnFailure:     metrics.AuthFailure,
	}

	paymentsClient := billing.NewClient(cfg.BillingBaseURL, cfg.BillingAPIKey)
	billingRepo := billing.NewRepository(pool)
	billingHandler := billing.NewHandler(logger, billingRepo, paymentsClient)
	webhookHandler := billing.NewWebhookHandler(logger,
		billing.NewHMACVerifier(cfg.BillingWebhookSecret), queueClient)

	adminHandler := admin.NewHandler(logger, usersRepo, authService,
		auditSink, paymentsClient, recorder, roleResolver)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Limiter:        ratelimit.NewLimiter(),
		AuthHandler:    authHandler,
		UsersHandler:   usersHandler,
		AdminHandler:   adminHandler,
		BillingHandler: billingHandler,
		WebhookHandler: webhookHandler,
		JobHandler:     jobHandler,
		AuthMW:         authMW,
		AuthzMW:        authzMW,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
