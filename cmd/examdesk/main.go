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

	"github.com/examdesk/examdesk/internal/accounts"
	"github.com/examdesk/examdesk/internal/app"
	"github.com/examdesk/examdesk/internal/auth"
	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/batches"
	"github.com/examdesk/examdesk/internal/billing"
	"github.com/examdesk/examdesk/internal/classes"
	"github.com/examdesk/examdesk/internal/courses"
	"github.com/examdesk/examdesk/internal/exams"
	"github.com/examdesk/examdesk/internal/observability"
	"github.com/examdesk/examdesk/internal/orgs"
	"github.com/examdesk/examdesk/internal/platform/cache"
	"github.com/examdesk/examdesk/internal/platform/db"
	"github.com/examdesk/examdesk/internal/questions"
	"github.com/examdesk/examdesk/internal/shared"
	"github.com/examdesk/examdesk/jobs"
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
		logger.Warn("redis connect", slog.Any("error", err))
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	resolver, err := auth.NewResolver(auth.ResolverConfig{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL})
	if err != nil {
		logger.Error("init token resolver", slog.Any("error", err))
		os.Exit(1)
	}

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	authzMW := authz.Middleware{Logger: logger}
	auditLogger := shared.NewAuditLogger(pool)
	idemStore := shared.NewIdempotencyStore(pool)

	gate := billing.NewGate(billing.NewRepository(pool), redisClient, logger)

	authService := auth.NewService(auth.NewRepository(pool), resolver)
	orgsService := orgs.NewService(orgs.NewRepository(pool), gate)
	accountsService := accounts.NewService(accounts.NewRepository(pool))
	classesService := classes.NewService(classes.NewRepository(pool))
	batchesService := batches.NewService(batches.NewRepository(pool))
	coursesService := courses.NewService(courses.NewRepository(pool))
	questionsService := questions.NewService(questions.NewRepository(pool))

	examsRepo := exams.NewRepository(pool)
	issuer := exams.NewIssuer(examsRepo, cfg.ExamTokenLength)
	notifier := &jobs.MailNotifier{Client: jobsClient}
	examsService := exams.NewService(examsRepo, issuer, gate, notifier, idemStore, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Resolver:         resolver,
		AuthHandler:      auth.NewHandler(logger, authService),
		OrgsHandler:      orgs.NewHandler(logger, orgsService, authzMW),
		AccountsHandler:  accounts.NewHandler(logger, accountsService, authzMW, auditLogger),
		ClassesHandler:   classes.NewHandler(logger, classesService, authzMW),
		BatchesHandler:   batches.NewHandler(logger, batchesService, authzMW),
		CoursesHandler:   courses.NewHandler(logger, coursesService, authzMW),
		QuestionsHandler: questions.NewHandler(logger, questionsService, authzMW, auditLogger),
		ExamsHandler:     exams.NewHandler(logger, examsService, authzMW),
		JobsHandler:      jobs.NewHandler(asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr}), logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
