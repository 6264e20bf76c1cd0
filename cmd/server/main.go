package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-session-engine/internal/cache"
	"github.com/SAP-F-2025/exam-session-engine/internal/config"
	"github.com/SAP-F-2025/exam-session-engine/internal/events"
	"github.com/SAP-F-2025/exam-session-engine/internal/handlers"
	"github.com/SAP-F-2025/exam-session-engine/internal/repositories"
	"github.com/SAP-F-2025/exam-session-engine/internal/repositories/memory"
	"github.com/SAP-F-2025/exam-session-engine/internal/repositories/postgres"
	"github.com/SAP-F-2025/exam-session-engine/internal/services"
	"github.com/SAP-F-2025/exam-session-engine/internal/utils"
	"github.com/SAP-F-2025/exam-session-engine/internal/validator"
	"github.com/SAP-F-2025/exam-session-engine/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	papers, results, err := initRepositories(cfg, logger)
	if err != nil {
		return err
	}

	var cacheService cache.CacheService
	if cfg.RedisURL != "" {
		client, err := pkg.NewRedisClient(cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		cacheService = cache.NewRedisCache(client, logger)
		logger.Info("Session snapshots enabled", "backend", "redis")
	} else {
		logger.Warn("REDIS_URL not set, session snapshots disabled")
	}

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher, falling back to mock", "error", err)
		publisher = events.NewMockEventPublisher(logger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if ch, ok := publisher.(*events.ChannelEventPublisher); ok {
		if err := auditEvents(ctx, ch, logger); err != nil {
			return err
		}
	}

	sessionService := services.NewSessionService(papers, results, publisher, cacheService, validator.New(), logger,
		services.SessionServiceConfig{
			TickInterval:    cfg.TickInterval,
			ECFCredit:       cfg.ECFCredit,
			MaxEditDistance: cfg.MaxEditDistance,
			SnapshotTTL:     cfg.SnapshotTTL,

			WrongPickPenalty: cfg.WrongPickPenalty,
		})
	exportService := services.NewExportService(sessionService, logger)
	resultService := services.NewResultService(results, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	httpLogger := utils.NewSlogLogger(logger)
	router := gin.New()
	router.Use(utils.LoggerMiddleware(httpLogger), utils.RecoveryMiddleware(httpLogger))
	handlers.NewHandlerManager(sessionService, exportService, resultService, httpLogger).SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	sessionService.Shutdown()
	return nil
}

func initRepositories(cfg *config.Config, logger *slog.Logger) (repositories.PaperRepository, repositories.ResultRepository, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		return memory.NewPaperStore(), memory.NewResultStore(), nil
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Connected to database")
	return postgres.NewPaperPostgreSQL(db), postgres.NewResultPostgreSQL(db), nil
}

// auditEvents logs every session event published in-process.
func auditEvents(ctx context.Context, ch *events.ChannelEventPublisher, logger *slog.Logger) error {
	messages, err := ch.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			event, err := events.DecodeEvent(msg)
			if err != nil {
				logger.Warn("Dropping undecodable event", "message_uuid", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			logger.Info("Session event",
				"event_id", event.ID,
				"event_type", event.Type,
				"timestamp", event.Timestamp)
			msg.Ack()
		}
	}()
	return nil
}
