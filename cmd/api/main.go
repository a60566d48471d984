package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-tracker/internal/api/http"
	"github.com/spec-kit/ticket-tracker/internal/api/http/handlers"
	"github.com/spec-kit/ticket-tracker/internal/config"
	"github.com/spec-kit/ticket-tracker/internal/events"
	"github.com/spec-kit/ticket-tracker/internal/observability"
	"github.com/spec-kit/ticket-tracker/internal/repository"
	"github.com/spec-kit/ticket-tracker/internal/service"
	"github.com/spec-kit/ticket-tracker/internal/store"
	"github.com/spec-kit/ticket-tracker/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer kv.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(dispatcher, logger.Named("audit"))

	sessionRepo := repository.NewSessionRepository(kv, logger)
	userRepo := repository.NewUserRepository(kv, logger)
	ticketRepo := repository.NewTicketRepository(kv, logger)

	sessionService := service.NewSessionService(cfg.Session, service.SessionDependencies{
		SessionRepo: sessionRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	ticketService := service.NewTicketService(cfg.Tickets, service.TicketDependencies{
		TicketRepo: ticketRepo,
		Sessions:   sessionService,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, kv, metrics),
		Sessions: handlers.NewSessionHandler(sessionService),
		Tickets:  handlers.NewTicketsHandler(ticketService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory store; data will not survive a restart")
		return store.NewMemory(), nil
	case config.BackendRedis:
		return store.NewRedis(cfg.Redis, logger), nil
	case config.BackendPostgres:
		return store.NewPostgres(ctx, cfg.Postgres, logger)
	default:
		return store.NewSQLite(ctx, cfg.SQLite, logger)
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
