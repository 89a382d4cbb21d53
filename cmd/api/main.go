package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/account-service/internal/api/http"
	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/api/socket"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/mail"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/persistence"
	"github.com/spec-kit/account-service/internal/presence"
	"github.com/spec-kit/account-service/internal/ratelimit"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/repository/memory"
	"github.com/spec-kit/account-service/internal/service"
	"github.com/spec-kit/account-service/internal/validation"
	"github.com/spec-kit/account-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var (
		repos repository.Repositories
		uow   repository.UnitOfWork
	)
	checks := map[string]handlers.Pinger{}
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = repository.NewRepositories(pg.PoolHandle())
		uow = repository.NewUnitOfWork(pg.PoolHandle())
		checks["postgres"] = pg
	} else {
		store := memory.NewStore()
		repos = store.Repositories()
		uow = store
	}

	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to configure redis", zap.Error(err))
	}
	defer redis.Close()
	checks["redis"] = redis

	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes, auth.WithIssuer(cfg.Auth.JWTIssuer))

	dispatcher := events.NewAsyncDispatcher(logger, cfg.Events.Workers, cfg.Events.QueueSize)
	notifications := service.NewNotificationService(dispatcher, mail.New(cfg.Mail, logger), logger, cfg.Mail)
	stopWorker := worker.StartNotificationWorker(dispatcher, notifications, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		AuthRepo:     repos.Auths,
		UserRepo:     repos.Users,
		Accounts:     service.NewAccountGate(repos.Clients, repos.Managers),
		Tokens:       tokens,
		Hasher:       hasher,
		Events:       dispatcher,
		ResetLimiter: ratelimit.NewLimiter(redis.Client, "ratelimit:forgot-password", cfg.Auth.ResetRequestLimit, cfg.Auth.ResetWindow()),
		Validator:    validation.New(),
		Metrics:      metrics,
		Logger:       logger,
	})

	if _, err := service.EnsureSuperAdmin(ctx, uow, hasher, cfg.Bootstrap, logger); err != nil {
		logger.Fatal("failed to bootstrap super admin", zap.Error(err))
	}

	gate := auth.NewGate(authService)
	presenceStore := presence.NewStore(redis.Client)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, time.Duration(cfg.App.RequestTimeoutSeconds)*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks),
		Auth:           handlers.NewAuthHandler(authService),
		Presence:       handlers.NewPresenceHandler(presenceStore),
		AuthMiddleware: auth.NewAuthMiddleware(gate),
		Gatherer:       registry,
	})

	hub := socket.NewHub(logger)
	gateway := socket.NewGateway(hub, gate, presenceStore, socket.GatewayOptions{
		HandshakeTimeout: cfg.Socket.HandshakeTimeout(),
		AllowedOrigins:   cfg.Socket.AllowedOrigins,
		Metrics:          metrics,
		Logger:           logger,
	})
	socketServer := socket.NewServer(cfg.Socket, socket.NewRouter(gateway))

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		logger.Info("socket server listening", zap.String("addr", socketServer.Addr))
		if err := socketServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpErr := app.ShutdownWithContext(shutdownCtx)
		socketErr := socketServer.Shutdown(shutdownCtx)
		hub.CloseAll()
		return errors.Join(httpErr, socketErr)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}
	stopWorker()
}
