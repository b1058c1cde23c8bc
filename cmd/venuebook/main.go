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

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"venuebook/internal/app/handlers"
	"venuebook/internal/app/policies"
	"venuebook/internal/app/schedule"
	"venuebook/internal/infra/broker/kafka"
	rediscache "venuebook/internal/infra/cache/redis"
	"venuebook/internal/infra/config"
	ginserver "venuebook/internal/infra/http/gin"
	"venuebook/internal/infra/obs"
	infraoutbox "venuebook/internal/infra/outbox"
	asynqueue "venuebook/internal/infra/queue/asynq"
	"venuebook/internal/infra/schedule/cron"
	"venuebook/internal/infra/security"
)

const devJWTSecret = "venuebook-dev-secret"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(getenv("APP_ENV", "dev")).Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	fixturesPath := getenv("VENUE_FIXTURES", "")
	if fixturesPath == "" {
		fixturesPath = defaultVenueFixturesPath()
	}
	if err := loadVenueFixtures(ctx, app.storage.factory, fixturesPath, logger); err != nil {
		logger.Warn("venue fixtures load failed", "error", err, "path", fixturesPath)
	}

	if app.relay != nil {
		go func() {
			if err := app.relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox relay stopped", "error", err)
			}
		}()
	} else {
		logger.Info("KAFKA_BROKERS not set, outbox relay disabled")
	}
	app.runner.Start()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Probes:  app.probes,
		Timeout: 2 * time.Second,
	}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		if err := app.runner.Stop(shutdownCtx); err != nil {
			logger.Error("scheduler shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	storage  storage
	probes   map[string]obs.Probe
	relay    *infraoutbox.Worker
	runner   *cron.Runner
	closers  []func(ctx context.Context) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app := &application{
		storage: store,
		probes:  map[string]obs.Probe{},
		closers: []func(ctx context.Context) error{store.close},
	}
	if store.probe != nil {
		app.probes[cfg.StoreDriver] = store.probe
	}

	idempotency := store.idempotency
	var notifier policies.Notifier
	if cfg.RedisAddr != "" {
		client, err := rediscache.Connect(ctx, rediscache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			app.close(logger)
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })
		app.probes["redis"] = rediscache.Ping(client)
		idempotency = rediscache.NewIdempotencyStore(client, cfg.IdempotencyTTL)

		queueClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		app.closers = append(app.closers, func(context.Context) error { return queueClient.Close() })
		notifier = asynqueue.NewNotifier(queueClient, cfg.NotifierQueue, logger)
		logger.Info("notifications delivered through queue", "queue", cfg.NotifierQueue)
	}

	buses := handlers.Build(handlers.Dependencies{
		UoWFactory:  store.factory,
		Idempotency: idempotency,
		Logger:      logger,
		Notifier:    notifier,
	})

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaClientID, nil)
		if err != nil {
			app.close(logger)
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
		hostname, _ := os.Hostname()
		app.relay = &infraoutbox.Worker{
			Store:       store.outbox,
			Producer:    producer,
			Logger:      logger,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Source:      "venuebook",
			ID:          hostname + "-" + uuid.NewString(),
			Backoff:     cfg.RetryBackoff,
		}
	}

	app.runner = cron.NewRunner(logger, 5*time.Minute)
	if err := app.runner.Schedule(cfg.SweepSchedule, schedule.SweepJob{Commands: buses.Commands, Logger: logger}); err != nil {
		app.close(logger)
		return nil, err
	}
	for _, job := range store.maintenance {
		if err := app.runner.Schedule("@hourly", job); err != nil {
			app.close(logger)
			return nil, err
		}
	}

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}
	endpoint := ginserver.Endpoint{Commands: buses.Commands, Queries: buses.Queries, Logger: logger}
	app.handlers = ginserver.Handlers{
		Venue:          ginserver.VenueHandler{Endpoint: endpoint},
		Availability:   ginserver.AvailabilityHandler{Endpoint: endpoint},
		Booking:        ginserver.BookingHandler{Endpoint: endpoint},
		Payment:        ginserver.PaymentHandler{Endpoint: endpoint},
		Review:         ginserver.ReviewHandler{Endpoint: endpoint},
		Notification:   ginserver.NotificationHandler{Endpoint: endpoint},
		Owner:          ginserver.OwnerHandler{Endpoint: endpoint},
		Admin:          ginserver.AdminHandler{Endpoint: endpoint},
		AuthMiddleware: ginserver.AuthMiddleware{Verifier: security.NewJWTVerifier(secret, "venuebook"), Logger: logger}.Handle,
		RateLimit:      ginserver.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst, logger).Middleware(),
	}
	return app, nil
}

// close releases resources in reverse acquisition order.
func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("resource close failed", "error", err)
		}
	}
	a.closers = nil
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
