// Command notifier consumes queued notification intents and stores them in the
// recipients' inboxes.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"venuebook/internal/app/handlers"
	"venuebook/internal/app/uow"
	"venuebook/internal/infra/config"
	mongostore "venuebook/internal/infra/db/mongo"
	"venuebook/internal/infra/db/postgres"
	"venuebook/internal/infra/obs"
	asynqueue "venuebook/internal/infra/queue/asynq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("dev").Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)
	if cfg.RedisAddr == "" {
		logger.Error("REDIS_ADDR is required for the notifier")
		os.Exit(1)
	}

	factory, closeStore, err := openFactory(ctx, cfg, logger)
	if err != nil {
		logger.Error("storage unavailable", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	buses := handlers.Build(handlers.Dependencies{UoWFactory: factory, Logger: logger})
	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	server := asynqueue.NewServer(redisOpt, cfg.NotifierQueue, cfg.NotifierWorkers, logger)
	mux := asynqueue.NewServeMux(asynqueue.DeliveryHandler{Commands: buses.Commands, Logger: logger})

	if err := server.Start(mux); err != nil {
		logger.Error("notifier failed to start", "error", err)
		os.Exit(1)
	}
	logger.Info("notifier started", "queue", cfg.NotifierQueue, "concurrency", cfg.NotifierWorkers)
	<-ctx.Done()
	server.Shutdown()
	logger.Info("notifier stopped")
}

// openFactory connects the shared store. The in-memory driver is refused: inboxes written
// here would be invisible to the API process.
func openFactory(ctx context.Context, cfg config.Config, logger *slog.Logger) (uow.UoWFactory, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewFactory(db), func() { _ = db.Close() }, nil
	case config.DriverMongo:
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				logger.Warn("mongo close failed", "error", err)
			}
		}
		return mongostore.Factory{DB: client.DB}, closeClient, nil
	default:
		return nil, nil, errSharedStoreRequired
	}
}
