package main

import (
	"context"
	"fmt"
	"log/slog"

	"venuebook/internal/app/middleware"
	"venuebook/internal/app/schedule"
	"venuebook/internal/app/uow"
	"venuebook/internal/infra/config"
	mongostore "venuebook/internal/infra/db/mongo"
	"venuebook/internal/infra/db/postgres"
	"venuebook/internal/infra/obs"
	infraoutbox "venuebook/internal/infra/outbox"
	"venuebook/internal/infra/storage/memory"
)

// storage is one backend: the unit of work factory, the relay side of its outbox and,
// when the backend can hold it, the idempotency store.
type storage struct {
	factory     uow.UoWFactory
	outbox      infraoutbox.Store
	idempotency middleware.IdempotencyStore
	probe       obs.Probe
	close       func(ctx context.Context) error

	// maintenance jobs run on the cron runner next to the completion sweep.
	maintenance []schedule.Job
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return storage{}, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return storage{}, err
		}
		idem := postgres.NewIdempotencyStore(db, cfg.IdempotencyTTL)
		logger.Info("postgres storage ready")
		return storage{
			factory:     postgres.NewFactory(db),
			outbox:      postgres.NewOutboxStore(db),
			idempotency: idem,
			probe:       db.Probe,
			close:       func(context.Context) error { return db.Close() },
			maintenance: []schedule.Job{purgeIdempotencyJob{store: idem, logger: logger}},
		}, nil
	case config.DriverMongo:
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return storage{}, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			_ = client.Close(ctx)
			return storage{}, err
		}
		idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
		if err != nil {
			_ = client.Close(ctx)
			return storage{}, fmt.Errorf("mongo: idempotency store: %w", err)
		}
		logger.Info("mongo storage ready", "database", cfg.MongoDB)
		return storage{
			factory:     mongostore.Factory{DB: client.DB},
			outbox:      mongostore.NewOutboxStore(client.DB),
			idempotency: idem,
			probe:       client.Ping,
			close:       client.Close,
		}, nil
	default:
		store := memory.NewStore()
		logger.Warn("using in-memory storage; data is lost on restart")
		return storage{
			factory:     store,
			outbox:      store.Outbox(),
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			close:       func(context.Context) error { return nil },
		}, nil
	}
}

// purgeIdempotencyJob deletes expired idempotency rows; the mongo and redis stores expire
// theirs on their own.
type purgeIdempotencyJob struct {
	store  *postgres.IdempotencyStore
	logger *slog.Logger
}

func (j purgeIdempotencyJob) Name() string { return "idempotency.purge" }

func (j purgeIdempotencyJob) Run(ctx context.Context) error {
	n, err := j.store.Purge(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Info("expired idempotency records purged", "count", n)
	}
	return nil
}
