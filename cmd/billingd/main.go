// Command billingd runs the billing subscription manager as a standalone
// HTTP service. The snapshot store backend is selected with STORE_DRIVER
// (memory, mongo, or postgres); Redis-backed webhook dedupe is enabled
// when REDIS_URL is set.
//
// The service expects the host platform to authenticate requests and
// forward the user identity in X-User-ID / X-User-Email headers.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	billingmod "github.com/dmitrymomot/billingkit/modules/billing"
	"github.com/dmitrymomot/billingkit/pkg/billing"
	"github.com/dmitrymomot/billingkit/pkg/config"
	"github.com/dmitrymomot/billingkit/pkg/httpserver"
	"github.com/dmitrymomot/billingkit/pkg/logger"
	"github.com/dmitrymomot/billingkit/pkg/mongo"
	"github.com/dmitrymomot/billingkit/pkg/pg"
	"github.com/dmitrymomot/billingkit/pkg/redis"
)

type appConfig struct {
	StoreDriver string        `env:"STORE_DRIVER" envDefault:"memory"`
	DedupeTTL   time.Duration `env:"WEBHOOK_DEDUPE_TTL" envDefault:"24h"`

	Log     logger.Config
	HTTP    httpserver.Config
	Billing billing.Config
	Mongo   mongo.Config
	PG      pg.Config
	Redis   redis.Config
}

func main() {
	if err := run(context.Background()); err != nil && !errors.Is(err, httpserver.ErrServerClosed) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(cfg.Log, os.Stderr, slog.String("app", "billingd"))

	provider, err := billing.NewStripeProvider(cfg.Billing)
	if err != nil {
		return err
	}

	healthchecks := make(map[string]func(context.Context) error)

	var store billing.SnapshotStore
	switch cfg.StoreDriver {
	case "memory":
		store = billing.NewMemStore()
	case "mongo":
		db, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		store = billing.NewMongoStore(db.Collection("users"))
		healthchecks["mongo"] = mongo.Healthcheck(db)
	case "postgres":
		pool, err := pg.Connect(ctx, cfg.PG)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
			return err
		}
		store = billing.NewPgStore(pool)
		healthchecks["postgres"] = pg.Healthcheck(pool)
	default:
		return fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	opts := []billing.ServiceOption{billing.WithLogger(log)}
	if cfg.Redis.ConnectionURL != "" {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		opts = append(opts, billing.WithEventDeduper(billing.NewRedisDeduper(client, cfg.DedupeTTL)))
		healthchecks["redis"] = redis.Healthcheck(client)
	}

	svc := billing.NewService(cfg.Billing, provider, store, opts...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Mount("/billing", billingmod.Router(billingmod.RouterOptions{
		Service:      svc,
		ResolveUser:  headerUserResolver,
		Logger:       log,
		Healthchecks: healthchecks,
	}))

	log.InfoContext(ctx, "starting billingd", "store", cfg.StoreDriver)
	return httpserver.Run(ctx, cfg.HTTP, r, log)
}

func headerUserResolver(r *http.Request) (billingmod.User, error) {
	id, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		return billingmod.User{}, fmt.Errorf("invalid user id header: %w", err)
	}
	return billingmod.User{
		ID:    id,
		Email: r.Header.Get("X-User-Email"),
	}, nil
}
