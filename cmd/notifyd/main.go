package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	notifmodule "github.com/fieldops/notify/modules/notifications"
	"github.com/fieldops/notify/pkg/config"
	"github.com/fieldops/notify/pkg/directory"
	"github.com/fieldops/notify/pkg/email"
	"github.com/fieldops/notify/pkg/fanout"
	"github.com/fieldops/notify/pkg/httpserver"
	"github.com/fieldops/notify/pkg/jwt"
	"github.com/fieldops/notify/pkg/logger"
	"github.com/fieldops/notify/pkg/mongo"
	"github.com/fieldops/notify/pkg/notifications"
	"github.com/fieldops/notify/pkg/pg"
	"github.com/fieldops/notify/pkg/redis"
)

type appConfig struct {
	// StorageDriver selects the notification store: postgres, mongo or
	// memory. Memory is for local development only.
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory"`

	// FanoutDriver selects the fan-out backbone: redis or memory. Memory
	// confines live events to a single process.
	FanoutDriver string `env:"FANOUT_DRIVER" envDefault:"memory"`

	// JWTSigningKey enables stream authentication when set.
	JWTSigningKey string `env:"JWT_SIGNING_KEY"`

	// DirectoryEnabled switches recipient resolution to the external user
	// directory; otherwise identifiers are used as routing keys directly.
	DirectoryEnabled bool `env:"DIRECTORY_ENABLED" envDefault:"false"`

	// SeedTemplates loads the built-in template catalog at startup.
	SeedTemplates bool `env:"SEED_TEMPLATES" envDefault:"true"`
}

func main() {
	ctx := context.Background()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg, logger.WithAttr(slog.String("app", "notifyd")))
	slog.SetDefault(log)

	var cfg appConfig
	config.MustLoad(&cfg)

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorContext(ctx, "service stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	storage, checks, cleanup, err := newStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.SeedTemplates {
		if err := notifications.SeedTemplates(ctx, storage); err != nil {
			return err
		}
		log.InfoContext(ctx, "template catalog seeded")
	}

	hub, hubChecks, err := newHub(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer hub.Close()
	checks = append(checks, hubChecks...)

	svcOpts := []notifications.Option{notifications.WithServiceLogger(log)}
	var resolver directory.Resolver

	if cfg.DirectoryEnabled {
		var dirCfg directory.Config
		config.MustLoad(&dirCfg)
		client, err := directory.NewClient(dirCfg)
		if err != nil {
			return err
		}
		resolver = client
		svcOpts = append(svcOpts, notifications.WithResolver(client))
	}

	var emailCfg email.Config
	config.MustLoad(&emailCfg)
	if emailCfg.PostmarkServerToken != "" {
		sender, err := email.NewPostmarkSender(emailCfg)
		if err != nil {
			return err
		}
		svcOpts = append(svcOpts, notifications.WithEmailSender(email.NewNotificationSender(sender)))
		log.InfoContext(ctx, "email side delivery enabled")
	}

	svc := notifications.NewService(storage, hub, svcOpts...)

	var moduleCfg notifmodule.Config
	config.MustLoad(&moduleCfg)
	moduleOpts := []notifmodule.Option{notifmodule.WithLogger(log)}
	if resolver != nil {
		moduleOpts = append(moduleOpts, notifmodule.WithResolver(resolver))
	}
	if cfg.JWTSigningKey != "" {
		verifier, err := jwt.New([]byte(cfg.JWTSigningKey))
		if err != nil {
			return err
		}
		moduleOpts = append(moduleOpts, notifmodule.WithVerifier(verifier))
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Get("/health", httpserver.HealthHandler(log, checks...))
	r.Mount("/notifications", notifmodule.New(moduleCfg, svc, hub, moduleOpts...).Handle())

	var srvCfg httpserver.Config
	config.MustLoad(&srvCfg)
	return httpserver.New(srvCfg, httpserver.WithLogger(log)).Run(ctx, r)
}

// newStorage builds the configured notification store and its health checks.
// The returned cleanup releases the underlying connections.
func newStorage(ctx context.Context, cfg appConfig, log *slog.Logger) (notifications.Storage, []httpserver.Check, func(), error) {
	switch cfg.StorageDriver {
	case "postgres":
		var pgCfg pg.Config
		config.MustLoad(&pgCfg)
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pg.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		checks := []httpserver.Check{{Name: "postgres", Probe: pg.Healthcheck(pool)}}
		return notifications.NewPostgresStorage(pool), checks, pool.Close, nil

	case "mongo":
		var mongoCfg mongo.Config
		config.MustLoad(&mongoCfg)
		client, err := mongo.Connect(ctx, mongoCfg)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup := func() { _ = client.Disconnect(context.Background()) }
		storage := notifications.NewMongoStorage(client.Database(mongoCfg.Database))
		if err := storage.EnsureIndexes(ctx); err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		checks := []httpserver.Check{{Name: "mongo", Probe: mongo.Healthcheck(client)}}
		return storage, checks, cleanup, nil

	case "memory":
		log.WarnContext(ctx, "using in-memory storage, notifications will not survive restarts")
		return notifications.NewMemoryStorage(), nil, func() {}, nil

	default:
		return nil, nil, nil, errUnknownDriver("STORAGE_DRIVER", cfg.StorageDriver)
	}
}

// newHub builds the configured fan-out backbone and its health checks.
func newHub(ctx context.Context, cfg appConfig, log *slog.Logger) (fanout.Hub, []httpserver.Check, error) {
	switch cfg.FanoutDriver {
	case "redis":
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, nil, err
		}
		var hubCfg fanout.Config
		config.MustLoad(&hubCfg)
		hub := fanout.NewRedisHub(client, hubCfg, fanout.WithLogger(log))
		checks := []httpserver.Check{{Name: "redis", Probe: redis.Healthcheck(client)}}
		return hub, checks, nil

	case "memory":
		log.WarnContext(ctx, "using in-memory fan-out, live events will not cross processes")
		return fanout.NewMemoryHub(64), nil, nil

	default:
		return nil, nil, errUnknownDriver("FANOUT_DRIVER", cfg.FanoutDriver)
	}
}

type driverError struct {
	key, value string
}

func (e driverError) Error() string {
	return "unknown " + e.key + " value: " + e.value
}

func errUnknownDriver(key, value string) error {
	return driverError{key: key, value: value}
}
