package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/victoralfred/userdir/internal/adapters/database"
	"github.com/victoralfred/userdir/internal/config"
	"github.com/victoralfred/userdir/internal/domain/ratelimit"
	"github.com/victoralfred/userdir/internal/domain/user"
	"github.com/victoralfred/userdir/internal/handlers"
	rediscache "github.com/victoralfred/userdir/internal/infrastructure/redis"
	"github.com/victoralfred/userdir/internal/logging"
	"github.com/victoralfred/userdir/internal/repositories/memory"
	"github.com/victoralfred/userdir/internal/server"
	"github.com/victoralfred/userdir/internal/services"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:  "userdir",
		Usage: "User directory HTTP service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML config file path",
				EnvVars: []string{config.ConfigFileEnv},
			},
		},
		Action: func(c *cli.Context) error {
			return withRuntime(c, serve)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP server (default)",
				Action: func(c *cli.Context) error {
					return withRuntime(c, serve)
				},
			},
			{
				Name:  "migrate",
				Usage: "Apply PostgreSQL schema migrations and exit",
				Action: func(c *cli.Context) error {
					return withRuntime(c, migrate)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// withRuntime loads configuration and the logger before handing off to fn
func withRuntime(c *cli.Context, fn func(*config.Config, *zap.Logger) error) error {
	cfg, err := config.LoadFile(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Environment,
		FilePath:    cfg.Log.File,
		MaxSize:     cfg.Log.MaxSize,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAge:      cfg.Log.MaxAge,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := fn(cfg, logger); err != nil {
		logger.Error("Command failed", zap.Error(err))
		return err
	}
	return nil
}

func migrate(cfg *config.Config, logger *zap.Logger) error {
	if cfg.Storage.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations require storage driver %q, got %q", config.DriverPostgres, cfg.Storage.Driver)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, databaseConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	applied, err := database.NewMigrationRunner(pool, database.Migrations).Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Migrations complete", zap.Int("applied", applied))
	return nil
}

func databaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.MaxConns,
	}
}

func serve(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting user directory server...",
		zap.String("version", cfg.Version),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
	)

	b, closeBackends, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackends()

	userHandler := handlers.NewUserHandler(
		services.NewUserService(b.repo),
		services.NewRegistry(b.repo),
		logger,
	)

	httpServer := server.New(cfg, &server.Services{
		UserHandler: userHandler,
		RateLimiter: b.limiter,
	}, logger)
	httpServer.Setup()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpServer.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info("Shutdown signal received")
		}
		return nil
	})

	return g.Wait()
}

// backends are the stores the HTTP layer runs on
type backends struct {
	repo    user.Repository
	limiter ratelimit.Limiter
}

// openBackends builds the configured user repository and, when Redis is needed, the
// cache and rate limiter. The returned function releases every connection.
func openBackends(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backends, func(), error) {
	var (
		b       backends
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := database.NewPool(ctx, databaseConfig(cfg))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, pool.Close)
		logger.Info("Connected to database successfully")

		logger.Info("Running database migrations...")
		if err := database.RunMigrations(ctx, pool); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		b.repo = database.NewUserRepository(pool)
	default:
		b.repo = memory.NewUserRepository()
		logger.Info("Using in-memory user store", zap.Int("capacity", user.MaxUsers))
	}

	if !cfg.Cache.Enabled && !cfg.RateLimit.Enabled {
		return &b, closeAll, nil
	}

	client, err := rediscache.NewClient(ctx, rediscache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	closers = append(closers, func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	})

	if cfg.Cache.Enabled {
		b.repo = rediscache.NewCachedRepository(b.repo, client, cfg.Cache.TTL.Duration, logger)
		logger.Info("User cache enabled", zap.Duration("ttl", cfg.Cache.TTL.Duration))
	}
	if cfg.RateLimit.Enabled {
		b.limiter = rediscache.NewRateLimiter(client)
		logger.Info("User creation rate limit enabled",
			zap.Int("requests", cfg.RateLimit.Requests),
			zap.Duration("window", cfg.RateLimit.Window.Duration),
		)
	}

	return &b, closeAll, nil
}
