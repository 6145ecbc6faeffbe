package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/spf13/cobra"
	"github.com/sura/auth-service"
	"github.com/sura/auth-service/middleware/jwtware"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP authentication server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(configFile, envFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(configFile, envFile)
			if err != nil {
				return err
			}

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			return migrate(cmd.Context(), db)
		},
	}
}

func newLogger(cfg *Config) *glog.BaseLogger {
	if cfg.Logging.Level == "trace" || cfg.Logging.Level == "debug" {
		return glog.NewLogger(
			glog.WithLoggerTypePretty(),
			glog.WithLevel(glog.Trace),
			glog.WithName("auth-service"),
			glog.WithAddSource(false),
			glog.WithRichErrorHandler(errors.ToSlogAttributes),
		)
	}

	return glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithName("auth-service"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
}

func openDatabase(cfg *Config) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Database.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to open database").
			WithMetadata(map[string]any{"dsn": cfg.Database.DSN})
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func migrate(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*auth.User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to create users table")
	}
	return nil
}

func serve(ctx context.Context, cfg *Config) error {
	lgr := newLogger(cfg)
	log := lgr.GetLogger("server")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrate(ctx, db); err != nil {
		return err
	}

	repo := auth.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	provider := auth.NewUserProvider(repo.Users()).
		WithLogger(lgr.GetLogger("provider"))

	auther := auth.NewAuthenticator(provider, repo, cfg).
		WithLogger(lgr.GetLogger("auth"))

	app := fiber.New(fiber.Config{
		AppName:               "auth-service",
		DisableStartupMessage: false,
	})

	app.Use(jwtware.New(jwtware.Config{
		TokenService: auther.TokenService(),
		ContextKey:   cfg.GetContextKey(),
		TokenLookup:  cfg.GetTokenLookup(),
		AuthScheme:   cfg.GetAuthScheme(),
		Logger:       lgr.GetLogger("jwtware"),
		IdentityLookup:  auth.IdentityLookupAdapter(provider),
		ContextEnricher: auth.ContextEnricherAdapter,
	}))

	auth.RegisterAuthRoutes(
		app,
		jwtware.RequireAuthenticated(cfg.GetContextKey()),
		auth.WithAuthenticator(auther),
		auth.WithControllerLogger(lgr.GetLogger("http")),
		auth.WithContextKey(cfg.GetContextKey()),
	)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "address", cfg.Server.Address)
		errCh <- app.Listen(cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}
