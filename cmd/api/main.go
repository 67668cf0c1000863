package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend-discoverudupi/internal/config"
	"backend-discoverudupi/internal/db"
	"backend-discoverudupi/internal/logging"
	"backend-discoverudupi/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig      func() config.Config
	newLogger       func(level, format string) (*zap.Logger, error)
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	connectRedis    func(config.Config) *redis.Client
	notify          func(chan<- os.Signal, ...os.Signal)
	run             func(context.Context, config.Config, *pgxpool.Pool, *redis.Client, *zap.Logger, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		newLogger:       logging.New,
		connectPostgres: db.ConnectPostgres,
		connectRedis:    db.ConnectRedis,
		notify:          signal.Notify,
		run:             Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()

	log, err := deps.newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log = zap.Must(zap.NewProduction())
		log.Warn("invalid logging config, using defaults", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	pg, err := deps.connectPostgres(cfg)
	if err != nil {
		log.Error("postgres connection failed", zap.Error(err))
	}

	rdb := deps.connectRedis(cfg)
	if rdb == nil {
		log.Info("redis not configured; caching and cross-instance events disabled")
	}

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, pg, rdb, log, signals, nil); err != nil {
		log.Error("server exited with error", zap.Error(err))
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and waits for termination signals.
func Run(ctx context.Context, cfg config.Config, pg *pgxpool.Pool, rdb *redis.Client, log *zap.Logger, signals <-chan os.Signal, listen ListenFunc) error {
	if log == nil {
		log = zap.NewNop()
	}
	srv := server.NewServer(cfg, pg, rdb, log)
	defer srv.Close()
	srv.Warm(ctx)

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()
	log.Info("listening", zap.String("addr", cfg.ServerPort))

	select {
	case <-signals:
		log.Info("shutting down")
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	if pg != nil {
		pg.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	return nil
}
