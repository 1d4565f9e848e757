package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"preflight/internal/catalog"
	"preflight/internal/config"
	"preflight/internal/pkg/logger"
	"preflight/internal/preflight"
	"preflight/internal/repositories"
	"preflight/internal/scene"
	"preflight/internal/storage"
	"preflight/internal/worker"
	"preflight/internal/worker/processor"
	"preflight/internal/worker/queue"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.NewDefault().LogFatal("failed to load .env", err)
	}

	cfg, err := config.LoadWorker()
	if err != nil {
		logger.NewDefault().LogFatal("invalid configuration", err)
	}

	log := logger.New(cfg.Log)
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	sp, err := storage.NewProvider(ctx, cfg.Storage)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}

	cat := catalog.New(repositories.NewSceneRepository(pool), scene.NewLoader(sp))
	proc := processor.New(processor.Deps{
		Source: cat,
		Sink:   queue.NewReportStore(rdb, cfg.ReportTTL),
		Engine: preflight.NewEngine(cfg.Rules),
		Log:    log,
	})

	log.Info("preflight worker started",
		"queue", cfg.QueueName,
		"provider", sp.Provider(),
		"report_ttl", cfg.ReportTTL.String(),
	)

	err = worker.Run(ctx, worker.Deps{
		Queue:      queue.NewRedisQueue(rdb, cfg.QueueName),
		Processor:  proc,
		Log:        log,
		PopTimeout: cfg.PopTimeout,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.LogFatal("worker stopped", err)
	}
	log.Info("preflight worker stopped")
}
