package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"preflight/internal/catalog"
	"preflight/internal/config"
	"preflight/internal/httpapi"
	"preflight/internal/httpapi/handlers"
	"preflight/internal/pkg/logger"
	"preflight/internal/pkg/shutdown"
	"preflight/internal/preflight"
	"preflight/internal/repositories"
	"preflight/internal/scene"
	"preflight/internal/storage"
	"preflight/internal/worker/queue"
)

var version = "0.1.0"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.NewDefault().LogFatal("failed to load .env", err)
	}

	cfg, err := config.LoadAPI()
	if err != nil {
		logger.NewDefault().LogFatal("invalid configuration", err)
	}

	log := logger.New(cfg.Log)
	defer log.Close()

	log.Info("starting preflight API",
		"version", version,
		"tie_break", cfg.Rules.TieBreak.String(),
		"parallel", cfg.Rules.Parallel,
	)

	ctx := context.Background()

	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	// Connect to PostgreSQL
	log.Info("connecting to PostgreSQL")
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	shutdownMgr.RegisterSimple("postgres", pool.Close)

	if err := pool.Ping(ctx); err != nil {
		log.LogFatal("failed to ping PostgreSQL", err)
	}
	repo := repositories.NewSceneRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.LogFatal("failed to ensure catalog schema", err)
	}
	log.Info("PostgreSQL connected")

	// Connect to Redis
	log.Info("connecting to Redis")
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}
	log.Info("Redis connected")

	log.Info("initializing storage provider")
	sp, err := storage.NewProvider(ctx, cfg.Storage)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	log.Info("storage provider initialized", "provider", sp.Provider())

	router := httpapi.NewRouter(httpapi.Deps{
		Handlers: handlers.Deps{
			Catalog: catalog.New(repo, scene.NewLoader(sp)),
			Queue:   queue.NewRedisQueue(rdb, cfg.QueueName),
			Reports: queue.NewReportStore(rdb, cfg.ReportTTL),
			Engine:  preflight.NewEngine(cfg.Rules),
			Checks: map[string]handlers.HealthCheck{
				"postgres": pool.Ping,
				"redis": func(ctx context.Context) error {
					return rdb.Ping(ctx).Err()
				},
			},
			Provider: sp.Provider(),
			Version:  version,
			Log:      log,
		},
		Log:            log,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait()
	if shutdownMgr.Failed() > 0 {
		os.Exit(1)
	}
}
