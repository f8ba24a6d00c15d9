package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/virtuallego/backend/internal/api"
	"github.com/virtuallego/backend/internal/config"
	"github.com/virtuallego/backend/internal/database"
	"github.com/virtuallego/backend/internal/logger"
	"github.com/virtuallego/backend/internal/migrations"
	"github.com/virtuallego/backend/internal/redis"
	"github.com/virtuallego/backend/internal/table"
	"github.com/virtuallego/backend/internal/ws"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Initialize database
	var db *sqlx.DB
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL is empty; round history is kept in memory")
	} else {
		db, err = database.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer db.Close()
		log.Info("database connected")

		if cfg.MigrateOnStart {
			log.Info("running DB migrations on startup")
			if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
				log.Fatalw("failed to run migrations", "error", err)
			}
		}
	}

	// Initialize Redis
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redis.Connect(cfg.RedisURL)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer rdb.Close()
		log.Info("redis connected")
	} else {
		log.Warn("REDIS_URL is empty; tables live in this process only")
	}

	manager := table.NewManager(db, rdb, cfg)
	hub := ws.NewHub(manager)
	manager.SetBroadcaster(hub)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, manager, hub, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return hub.RunEventSubscriber(gctx, rdb) })
	g.Go(func() error { return manager.StartTicker(gctx) })
	g.Go(func() error { return manager.RunIdleWorker(gctx) })
	g.Go(func() error {
		log.Infow("starting Virtual LEGO server", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		manager.Shutdown()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Errorw("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
