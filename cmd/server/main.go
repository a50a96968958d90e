// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/doko/internal/auth"
	"github.com/jason-s-yu/doko/internal/cache"
	"github.com/jason-s-yu/doko/internal/config"
	"github.com/jason-s-yu/doko/internal/database"
	"github.com/jason-s-yu/doko/internal/handlers"
	"github.com/jason-s-yu/doko/internal/middleware"
	"github.com/jason-s-yu/doko/internal/session"
	"github.com/jason-s-yu/doko/internal/storage"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	logger := newLogger(cfg)
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	redisClient := func() *redis.Client {
		if rdb == nil {
			c, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
			if err != nil {
				logger.WithError(err).Fatal("redis unavailable")
			}
			rdb = c
		}
		return rdb
	}

	var blobs storage.BlobStore
	switch cfg.StorageBackend {
	case "memory":
		blobs = storage.NewMemoryStore()
	case "redis":
		blobs = storage.NewRedisStore(redisClient(), "doko")
	case "postgres":
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Fatal("database unavailable")
		}
		defer pool.Close()
		pg, err := storage.NewPostgresStore(ctx, pool)
		if err != nil {
			logger.WithError(err).Fatal("failed to prepare snapshot table")
		}
		blobs = pg
	default:
		blobs = storage.NewFSStore(cfg.StorageDir)
	}
	logger.WithField("backend", cfg.StorageBackend).Info("snapshot storage ready")

	hub := handlers.NewHub(logger)
	opts := session.Options{
		Logger:       logger,
		Broadcaster:  hub,
		Rounds:       cfg.Rounds,
		TrickDelay:   cfg.TrickDelay,
		AdvanceDelay: cfg.AdvanceDelay,
	}
	if cfg.ActionLog {
		opts.ActionLog = cache.NewActionLog(redisClient(), cfg.QueueName)
		logger.WithField("queue", cfg.QueueName).Info("publishing actions")
	}
	if rdb != nil {
		defer rdb.Close()
	}
	store := session.NewStore(blobs, opts)
	defer store.Close()

	n, err := store.Recover(ctx)
	if err != nil {
		logger.WithError(err).Fatal("failed to recover games")
	}
	logger.WithField("games", n).Info("recovered games")

	creds, err := auth.ParseCredentials(cfg.PlayerCreds)
	if err != nil {
		logger.WithError(err).Fatal("invalid PLAYER_CREDS")
	}
	tokens, err := newTokenIssuer(cfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to set up api tokens")
	}

	api := &handlers.API{
		Store:            store,
		Hub:              hub,
		Creds:            creds,
		Tokens:           tokens,
		Logger:           logger,
		LivenessInterval: cfg.LivenessInterval,
		OriginPatterns:   cfg.AllowedOrigins,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(middleware.LogMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Mount("/", api.Routes())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("shutdown did not finish cleanly")
		}
	}()

	logger.Infof("Running on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("server exited")
	}
	logger.Info("server stopped")
}

func newLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	if cfg.Production() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// newTokenIssuer uses the configured key pair, or a fresh one that lives
// as long as the process.
func newTokenIssuer(cfg config.Config) (*auth.TokenIssuer, error) {
	ttl, err := auth.ParseTokenTTL(cfg.TokenExpireTime)
	if err != nil {
		return nil, err
	}
	if cfg.TokenKeyFile != "" && cfg.TokenPubFile != "" {
		return auth.TokenIssuerFromFiles(cfg.TokenKeyFile, cfg.TokenPubFile, ttl)
	}
	return auth.NewTokenIssuer(ttl)
}
