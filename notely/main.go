package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notely/notely/config"
	"notely/notely/controllers"
	"notely/notely/routes"
	"notely/notely/services/cleanup"
	"notely/notely/services/identity"
	"notely/notely/sources/cache"
	"notely/notely/sources/psql"
	"notely/notely/sources/psql/dao"
	"notely/notely/sources/psql/schema"
	"notely/notely/sources/storage"
	"notely/notely/utils/logging"

	"go.uber.org/zap"
)

// cleanupQueue is whichever cleanup transport is configured.
type cleanupQueue interface {
	Enqueue(urls ...string)
	Close()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if err := logging.InitLogger(cfg.LogDir); err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if missing := cfg.MissingEnv(); len(missing) > 0 {
		logging.AppLogger.Warn("configuration incomplete", zap.Strings("missing", missing))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBConnectTimeout+10*time.Second)
	defer cancel()

	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	if err := schema.Ensure(ctx, db.DB); err != nil {
		logging.ErrorLogger.Error("schema migration failed", zap.Error(err))
		os.Exit(1)
	}

	remover := storage.Remover{Legacy: storage.LegacyUploads{Dir: cfg.LegacyUploadsDir}}
	deps := routes.Deps{Legacy: remover.Legacy}

	var blobs controllers.BlobStore
	if cfg.MinIOEndpoint != "" {
		minioClient, err := storage.NewMinIOClient(ctx, cfg)
		if err != nil {
			logging.ErrorLogger.Error("minio connection error", zap.Error(err))
			os.Exit(1)
		}
		blobs = minioClient
		remover.Blobs = minioClient
		deps.Objects = minioClient
	} else {
		logging.AppLogger.Warn("MINIO_ENDPOINT not set, image uploads are disabled")
	}

	var idCache controllers.IdentityCache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewIdentityCache(ctx, cfg)
		if err != nil {
			// The resolver works without a cache.
			logging.ErrorLogger.Warn("redis unavailable, identity cache disabled", zap.Error(err))
		} else {
			idCache = redisCache
			defer redisCache.Close()
		}
	}

	var queue cleanupQueue
	if cfg.AMQPURL != "" {
		publisher, err := cleanup.DialAMQP(cfg.AMQPURL)
		if err != nil {
			logging.ErrorLogger.Error("amqp connection error", zap.Error(err))
			os.Exit(1)
		}
		if err := publisher.StartWorker(remover, cfg.RequestTimeout); err != nil {
			logging.ErrorLogger.Error("amqp worker error", zap.Error(err))
			os.Exit(1)
		}
		queue = publisher
	} else {
		queue = cleanup.NewQueue(remover, cfg.CleanupWorkers, cfg.CleanupBuffer, cfg.RequestTimeout)
	}

	noteDAO := dao.NewNoteDAO(db.DB)
	userDAO := dao.NewUserDAO(db.DB)
	deps.Auth = controllers.NewAuthController(userDAO, idCache, cfg)
	deps.Users = controllers.NewUserController(userDAO)
	deps.Notes = controllers.NewNotesController(noteDAO, queue)
	deps.Images = controllers.NewImagesController(noteDAO, dao.NewNoteImageDAO(db.DB), blobs, queue)
	deps.Health = controllers.NewHealthController(cfg, db)
	if cfg.HasGoogleOAuth() {
		deps.OAuth = identity.NewGoogleProvider(cfg)
	} else {
		logging.AppLogger.Warn("Google OAuth not configured, sign-in is disabled")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           routes.NewRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.AppLogger.Info("server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	queue.Close()
	logging.AppLogger.Info("server shutdown complete")
}
