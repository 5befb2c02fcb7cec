package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postserver/config"
	postHandler "postserver/internal/post"
	"postserver/internal/post/repository"
	"postserver/internal/post/service"
	"postserver/pkg/logger"
	"postserver/pkg/notify"
	"postserver/router"
	"postserver/socket"

	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load settings from .env, config.yml and the environment.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.Env)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. The post store lives for the whole process and is shared by every request.
	guard := repository.NewGuard(repository.NewPostDb())

	// 3. The hub pushes post events to WebSocket clients.
	hub := socket.NewHub()
	go hub.Run(ctx)

	// 4. Post events also go out on Redis for external consumers, if configured.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = notify.NewClient(cfg.RedisURL)
		if err != nil {
			logger.Sugar.Fatalf("Invalid REDIS_URL: %v", err)
		}
		defer rdb.Close()
	}
	notifier := notify.NewNotifier(rdb)
	if err := notifier.Ping(ctx); err != nil {
		logger.Sugar.Fatalf("Could not reach redis: %v", err)
	}

	postService := service.NewPostService(guard, service.Publishers{hub, notifier})
	handler := router.Setup(
		postHandler.NewPostHandler(postService),
		hub,
		socket.NewUpgrader(cfg.Origins()),
		cfg.Origins(),
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Sugar.Infof("Post server listening on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Sugar.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar.Errorf("Graceful shutdown failed: %v", err)
	}
}
