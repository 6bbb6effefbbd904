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

	"quill/internal/auth"
	"quill/internal/config"
	"quill/internal/db"
	"quill/internal/logging"
	"quill/internal/middleware"
	"quill/internal/router"
	"quill/internal/services"
	"quill/internal/store"
	"quill/internal/tasks"
	"quill/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(conn); err != nil {
		return err
	}
	if err := db.SeedSuperuser(conn, cfg.FirstSuperuser, cfg.FirstSuperuserPass, logger); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := tasks.NewRegistry(logger)
	services.NewMailService(cfg, logger).Register(registry)

	var queue tasks.Runner
	switch cfg.QueueBackend {
	case "redis":
		client, err := tasks.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}
		queue = tasks.NewRedisQueue(client, tasks.DefaultRedisKey, registry, logger)
	default:
		queue = tasks.NewMemoryQueue(256, registry, logger)
	}
	go queue.Run(ctx)
	logger.Info("task worker started", zap.String("backend", cfg.QueueBackend))

	cache, err := utils.NewCache[services.PostDetail](1024, 5*time.Minute)
	if err != nil {
		return err
	}
	st := store.New()
	tokens := auth.NewTokenManager(cfg.SecretKey, cfg.AccessTokenTTL(), cfg.ResetTokenTTL())
	avatars := services.NewAvatarStore(cfg.MediaPath, logger)

	newsletter := services.NewNewsletter(conn, st, queue, cfg.ServerHost, logger)
	scheduler := cron.New()
	if err := newsletter.Schedule(scheduler, cfg.NewsletterSchedule); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	limiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, logger)
	limiter.StartCleanup(10*time.Minute, ctx.Done())

	engine := router.New(router.Deps{
		Log:          logger,
		Users:        services.NewUserService(conn, st, tokens, queue, avatars, cfg.OpenRegistration, logger),
		Posts:        services.NewPostService(conn, st, cache, logger),
		Comments:     services.NewCommentService(conn, st, cache),
		Tags:         services.NewTagService(conn, st, cache),
		Categories:   services.NewCategoryService(conn, st, cache),
		Contacts:     services.NewContactService(conn, st),
		Engagement:   services.NewEngagementService(conn, st),
		LoginLimiter: limiter,
		MediaPath:    avatars.Dir(),
		SiteURL:      cfg.ServerHost,
		SiteTitle:    cfg.SMTP.FromName,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Quill server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
