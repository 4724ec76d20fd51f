package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"mediashelf/internal/cache"
	"mediashelf/internal/catalog"
	"mediashelf/internal/config"
	"mediashelf/internal/database"
	"mediashelf/internal/handler"
	"mediashelf/internal/queue"
	"mediashelf/internal/ratelimit"
	redisclient "mediashelf/internal/redis"
	"mediashelf/internal/repository"
	"mediashelf/internal/service"
	"mediashelf/internal/worker"
)

// Run wires the whole service together and blocks until shutdown.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Connect to Postgres
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis
	rdb, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()
	if err := rdb.Ping(ctx); err != nil {
		return err
	}

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	socialRepo := repository.NewSocialRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	threadRepo := repository.NewThreadRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// 5. Caches, rate limiter, queue
	catalogCache := catalog.NewCache(rdb.Client, mediaRepo)
	trendingCache := cache.NewTrendingCache(rdb.Client)
	limiter := ratelimit.NewLimiter(rdb.Client)
	publisher := queue.NewPublisher(rdb.Client)
	consumer := queue.NewConsumer(rdb.Client)

	// 6. Services
	viewerSvc := service.NewViewerService(socialRepo)
	ranker := service.NewRanker(engagementRepo)
	enricher := service.NewEnricher(userRepo, threadRepo, engagementRepo, catalogCache)
	feedSvc := service.NewFeedService(activityRepo, viewerSvc, ranker, enricher, catalogCache)
	trendingSvc := service.NewTrendingService(activityRepo, engagementRepo, catalogCache, trendingCache)
	notificationSvc := service.NewNotificationService(notificationRepo, socialRepo, userRepo)
	socialSvc := service.NewSocialService(db, socialRepo, userRepo, publisher)
	activitySvc := service.NewActivityService(activityRepo, mediaRepo, threadRepo, userRepo, viewerSvc, enricher, limiter, publisher)
	reactionSvc := service.NewReactionService(engagementRepo, activityRepo, viewerSvc, limiter, publisher)
	commentSvc := service.NewCommentService(engagementRepo, activityRepo, userRepo, viewerSvc, limiter, publisher)

	// R2 is optional: without it avatars and poster mirroring are disabled
	mediaSvc, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		log.Printf("[Server] R2 not configured, image storage disabled: %v", err)
		mediaSvc = nil
	}
	userSvc := service.NewUserService(userRepo, socialRepo, mediaSvc)

	// 7. Workers consuming the activity stream
	workerHandler := worker.NewHandler(notificationSvc, trendingCache, mediaRepo)
	if mediaSvc != nil {
		workerHandler.SetPosterMirror(mediaSvc)
	}
	managerCfg := worker.DefaultManagerConfig()
	managerCfg.WorkerCount = cfg.WorkerCount
	manager := worker.NewManager(consumer, workerHandler, managerCfg)
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}
	defer manager.Stop()

	// 8. HTTP router and server
	router := NewRouter(RouterConfig{
		UserHandler:         handler.NewUserHandler(userSvc),
		SocialHandler:       handler.NewSocialHandler(socialSvc),
		FeedHandler:         handler.NewFeedHandler(feedSvc),
		TrendingHandler:     handler.NewTrendingHandler(trendingSvc),
		ActivityHandler:     handler.NewActivityHandler(activitySvc),
		ReactionHandler:     handler.NewReactionHandler(reactionSvc),
		CommentHandler:      handler.NewCommentHandler(commentSvc),
		NotificationHandler: handler.NewNotificationHandler(notificationSvc),
		JWTSecret:           cfg.JWTSecret,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Println("[Server] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Println("[Server] Goodbye")
	return nil
}
