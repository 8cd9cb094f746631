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

	"loyaltypush/internal/appstate"
	"loyaltypush/internal/cache"
	"loyaltypush/internal/config"
	"loyaltypush/internal/database"
	"loyaltypush/internal/handler"
	"loyaltypush/internal/queue"
	"loyaltypush/internal/redis"
	"loyaltypush/internal/repository"
	"loyaltypush/internal/service"
	"loyaltypush/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	profileRepo := repository.NewProfileRepository(db)
	memberRepo := repository.NewChatMemberRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	// 3. Push gateway
	gateway, err := newPushGateway(ctx, cfg)
	if err != nil {
		return err
	}

	// 4. Optional Redis: async fan-out and scheduled notifications
	var (
		publisher     handler.ChatPublisher
		scheduleCache cache.ScheduleCache
		rdb           *redis.Client
	)
	if cfg.RedisURL != "" {
		rdb, err = redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
		publisher = queue.NewPublisher(rdb.Client)
		scheduleCache = cache.NewScheduleCache(rdb.Client)
	} else {
		log.Println("[Server] REDIS_URL not set: async fan-out and scheduling disabled")
	}

	// 5. Optional R2 archive
	var archiver handler.ChatArchiver
	if cfg.ArchiveEnabled() {
		s3Client, err := service.NewR2Client(ctx, cfg)
		if err != nil {
			return err
		}
		archiver = service.NewNotificationArchiver(notifRepo, s3Client, cfg.R2BucketName)
	} else {
		log.Println("[Server] R2 not configured: notification archive disabled")
	}

	// 6. Services
	resolver := service.NewRecipientResolver(memberRepo, profileRepo)
	dispatcher := service.NewDispatcher(gateway, notifRepo, resolver)
	registry := service.NewTokenRegistry(profileRepo, cfg.PushProjectID)
	notifService := service.NewNotificationService(notifRepo, profileRepo, gateway, scheduleCache)

	// 7. Workers
	if rdb != nil {
		manager := worker.NewManager(
			queue.NewConsumer(rdb.Client),
			worker.NewHandler(dispatcher, notifService),
			worker.ManagerConfig{WorkerCount: cfg.WorkerCount},
		)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer manager.Stop()

		scheduler := worker.NewScheduler(scheduleCache, queue.NewPublisher(rdb.Client), cfg.SchedulerInterval)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	// 8. HTTP server
	router := NewRouter(RouterConfig{
		DeviceHandler:       handler.NewDeviceHandler(registry),
		NotificationHandler: handler.NewNotificationHandler(dispatcher, publisher, notifService, archiver, memberRepo),
		AppStateHandler:     handler.NewAppStateHandler(appstate.NewStore()),
		JWTSecret:           cfg.JWTSecret,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on :%s (push provider: %s)", cfg.ServerPort, cfg.PushProvider)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newPushGateway(ctx context.Context, cfg *config.Config) (service.PushGateway, error) {
	switch cfg.PushProvider {
	case config.PushProviderExpo:
		return service.NewExpoPushClient(cfg.ExpoPushURL, cfg.ExpoAccessToken), nil
	case config.PushProviderFCM:
		gw, err := service.NewFCMGateway(ctx, cfg.FCMProjectID, cfg.FCMClientEmail, cfg.FCMPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize fcm: %w", err)
		}
		return gw, nil
	default:
		return nil, fmt.Errorf("unknown PUSH_PROVIDER %q", cfg.PushProvider)
	}
}
