package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/elitemarket/auction-backend/internal/config"
	"github.com/elitemarket/auction-backend/internal/db"
	httpHandlers "github.com/elitemarket/auction-backend/internal/http/handlers"
	httpRouter "github.com/elitemarket/auction-backend/internal/http/router"
	"github.com/elitemarket/auction-backend/internal/logger"
	"github.com/elitemarket/auction-backend/internal/repository"
	"github.com/elitemarket/auction-backend/internal/service"
	"github.com/elitemarket/auction-backend/internal/storage"
	"github.com/elitemarket/auction-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера.
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	photoStorage, err := storage.NewPhotoStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	auctionRepo := repository.NewAuctionRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	chatRepo := repository.NewChatRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Фоновая чистка протухших сессий.
	go sessionJanitor(ctx, userRepo)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	profileService := service.NewProfileService(userRepo, reviewRepo)
	auctionService := service.NewAuctionService(auctionRepo, reviewRepo, userRepo)
	chatService := service.NewChatService(chatRepo, auctionRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	seedService := service.NewSeedService(userRepo, auctionRepo, reviewRepo)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	go hub.Run()

	auctionService.SetNotifier(hub)
	chatService.SetNotifier(hub)
	profileService.SetNotifier(hub)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	profileHandler := httpHandlers.NewProfileHandler(profileService, photoStorage)
	auctionHandler := httpHandlers.NewAuctionHandler(auctionService)
	chatHandler := httpHandlers.NewChatHandler(chatService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)
	seedHandler := httpHandlers.NewSeedHandler(seedService)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, profileHandler, auctionHandler, chatHandler, notificationHandler, wsHandler, healthHandler, seedHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// sessionJanitor периодически удаляет истёкшие refresh-сессии.
func sessionJanitor(ctx context.Context, users *repository.UserRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := users.DeleteExpiredSessions(ctx)
			if err != nil {
				logger.Log.WithField("error", err.Error()).Warn("main: не удалось удалить истёкшие сессии")
				continue
			}
			if deleted > 0 {
				logger.Log.WithField("deleted", deleted).Info("main: удалены истёкшие сессии")
			}
		}
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
