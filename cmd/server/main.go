package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"campusafe/internal/auth"
	"campusafe/internal/cache"
	"campusafe/internal/config"
	"campusafe/internal/events"
	"campusafe/internal/handler"
	"campusafe/internal/logging"
	"campusafe/internal/router"
	"campusafe/internal/service"
	"campusafe/internal/storage"
	"campusafe/internal/store"
)

// @title CampuSafe API
// @version 1.0
// @description Campus lost-and-found: found-item reports, ownership claims, pickup handoff and student profiles.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogPretty)
	if envErr != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	stores, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store init")
	}
	log.Info().Str("driver", cfg.StoreDriver).Msg("store ready")

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	checks := map[string]handler.Check{}

	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitMQURL != "" {
		rabbit, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq unavailable, events disabled")
		} else {
			publisher = rabbit
			checks["events"] = func(context.Context) error { return rabbit.HealthCheck() }
			log.Info().Str("exchange", cfg.RabbitMQExchange).Msg("rabbitmq publisher ready")
		}
	}

	var imageStore service.ImageStore
	if cfg.MinIOEndpoint != "" {
		minioStorage, err := storage.NewMinIOStorage(ctx,
			cfg.MinIOEndpoint,
			cfg.MinIOPublicEndpoint,
			cfg.MinIOAccessKey,
			cfg.MinIOSecretKey,
			cfg.MinIOBucket,
			cfg.MinIOUseSSL,
		)
		if err != nil {
			log.Warn().Err(err).Msg("minio unavailable, images stay inline")
		} else {
			imageStore = minioStorage
			checks["images"] = minioStorage.HealthCheck
			log.Info().Str("bucket", cfg.MinIOBucket).Msg("minio storage ready")
		}
	}

	// Auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Services
	imageService := service.NewImageService(imageStore)
	userService := service.NewUserService(stores.Users, service.NewEmailPolicy(cfg.CampusEmailDomain), imageService, publisher)
	itemService := service.NewItemService(stores.Items, stores.Users, imageService, publisher, cacheClient)
	authService := service.NewAuthService(userService, jwtService, tokenStore)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, cfg, authService, router.Handlers{
		Health: handler.NewHealthHandler(stores.Items, checks),
		Item:   handler.NewItemHandler(itemService),
		User:   handler.NewUserHandler(userService),
		Auth:   handler.NewAuthHandler(authService),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("address", srv.Addr).Bool("auth_required", cfg.AuthRequired).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := publisher.Close(); err != nil {
		log.Warn().Err(err).Msg("close publisher")
	}
	if err := cacheClient.Close(); err != nil {
		log.Warn().Err(err).Msg("close cache")
	}
	if err := stores.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("close store")
	}
	log.Info().Msg("server exited")
}
