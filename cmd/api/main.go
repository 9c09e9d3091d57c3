package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/iterator"

	"hitrank/internal/adapter/api/handler"
	apimiddleware "hitrank/internal/adapter/api/middleware"
	"hitrank/internal/adapter/api/router"
	"hitrank/internal/adapter/repository"
	"hitrank/internal/adapter/repository/memstore"
	domainrepo "hitrank/internal/domain/repository"
	"hitrank/internal/domain/service"
	"hitrank/internal/infrastructure/cache"
	"hitrank/internal/infrastructure/firebase"
	"hitrank/internal/infrastructure/metrics"
	"hitrank/internal/infrastructure/ratelimit"
	"hitrank/internal/infrastructure/storage"
	"hitrank/internal/infrastructure/websocket"
	"hitrank/internal/usecase"
	"hitrank/pkg/config"
	"hitrank/pkg/logger"
	"hitrank/pkg/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel, "hitrank-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	firebaseApp, opts, err := firebase.NewApp(ctx, cfg)
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("Failed to initialize Firebase")
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("Failed to initialize Firebase Auth")
	}
	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	healthChecks := map[string]handler.HealthCheck{
		"firebase_auth": firebaseAuthClient.TestConnection,
	}

	var store domainrepo.Store
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		store = memstore.New()
	default:
		firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
		if err != nil {
			logger.Get().Fatal().Err(err).Msg("Failed to create Firestore client")
		}
		defer firestoreClient.Close()

		store = repository.NewFirestoreStore(firestoreClient)
		healthChecks["firestore"] = func(ctx context.Context) error {
			_, err := firestoreClient.Collection("pins").Limit(1).Documents(ctx).Next()
			if errors.Is(err, iterator.Done) {
				return nil
			}
			return err
		}
	}

	pinCache := cache.NewPinCache(cfg.RedisURL)
	if rdb := pinCache.Client(); rdb != nil {
		defer rdb.Close()
		healthChecks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}

	var verifier usecase.MediaVerifier
	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			logger.Get().Fatal().Err(err).Msg("Failed to initialize Cloud Storage")
		}
		defer storageClient.Close()
		verifier = storageClient
	} else {
		logger.Warn("STORAGE_BUCKET not set, challenge media references are not verified")
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Get().Fatal().Err(err).Msg("Failed to register metrics")
	}

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	runner := usecase.NewTxRunner(store, cfg.TxMaxAttempts, cfg.TxRetryBackoff)

	profileUseCase := usecase.NewProfileUseCase(runner, pinCache)
	ratingUseCase := usecase.NewRatingUseCase(runner, pinCache)
	vouchUseCase := usecase.NewVouchUseCase(runner, pinCache)
	challengeUseCase := usecase.NewChallengeUseCase(runner, wsManager, pinCache, verifier)
	interactionUseCase := usecase.NewInteractionUseCase(runner, pinCache)

	if cfg.BoundariesPath != "" {
		data, err := os.ReadFile(cfg.BoundariesPath)
		if err != nil {
			logger.Get().Fatal().Err(err).Msg("Failed to read resort boundaries")
		}
		geofence, err := service.ParseGeofence(data)
		if err != nil {
			logger.Get().Fatal().Err(err).Msg("Failed to load resort boundaries")
		}
		profileUseCase.UseGeofence(geofence)
	}

	sweeper := usecase.NewChallengeSweeper(challengeUseCase, store, cfg.SweepInterval, cfg.SweepBatchLimit)
	sweeper.Start(ctx)

	limiter := ratelimit.NewRateLimiter()
	limiter.StartCleanupRoutine(ctx.Done())

	handler.Setup(profileUseCase, ratingUseCase, vouchUseCase, challengeUseCase, interactionUseCase)
	handler.SetupHealthHandler(healthChecks)

	allowedOrigins := strings.Split(cfg.CORSAllowOrigins, ",")

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log := logger.Get()
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			} else if v.Status >= http.StatusBadRequest {
				evt = log.Warn()
			}
			evt.
				Str("method", v.Method).
				Str("path", c.Path()).
				Int("status", v.Status).
				Dur("duration_ms", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(metrics.Middleware())

	e.Validator = validator.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient)
	adminMiddleware := apimiddleware.NewAdminMiddleware(store)
	rateLimitMiddleware := apimiddleware.NewRateLimitMiddleware(limiter)

	router.Setup(e, authMiddleware, adminMiddleware, rateLimitMiddleware)
	router.SetupWebSocketRouter(e, handler.NewWebSocketHandler(wsManager, allowedOrigins), authMiddleware)

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get().Fatal().Err(err).Msg("Server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}
