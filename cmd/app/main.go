package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	_ "promo-backend/docs"
	"promo-backend/internal/common/cache"
	"promo-backend/internal/common/config"
	"promo-backend/internal/common/logger"
	"promo-backend/internal/common/middleware"
	authHTTP "promo-backend/internal/features/auth/delivery/http"
	authRepo "promo-backend/internal/features/auth/repository/postgres"
	authService "promo-backend/internal/features/auth/service"
	contentHTTP "promo-backend/internal/features/content/delivery/http"
	contentRepo "promo-backend/internal/features/content/repository/postgres"
	contentService "promo-backend/internal/features/content/service"
	spinHTTP "promo-backend/internal/features/spin/delivery/http"
	"promo-backend/internal/features/spin/repository/cached"
	spinRepo "promo-backend/internal/features/spin/repository/postgres"
	"promo-backend/internal/features/spin/reservation"
	spinService "promo-backend/internal/features/spin/service"
	"promo-backend/internal/platform/postgres"
	"promo-backend/internal/platform/redis"
	"promo-backend/internal/platform/storage"
	"promo-backend/internal/workers"
)

// @title           Promo Backend API
// @version         1.0
// @description     Spin-the-wheel code redemption, CMS content and back-office API.

// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description "Bearer <jwt>" from /admin/login. Telegram admins may send X-Telegram-Init-Data instead.

// @tag.name spin
// @tag.description Public code verification and commit

// @tag.name content
// @tag.description Public tournaments, bonuses, promo codes and banners

// @tag.name admin-prizes
// @tag.description Prize catalog management

// @tag.name admin-tiers
// @tag.description Per-tier prize weights

// @tag.name admin-codes
// @tag.description Redemption code issuance

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init("promo-backend", cfg.Debug)
	logger.Info().
		Str("version", "1.0.0").
		Str("reservation_backend", cfg.Spin.ReservationBackend).
		Msg("Starting promo backend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postgresClient, err := postgres.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgresClient.Close()
	db := postgresClient.GetDB()

	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Fatal().Err(err).Msg("Failed to apply schema")
		}
	}

	redisClient, err := redis.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	cacheService := cache.NewCacheService(redisClient)

	// Repositories
	codeRepository := spinRepo.NewCodeRepository(db)
	prizeCatalog, err := cached.NewPrizeCatalog(spinRepo.NewPrizeRepository(db), cfg.Cache.CatalogSize, cfg.Cache.CatalogTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create prize catalog cache")
	}
	userRepository := authRepo.NewAdminUserRepository(db)
	contentRepository := contentRepo.NewContentRepository(db)

	var store reservation.Store
	var sweeper *workers.ReservationSweeper
	switch cfg.Spin.ReservationBackend {
	case config.ReservationBackendRedis:
		store = reservation.NewRedisStore(redisClient, cfg.Spin.LockWait)
	default:
		memStore := reservation.NewMemoryStore(time.Now)
		store = memStore
		sweeper = workers.NewReservationSweeper(memStore, cfg.Spin.SweepInterval)
	}

	var images spinService.ImageStore
	if cfg.StorageEnabled() {
		uploader, err := storage.NewS3Uploader(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize S3 uploader")
		}
		images = uploader
	} else {
		logger.Warn().Msg("S3 storage not configured, image uploads disabled")
	}

	// Services
	spinSvc := spinService.NewSpinService(codeRepository, prizeCatalog, store, cfg.Spin.ReservationTTL)
	adminSvc := spinService.NewAdminService(codeRepository, prizeCatalog, images)
	authSvc := authService.NewAuthService(userRepository, cfg.Auth)
	contentSvc := contentService.NewContentService(contentRepository, cacheService)

	if err := authSvc.EnsureBootstrapAdmin(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to bootstrap admin user")
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.ErrorResponder())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.Origins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Telegram-Init-Data", "init_data", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-Cache"}
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")
	spinHTTP.NewSpinHandler(spinSvc).RegisterRoutes(api)

	contentHandler := contentHTTP.NewContentHandler(contentSvc)
	contentHandler.RegisterRoutes(api.Group("/content", middleware.RedisCache(cacheService, cfg.Cache.ContentTTL)))

	authHandler := authHTTP.NewAuthHandler(authSvc)
	adminPublic := api.Group("/admin")
	authHandler.RegisterPublicRoutes(adminPublic)

	admin := adminPublic.Group("", middleware.Authenticate(authSvc))
	authHandler.RegisterRoutes(admin)
	spinHTTP.NewAdminHandler(adminSvc).RegisterRoutes(admin)
	contentHandler.RegisterAdminRoutes(admin.Group("/content"))

	setupProbes(router, postgresClient, redisClient)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	expiryWorker := workers.NewCodeExpiryWorker(codeRepository, cfg.Spin.CodeExpiryInterval)
	expiryWorker.Start()
	defer expiryWorker.Stop()
	if sweeper != nil {
		sweeper.Start()
		defer sweeper.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Server stopped with error")
	}
	logger.Info().Msg("Server exited")
}

func setupProbes(router *gin.Engine, postgresClient *postgres.Client, redisClient *goredis.Client) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "promo-backend",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := postgresClient.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "postgres unavailable",
				"details": err.Error(),
			})
			return
		}

		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "promo-backend",
		})
	})
}
