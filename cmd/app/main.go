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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "referral-tracker-backend/docs"
	"referral-tracker-backend/internal/common/cache"
	"referral-tracker-backend/internal/common/config"
	"referral-tracker-backend/internal/common/logger"
	"referral-tracker-backend/internal/common/middleware"
	referralHTTP "referral-tracker-backend/internal/features/referral/delivery/http"
	referralService "referral-tracker-backend/internal/features/referral/service"
	"referral-tracker-backend/internal/platform/storage"
)

const serviceName = "referral-tracker-backend"

// @title           Referral Tracker API
// @version         1.0
// @description     Enrollment, referral codes, milestones and referral history.

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:5000
// @BasePath  /api

// @tag.name referrals
// @tag.description Enrollment, referral codes, withdrawal and history

// @tag.name milestones
// @tag.description Milestone administration and progress

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Debug)
	logger.Info().
		Str("version", "1.0.0").
		Bool("debug", cfg.Debug).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting Referral Tracker Backend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := storage.Open(ctx, cfg, true)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer res.Close()

	var opts []referralService.Option
	if cfg.Cache.Enabled && res.Redis != nil {
		opts = append(opts, referralService.WithCache(cache.NewCacheService(res.Redis.Client), cfg.Cache.TTL))
		logger.Info().Dur("ttl", cfg.Cache.TTL).Msg("Milestone cache enabled")
	}
	svc := referralService.NewReferralService(res.Store, opts...)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	if cfg.Server.Origin == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	setupRoutes(router, referralHTTP.NewReferralHandler(svc, cfg.Server.LegacyStatus), res)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func setupRoutes(router *gin.Engine, handler *referralHTTP.ReferralHandler, res *storage.Resources) {
	handler.RegisterRoutes(router.Group("/api"))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := res.Ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
}
