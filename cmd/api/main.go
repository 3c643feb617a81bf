package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/vkataja/quest-board-api/api/swagger"
	"github.com/vkataja/quest-board-api/internal/handler"
	"github.com/vkataja/quest-board-api/internal/middleware"
	"github.com/vkataja/quest-board-api/internal/repository"
	"github.com/vkataja/quest-board-api/internal/service"
	"github.com/vkataja/quest-board-api/pkg/cache"
	"github.com/vkataja/quest-board-api/pkg/config"
	"github.com/vkataja/quest-board-api/pkg/database"
	"github.com/vkataja/quest-board-api/pkg/logger"
	corsmiddleware "github.com/vkataja/quest-board-api/pkg/middleware/cors"
	reqidmiddleware "github.com/vkataja/quest-board-api/pkg/middleware/requestid"
)

// @title Quest Board API
// @version 1.0.0
// @description Homework and chore tracker with schedule-aware due dates
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, schedule cache disabled", "error", err)
		redisClient = nil
	}

	tz, err := time.LoadLocation(cfg.Board.Timezone)
	if err != nil {
		logr.Sugar().Warnw("unknown timezone, using local", "timezone", cfg.Board.Timezone)
		tz = time.Local
	}

	questRepo := repository.NewQuestRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	scheduleSvc := service.NewScheduleService(scheduleRepo, cacheRepo, nil, logr, service.ScheduleServiceConfig{
		DefaultDueInterval: cfg.Board.DefaultDueInterval,
		HorizonDays:        cfg.Board.HorizonDays,
		CacheTTL:           cfg.Board.ScheduleCacheTTL,
		Timezone:           tz,
	})
	scheduleSvc.SetMetrics(metricsSvc)

	questSvc := service.NewQuestService(questRepo, scheduleSvc, nil, logr, tz)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	exportSvc := service.NewExportService(questRepo, logr)

	questHandler := handler.NewQuestHandler(questSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/quests", questHandler.List)
		protected.GET("/quests/:id", questHandler.Get)
		protected.POST("/quests", questHandler.Create)
		protected.PUT("/quests/:id", questHandler.Update)
		protected.POST("/quests/:id/complete", questHandler.Complete)
		protected.POST("/quests/:id/reopen", questHandler.Reopen)
		protected.DELETE("/quests/:id", questHandler.Delete)

		protected.GET("/schedules", scheduleHandler.List)
		protected.GET("/schedules/:subject", scheduleHandler.Get)
		protected.PUT("/schedules", scheduleHandler.Upsert)
		protected.DELETE("/schedules/:subject", scheduleHandler.Delete)
		protected.POST("/schedules/resolve", scheduleHandler.Resolve)

		protected.GET("/export", exportHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
