package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Rishi9822/timetable-organizer-api/api/swagger"
	"github.com/Rishi9822/timetable-organizer-api/internal/handler"
	internalmiddleware "github.com/Rishi9822/timetable-organizer-api/internal/middleware"
	"github.com/Rishi9822/timetable-organizer-api/internal/repository"
	"github.com/Rishi9822/timetable-organizer-api/internal/service"
	"github.com/Rishi9822/timetable-organizer-api/pkg/cache"
	"github.com/Rishi9822/timetable-organizer-api/pkg/config"
	"github.com/Rishi9822/timetable-organizer-api/pkg/database"
	"github.com/Rishi9822/timetable-organizer-api/pkg/logger"
	corsmiddleware "github.com/Rishi9822/timetable-organizer-api/pkg/middleware/cors"
	reqidmiddleware "github.com/Rishi9822/timetable-organizer-api/pkg/middleware/requestid"
)

// @title Timetable Organizer API
// @version 1.0.0
// @description Multi-tenant timetable scheduling engine for schools and colleges
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Sugar().Warnw("redis unavailable, snapshot cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Timetable.SnapshotCacheTTL, logr, cfg.Timetable.CacheEnabled)
	} else {
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Timetable.SnapshotCacheTTL, logr, false)
	}

	timetableRepo := repository.NewTimetableRepository(db)
	classRepo := repository.NewClassRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	institutionRepo := repository.NewInstitutionRepository(db)
	userRepo := repository.NewUserRepository(db)

	timetableSvc := service.NewTimetableService(timetableRepo, classRepo, institutionRepo, subjectRepo, teacherRepo, cacheSvc, validate, logr)
	conflictSvc := service.NewConflictService(timetableSvc, teacherRepo, classRepo, metricsSvc, cfg.Timetable.DefaultMaxPeriodsPerDay, logr)
	availabilitySvc := service.NewAvailabilityService(timetableSvc, metricsSvc, logr)
	classSvc := service.NewClassService(classRepo, timetableSvc, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, timetableSvc, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	institutionSvc := service.NewInstitutionService(institutionRepo, timetableSvc, validate, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Timetable:   handler.NewTimetableHandler(timetableSvc, conflictSvc, availabilitySvc),
		Class:       handler.NewClassHandler(classSvc),
		Teacher:     handler.NewTeacherHandler(teacherSvc),
		Subject:     handler.NewSubjectHandler(subjectSvc),
		Institution: handler.NewInstitutionHandler(institutionSvc),
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
