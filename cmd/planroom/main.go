package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/planroomhq/planroom/internal/config"
	"github.com/planroomhq/planroom/internal/dms/entity"
	"github.com/planroomhq/planroom/internal/dms/handler"
	"github.com/planroomhq/planroom/internal/dms/repository"
	"github.com/planroomhq/planroom/internal/dms/service"
	"github.com/planroomhq/planroom/internal/middleware"
	"github.com/planroomhq/planroom/internal/shared/mailer"
	"github.com/planroomhq/planroom/internal/shared/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting planroom service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Floor{},
		&entity.Section{},
		&entity.Drawing{},
		&entity.Revision{},
		&entity.CadSourceLink{},
		&entity.Transmittal{},
		&entity.TransmittalItem{},
		&entity.ProjectSequence{},
	); err != nil {
		zapLogger.Fatal("Failed to migrate tables", zap.Error(err))
	}

	rdb := initRedis(cfg.Redis)

	var provider storage.Provider
	if cfg.Storage.AccessToken != "" {
		provider = storage.NewClient(cfg.Storage.AccessToken)
	} else {
		zapLogger.Warn("File provider not configured; browsing and CAD freshness disabled")
	}

	var dispatcher mailer.Dispatcher
	if cfg.Mail.APIKey != "" {
		dispatcher = mailer.NewClient(cfg.Mail.BaseURL, cfg.Mail.APIKey, cfg.Mail.From)
	} else {
		zapLogger.Warn("Mail API not configured; transmittal emails disabled")
	}

	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			zapLogger.Warn("Artifact store unavailable", zap.Error(err))
			minioClient = nil
		}
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, provider, dispatcher, minioClient, cfg, zapLogger)
	handlers := handler.NewHandlers(services, provider)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// Team directory
		v1.GET("/users", h.Directory.ListUsers)
		v1.GET("/users/:id", h.Directory.GetUser)
		v1.GET("/transmittal-purposes", h.Directory.ListPurposes)

		// Project-scoped listings and creation
		projects := v1.Group("/projects/:projectId")
		{
			projects.GET("/drawings", h.Drawing.List)
			projects.POST("/drawings", h.Drawing.Create)
			projects.GET("/transmittals", h.Transmittal.List)
			projects.POST("/transmittals", h.Transmittal.Create)
			projects.GET("/floors", h.Directory.ListFloors)
			projects.GET("/sections", h.Directory.ListSections)
		}

		// Drawings
		drawings := v1.Group("/drawings")
		{
			drawings.GET("/:id", h.Drawing.Get)
			drawings.PUT("/:id", h.Drawing.Update)
			drawings.POST("/:id/archive", h.Drawing.Archive)
			drawings.GET("/:id/revisions", h.Drawing.ListRevisions)
			drawings.POST("/:id/revisions", h.Drawing.AddRevision)
			drawings.GET("/:id/download", h.Drawing.Download)
			drawings.PUT("/:id/cad-source", h.Drawing.LinkCadSource)
			drawings.DELETE("/:id/cad-source", h.Drawing.UnlinkCadSource)
			drawings.GET("/:id/cad-freshness", h.Drawing.CadFreshness)
		}

		// Transmittals
		transmittals := v1.Group("/transmittals")
		{
			transmittals.GET("/:id", h.Transmittal.Get)
			transmittals.POST("/:id/send", h.Transmittal.Send)
			transmittals.POST("/:id/resend", h.Transmittal.Resend)
			transmittals.POST("/:id/acknowledge", h.Transmittal.Acknowledge)
			transmittals.POST("/:id/cancel", h.Transmittal.Cancel)
		}

		// File provider browsing
		v1.GET("/storage/browse", h.Storage.Browse)
		v1.GET("/storage/metadata", h.Storage.FileMetadata)
	}
}
