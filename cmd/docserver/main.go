package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ramosjr18/categorizar-docs/internal/config"
	"github.com/ramosjr18/categorizar-docs/internal/database/minio"
	"github.com/ramosjr18/categorizar-docs/internal/database/mysql"
	"github.com/ramosjr18/categorizar-docs/internal/database/redis"
	docapi "github.com/ramosjr18/categorizar-docs/internal/document_service/api"
	"github.com/ramosjr18/categorizar-docs/internal/document_service/blob"
	docservice "github.com/ramosjr18/categorizar-docs/internal/document_service/service"
	docstore "github.com/ramosjr18/categorizar-docs/internal/document_service/store"
	"github.com/ramosjr18/categorizar-docs/internal/models"
	userapi "github.com/ramosjr18/categorizar-docs/internal/user_service/api"
	userservice "github.com/ramosjr18/categorizar-docs/internal/user_service/service"
	userstore "github.com/ramosjr18/categorizar-docs/internal/user_service/store"
	"github.com/ramosjr18/categorizar-docs/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New(cfg.App.Name, uuid.New().String())
	appLogger.Info("logger initialized")

	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	if err := db.AutoMigrate(&models.Document{}, &models.User{}); err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("database ready")

	minioClient, err := minio.GetClient(&cfg.Databases.MinIO)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("object storage ready")

	redisClient, err := redis.GetClient(&cfg.Databases.Redis)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("cache ready")

	// Store -> Service -> Handler wiring.
	documents := docstore.NewStore(db)
	blobs := blob.NewStore(minioClient, cfg.Databases.MinIO.Bucket)
	archive := docservice.NewService(cfg, documents, blobs, redisClient, appLogger)

	accounts := userservice.NewService(userstore.NewStore(db), cfg.Auth.JwtSecret, cfg.Auth.TokenTTL)

	if cfg.Cleanup.Enabled {
		interval, err := time.ParseDuration(cfg.Cleanup.Interval)
		if err != nil {
			appLogger.Fatal("invalid cleanup interval: " + err.Error())
		}
		go archive.RunCleanup(context.Background(), interval)
		appLogger.Info("cleanup worker started")
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	apiV1 := router.Group("/api/v1")
	userapi.Register(apiV1, userapi.NewHandler(accounts), cfg.Auth.JwtSecret)
	docapi.Register(apiV1, docapi.NewHandler(archive, appLogger), cfg)

	appLogger.Info("starting server on " + cfg.Server.Address)
	if err := router.Run(cfg.Server.Address); err != nil {
		appLogger.Fatal(err.Error())
	}
}
