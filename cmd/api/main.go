package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomaz/labelscan/internal/api"
	"github.com/tomaz/labelscan/internal/api/middleware"
	"github.com/tomaz/labelscan/internal/config"
	"github.com/tomaz/labelscan/internal/logger"
	"github.com/tomaz/labelscan/internal/service"
	"github.com/tomaz/labelscan/internal/storage"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(logger.LoadFromEnv())
	logger.SetDefault(appLogger)
	defer logger.Sync()

	// Debug artifact store (local disk by default, S3-compatible optional)
	artifactStore, err := storage.NewStore(&storage.Config{
		Type:      cfg.Storage.Type,
		Folder:    cfg.Storage.Folder,
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize artifact store")
	}
	if s3Store, ok := artifactStore.(*storage.S3Store); ok {
		if err := s3Store.EnsureBucket(context.Background()); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure artifact bucket")
		}
	}

	vlmService := service.NewVLMService(&service.VLMConfig{
		Provider:    cfg.VLM.Provider,
		Model:       cfg.VLM.Model,
		APIKey:      cfg.VLM.APIKey,
		BaseURL:     cfg.VLM.BaseURL,
		MaxTokens:   cfg.VLM.MaxTokens,
		Temperature: cfg.VLM.Temperature,
	})
	appLogger.WithField("model", vlmService.GetModel()).Info("VLM service initialized")

	geocodeService := service.NewGeocodeService(&service.GeocodeConfig{
		Enabled:   cfg.Geocode.Enabled,
		BaseURL:   cfg.Geocode.BaseURL,
		UserAgent: cfg.Geocode.UserAgent,
	})
	if geocodeService.IsEnabled() {
		appLogger.Info("Reverse geocoding enabled")
	}

	scanService := service.NewScanService(
		vlmService,
		geocodeService,
		artifactStore,
		appLogger,
		&service.ScanConfig{MaxEdge: cfg.Image.MaxEdge},
	)

	router := api.SetupRouter(scanService, appLogger, &api.RouterConfig{
		Mode: cfg.Server.Mode,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
