package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zaikolab/zaiko-report/internal/api"
	"github.com/zaikolab/zaiko-report/internal/api/handlers"
	"github.com/zaikolab/zaiko-report/internal/cache"
	"github.com/zaikolab/zaiko-report/internal/config"
	"github.com/zaikolab/zaiko-report/internal/imagemap"
	"github.com/zaikolab/zaiko-report/internal/repository/postgres"
	"github.com/zaikolab/zaiko-report/internal/service"
	"github.com/zaikolab/zaiko-report/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("report cache unavailable, running without memoization")
		reportCache = cache.NewNoopReportCache()
	}

	var fetcher imagemap.Provider
	if cfg.Images.FetchEnabled && cfg.Images.FetchURL != "" {
		fetcher = imagemap.NewFetcher(imagemap.FetcherConfig{
			URLTemplate: cfg.Images.FetchURL,
			Workers:     cfg.Images.FetchWorkers,
			Timeout:     time.Duration(cfg.Images.TimeoutSeconds) * time.Second,
		}, nil)
	}

	var archive service.Archiver
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		archive = postgres.NewReportArchive(db)
	}

	reportService := service.NewReportService(cfg.Report, reportCache, fetcher, archive)
	reportHandler := handlers.NewReportHandler(reportService, cfg.App, cfg.Report)

	router := api.NewRouter(reportHandler, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Log.Info().Msg("server exiting")
}
