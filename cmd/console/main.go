package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/student-console/api/swagger"
	"github.com/noah-isme/student-console/internal/client"
	"github.com/noah-isme/student-console/internal/handler"
	"github.com/noah-isme/student-console/internal/realtime"
	"github.com/noah-isme/student-console/internal/repository"
	"github.com/noah-isme/student-console/internal/service"
	"github.com/noah-isme/student-console/internal/viewmodel"
	"github.com/noah-isme/student-console/pkg/cache"
	"github.com/noah-isme/student-console/pkg/config"
	"github.com/noah-isme/student-console/pkg/logger"
	"github.com/noah-isme/student-console/pkg/storage"
)

// @title Student Console API
// @version 1.0.0
// @description Console for generating, converting, uploading and reporting student records.
// @BasePath /api/console
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	checks := map[string]handler.Pinger{}

	var cacheClient redis.UniversalClient
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, class cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheClient = redisClient
			checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			})
		}
	}
	cacheRepo := repository.NewCacheRepository(cacheClient)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.ClassesTTL, logr, cacheClient != nil)

	api := client.New(client.Config{BaseURL: cfg.Backend.BaseURL, Timeout: cfg.Backend.Timeout}, metrics, logr)
	classes := service.NewClassCatalog(api, cacheSvc, cfg.Cache.ClassesTTL, logr)

	store, err := storage.NewLocalStorage(cfg.Downloads.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare download storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Downloads.SignedURLSecret, cfg.Downloads.TTL)
	downloads := service.NewDownloadService(store, signer, service.DownloadConfig{
		URLPrefix: cfg.APIPrefix,
		TTL:       cfg.Downloads.TTL,
	}, metrics, logr)
	go downloads.Run(ctx, cfg.Downloads.CleanupInterval)

	hub := realtime.NewHub(logr)
	validate := validator.New()
	console := viewmodel.NewConsole(api, classes, validate, viewmodel.Options{
		DefaultRecordCount: cfg.Generate.DefaultRecordCount,
		PageSize:           cfg.Report.PageSize,
		SortBy:             cfg.Report.SortBy,
		SortOrder:          cfg.Report.SortOrder,
	}, hub, logr)

	initCtx, cancelInit := context.WithTimeout(ctx, cfg.Backend.Timeout)
	if err := console.Init(initCtx); err != nil {
		logr.Warn("initial load incomplete", zap.Error(err))
	}
	cancelInit()

	r := newRouter(cfg, logr, routerDeps{
		console:   console,
		downloads: downloads,
		hub:       hub,
		metrics:   metrics,
		checks:    checks,
		validate:  validate,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("backend", api.BaseURL()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	if _, err := downloads.Cleanup(); err != nil {
		logr.Warn("final download cleanup failed", zap.Error(err))
	}
}
