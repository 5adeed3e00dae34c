package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/handler"
	"github.com/noah-isme/student-console/internal/middleware"
	"github.com/noah-isme/student-console/internal/realtime"
	"github.com/noah-isme/student-console/internal/service"
	"github.com/noah-isme/student-console/internal/viewmodel"
	"github.com/noah-isme/student-console/pkg/config"
	"github.com/noah-isme/student-console/pkg/logger"
	corsmiddleware "github.com/noah-isme/student-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/student-console/pkg/middleware/requestid"
)

type routerDeps struct {
	console   *viewmodel.Console
	downloads *service.DownloadService
	hub       *realtime.Hub
	metrics   *service.MetricsService
	checks    map[string]handler.Pinger
	validate  *validator.Validate
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	metricsHandler := handler.NewMetricsHandler(deps.metrics, deps.checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	consoleHandler := handler.NewConsoleHandler(deps.console, cfg.Uploads.MaxFileSizeBytes)
	reportHandler := handler.NewReportHandler(deps.console, deps.downloads, deps.validate)
	wsHandler := handler.NewWSHandler(deps.hub, cfg.CORS.AllowedOrigins, logr)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	{
		api.GET("/state", consoleHandler.State)
		api.POST("/init", consoleHandler.Init)
		api.POST("/generate", consoleHandler.Generate)
		api.POST("/process", consoleHandler.Process)
		api.POST("/upload", consoleHandler.Upload)
		api.DELETE("/students", consoleHandler.ClearStudents)
		api.GET("/students/count", consoleHandler.StudentCount)

		report := api.Group("/report")
		report.GET("", reportHandler.Get)
		report.POST("/search", reportHandler.Search)
		report.POST("/clear-filters", reportHandler.ClearFilters)
		report.POST("/pages/:page", reportHandler.GoToPage)
		report.POST("/next", reportHandler.NextPage)
		report.POST("/previous", reportHandler.PreviousPage)
		report.GET("/classes", reportHandler.Classes)
		report.POST("/export/:format", reportHandler.Export)

		api.GET("/downloads/:token", reportHandler.Download)
		api.GET("/ws", wsHandler.Stream)
	}

	return r
}
