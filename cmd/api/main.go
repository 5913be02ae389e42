package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/ideation-portal-api/api/swagger"
	"github.com/noah-isme/ideation-portal-api/internal/handler"
	"github.com/noah-isme/ideation-portal-api/internal/middleware"
	"github.com/noah-isme/ideation-portal-api/internal/models"
	"github.com/noah-isme/ideation-portal-api/internal/repository"
	"github.com/noah-isme/ideation-portal-api/internal/service"
	"github.com/noah-isme/ideation-portal-api/pkg/cache"
	"github.com/noah-isme/ideation-portal-api/pkg/config"
	"github.com/noah-isme/ideation-portal-api/pkg/database"
	"github.com/noah-isme/ideation-portal-api/pkg/jobs"
	"github.com/noah-isme/ideation-portal-api/pkg/logger"
	"github.com/noah-isme/ideation-portal-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/ideation-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ideation-portal-api/pkg/middleware/requestid"
	"github.com/noah-isme/ideation-portal-api/pkg/scanner"
	"github.com/noah-isme/ideation-portal-api/pkg/storage"
)

// @title Ideation Portal API
// @version 1.0.0
// @description Idea submission portal: campaigns, ideas, contributors, and scanned document uploads
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, scan status cache disabled", "error", err)
		redisClient = nil
	}

	fileStorage, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	clam := scanner.NewClient(cfg.Scan.Address, cfg.Scan.Timeout)

	userRepo := repository.NewUserRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	ideaRepo := repository.NewIdeaRepository(db)
	contributorRepo := repository.NewContributorRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	campaignSvc := service.NewCampaignService(campaignRepo, logr)

	mailWorker := service.NewMailWorker(userRepo, ideaRepo, campaignRepo, mailer.New(cfg.Mailer), logr)
	notifyQueue := jobs.NewQueue("notifications", mailWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Notify.Workers,
		MaxRetries: cfg.Notify.MaxRetries,
		RetryDelay: cfg.Notify.RetryDelay,
		Logger:     logr,
	})
	notifySvc := service.NewNotificationService(notifyQueue, logr)

	scanWorker := service.NewScanWorker(documentRepo, fileStorage, clam, redisClient, metricsSvc, logr)
	scanQueue := jobs.NewQueue("virus-scans", scanWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Scan.Workers,
		MaxRetries: cfg.Scan.MaxRetries,
		RetryDelay: cfg.Scan.RetryBaseDelay,
		Logger:     logr,
	})

	ideaSvc := service.NewIdeaService(ideaRepo, contributorRepo, campaignRepo, userRepo, documentRepo, notifySvc, logr)
	documentSvc := service.NewDocumentService(documentRepo, ideaRepo, fileStorage, signer, scanQueue, redisClient, metricsSvc, logr, service.DocumentServiceConfig{
		MaxFileSize:       cfg.Uploads.MaxFileSizeBytes,
		AllowedExtensions: cfg.Uploads.AllowedExtensions,
		RetentionWindow:   cfg.Uploads.RetentionWindow,
		SweepInterval:     cfg.Uploads.SweepInterval,
		ScanStatusTTL:     cfg.Scan.ScanStatusTTL,
		APIPrefix:         cfg.APIPrefix,
	})

	notifyQueue.Start(ctx)
	defer notifyQueue.Stop()
	scanQueue.Start(ctx)
	defer scanQueue.Stop()
	documentSvc.StartRetentionSweep(ctx)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	campaignHandler := handler.NewCampaignHandler(campaignSvc)
	ideaHandler := handler.NewIdeaHandler(ideaSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/documents/download", documentHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/campaigns", campaignHandler.List)
	authed.GET("/campaigns/:id", campaignHandler.Get)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	authed.POST("/campaigns", adminOnly, campaignHandler.Create)
	authed.PATCH("/campaigns/:id", adminOnly, campaignHandler.Update)

	authed.POST("/ideas", ideaHandler.Create)
	authed.GET("/ideas", ideaHandler.List)
	authed.GET("/ideas/mine", ideaHandler.MyIdeas)
	authed.GET("/ideas/:id", ideaHandler.Get)
	authed.PATCH("/ideas/:id", ideaHandler.Update)
	authed.POST("/ideas/:id/submit", ideaHandler.Submit)
	authed.GET("/ideas/:id/contributors", ideaHandler.ListContributors)
	authed.POST("/ideas/:id/contributors", ideaHandler.AddContributor)

	authed.POST("/ideas/:id/documents", documentHandler.Upload)
	authed.GET("/ideas/:id/documents", documentHandler.List)
	authed.GET("/documents/:id/scan-status", documentHandler.ScanStatus)
	authed.GET("/documents/:id/download-url", documentHandler.DownloadURL)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
