package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edusys-dev/campus-core-api/api/swagger"
	"github.com/edusys-dev/campus-core-api/internal/handler"
	"github.com/edusys-dev/campus-core-api/internal/middleware"
	"github.com/edusys-dev/campus-core-api/internal/models"
	"github.com/edusys-dev/campus-core-api/internal/repository"
	"github.com/edusys-dev/campus-core-api/internal/service"
	"github.com/edusys-dev/campus-core-api/pkg/cache"
	"github.com/edusys-dev/campus-core-api/pkg/config"
	"github.com/edusys-dev/campus-core-api/pkg/database"
	"github.com/edusys-dev/campus-core-api/pkg/export"
	"github.com/edusys-dev/campus-core-api/pkg/jobs"
	"github.com/edusys-dev/campus-core-api/pkg/logger"
	corsmiddleware "github.com/edusys-dev/campus-core-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edusys-dev/campus-core-api/pkg/middleware/requestid"
	"github.com/edusys-dev/campus-core-api/pkg/storage"
)

// @title Campus Core API
// @version 1.0.0
// @description Multi-tenant school management core: grade evaluation, tuition billing, payroll and library loans
// @BasePath /api/v1
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
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	scoreRepo := repository.NewAssessmentScoreRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	payrollRepo := repository.NewPayrollRepository(db)
	financeRepo := repository.NewFinanceRepository(db)
	libraryRepo := repository.NewLibraryRepository(db)
	statementRepo := repository.NewStatementRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	pdfExporter := export.NewPDFExporter()
	metricsSvc := service.NewMetricsService()

	// Services
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "campus-core-api",
	})
	gradingDefaults := models.SubjectPolicy{
		WaiverGrade:        cfg.Grading.DefaultWaiverGrade,
		ExclusionGrade:     cfg.Grading.DefaultExclusionGrade,
		ExamWaiverPossible: true,
	}
	evaluationSvc := service.NewEvaluationService(scoreRepo, subjectRepo, enrollmentRepo, gradingDefaults, validate, logr, metricsSvc)
	billingSvc := service.NewBillingService(invoiceRepo, enrollmentRepo, courseRepo, financeRepo, cacheRepo, pdfExporter, validate, logr, metricsSvc)
	payrollSvc := service.NewPayrollService(payrollRepo, employeeRepo, financeRepo, cacheRepo, validate, logr, metricsSvc)
	librarySvc := service.NewLibraryService(libraryRepo, libraryRepo, validate, logr, metricsSvc)
	financeSvc := service.NewFinanceService(financeRepo, cacheRepo, cfg.Billing.SummaryCacheTTL, logr, metricsSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var statementSvc *service.StatementService
	if cfg.Statements.Enabled {
		store, err := storage.NewLocalStorage(cfg.Statements.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init statement storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Statements.SignedURLSecret, cfg.Statements.SignedURLTTL)
		statementSvc = service.NewStatementService(statementRepo, financeRepo, pdfExporter, store, signer, logr, jobs.QueueConfig{
			Workers:    cfg.Statements.WorkerConcurrency,
			MaxRetries: cfg.Statements.WorkerRetries,
		})
		statementSvc.Start(ctx)
		defer statementSvc.Stop()
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	evaluationHandler := handler.NewEvaluationHandler(evaluationSvc)
	billingHandler := handler.NewBillingHandler(billingSvc)
	payrollHandler := handler.NewPayrollHandler(payrollSvc)
	libraryHandler := handler.NewLibraryHandler(librarySvc)
	financeHandler := handler.NewFinanceHandler(financeSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher)
	finance := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleFinance)

	protected.PUT("/scores", staff, evaluationHandler.UpsertScore)
	protected.GET("/enrollments/:id/evaluation", evaluationHandler.Evaluate)

	protected.GET("/invoices", finance, billingHandler.List)
	protected.POST("/invoices/generate", finance, billingHandler.Generate)
	protected.POST("/invoices/:id/pay", finance, billingHandler.Pay)
	protected.GET("/invoices/:id/receipt", finance, billingHandler.Receipt)

	protected.GET("/payroll", finance, payrollHandler.List)
	protected.POST("/payroll/generate", finance, payrollHandler.Generate)
	protected.POST("/payroll/:id/pay", finance, payrollHandler.Pay)

	protected.POST("/loans", libraryHandler.Borrow)
	protected.POST("/loans/:id/return", libraryHandler.Return)

	protected.GET("/accounts", finance, financeHandler.ListAccounts)
	protected.GET("/transactions", finance, financeHandler.ListTransactions)
	protected.GET("/transactions/export", finance, financeHandler.ExportTransactions)
	protected.GET("/finance/summary", finance, financeHandler.Summary)

	if statementSvc != nil {
		statementHandler := handler.NewStatementHandler(statementSvc)
		protected.POST("/statements", finance, statementHandler.Request)
		protected.GET("/statements/:id", finance, statementHandler.Get)
		protected.POST("/statements/:id/download-token", finance, statementHandler.DownloadToken)
		api.GET("/statements/download", statementHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
