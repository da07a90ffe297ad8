// Package main runs the Kinderbasar HTTP API with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kinderbasar/backend/config"
	"github.com/kinderbasar/backend/internal/articles"
	"github.com/kinderbasar/backend/internal/auth"
	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/billings"
	"github.com/kinderbasar/backend/internal/events"
	"github.com/kinderbasar/backend/internal/labels"
	"github.com/kinderbasar/backend/internal/mailer"
	"github.com/kinderbasar/backend/internal/middleware"
	"github.com/kinderbasar/backend/internal/outbox"
	"github.com/kinderbasar/backend/internal/plannings"
	"github.com/kinderbasar/backend/internal/registrations"
	"github.com/kinderbasar/backend/internal/sellers"
	"github.com/kinderbasar/backend/internal/worker"
	"github.com/kinderbasar/backend/pkg/database"
	"github.com/kinderbasar/backend/pkg/queue"
	"github.com/kinderbasar/backend/pkg/redis"
	"github.com/kinderbasar/backend/pkg/response"
	"github.com/kinderbasar/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var (
		exportJobs labels.Enqueuer
		presigner  labels.Presigner
	)
	if cfg.AWS.Enabled() {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			Endpoint:             cfg.AWS.Endpoint,
			LabelsBucket:         cfg.AWS.LabelsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			exportJobs = queue.NewQueue(rdb.Client, logger)
			presigner = s3Client
		}
	}

	if err := events.RegisterValidators(); err != nil {
		logger.Fatal("validators", zap.Error(err))
	}

	loc := cfg.Bazaar.Location()
	composer, err := mailer.NewComposer(cfg.Bazaar.PublicURL, cfg.Bazaar.Organizer, loc)
	if err != nil {
		logger.Fatal("mail templates", zap.Error(err))
	}
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours, cfg.JWT.Issuer)

	// Events and sellers
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, logger)
	sellerRepo := sellers.NewRepository(pool)
	sellerHandler := sellers.NewHandler(sellerRepo, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, composer, sellerRepo, cfg.JWT.Issuer, cfg.Bazaar.TokenHours, logger)

	// Registrations
	registrationRepo := registrations.NewRepository(pool, composer)
	registrationHandler := registrations.NewHandler(registrationRepo, logger)

	// Articles, labels, checkout
	articleRepo := articles.NewRepository(pool)
	articleHandler := articles.NewHandler(articleRepo, sellerRepo, logger)
	labelRepo := labels.NewRepository(pool, loc)
	labelHandler := labels.NewHandler(labelRepo, sellerRepo, exportJobs, presigner, logger)
	billingRepo := billings.NewRepository(pool)
	billingHandler := billings.NewHandler(billingRepo, logger)

	// Helper planning
	planningRepo := plannings.NewRepository(pool)
	planningHandler := plannings.NewHandler(planningRepo, logger)

	// Outbox
	outboxRepo := outbox.NewRepository(pool)
	outboxHandler := outbox.NewHandler(outboxRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/password/forgot", authHandler.ForgotPassword)
		authGroup.POST("/password/reset", authHandler.ResetPassword)
		authGroup.POST("/email/confirm", authHandler.ConfirmEmailChange)
	}

	// Public: phase view and seller registration
	router.GET("/events/:id/phase", eventHandler.Phase)
	router.POST("/events/:id/registrations", registrationHandler.Register)

	staff := middleware.RequireStaff()
	admin := middleware.RequireRole(bazaar.UserRoleAdmin)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Account
		api.GET("/auth/me", authHandler.Me)
		api.POST("/account/totp/setup", authHandler.SetupTOTP)
		api.POST("/account/totp/enable", authHandler.EnableTOTP)
		api.POST("/account/totp/disable", authHandler.DisableTOTP)
		api.POST("/account/email", authHandler.RequestEmailChange)

		// Users (admin only)
		api.GET("/users", admin, authHandler.List)
		api.PUT("/users/:id/role", admin, authHandler.SetRole)

		// Events
		api.GET("/events", eventHandler.List)
		api.GET("/events/:id", eventHandler.GetByID)
		api.POST("/events", staff, eventHandler.Create)
		api.PUT("/events/:id", staff, eventHandler.Update)
		api.DELETE("/events/:id", staff, eventHandler.Delete)
		api.GET("/events/:id/statistics", staff, eventHandler.Statistics)

		// Registrations (manager)
		api.GET("/events/:id/registrations", staff, registrationHandler.List)
		api.POST("/events/:id/registrations/manual", staff, registrationHandler.Add)
		api.GET("/registrations/:id", staff, registrationHandler.Get)
		api.POST("/registrations/:id/accept", staff, registrationHandler.Accept)
		api.POST("/registrations/:id/deny", staff, registrationHandler.Deny)
		api.DELETE("/registrations/:id", staff, registrationHandler.Delete)

		// Sellers
		api.GET("/events/:id/sellers", staff, sellerHandler.ListByEvent)
		api.GET("/events/:id/sellers/me", sellerHandler.Mine)
		api.GET("/events/:id/settlement", staff, sellerHandler.EventSettlement)
		api.GET("/sellers/me", sellerHandler.ListMine)
		api.GET("/sellers/:id", sellerHandler.Get)
		api.PUT("/sellers/:id", staff, sellerHandler.Update)
		api.GET("/sellers/:id/settlement", sellerHandler.Settlement)

		// Articles
		api.GET("/sellers/:id/articles", articleHandler.ListBySeller)
		api.POST("/sellers/:id/articles", articleHandler.Create)
		api.GET("/articles/:id", articleHandler.Get)
		api.PUT("/articles/:id", articleHandler.Update)
		api.DELETE("/articles/:id", articleHandler.Delete)
		api.GET("/events/:id/articles/lookup", articleHandler.Lookup)

		// Labels
		api.GET("/sellers/:id/labels", labelHandler.Sheet)
		api.POST("/sellers/:id/labels/exports", labelHandler.Export)
		api.GET("/labels/exports/:id", labelHandler.GetExport)

		// Checkout
		api.POST("/events/:id/billings", billingHandler.Create)
		api.GET("/events/:id/billings", billingHandler.List)
		api.GET("/billings/:id", billingHandler.Get)
		api.POST("/billings/:id/articles", billingHandler.Book)
		api.DELETE("/billings/:id/articles/:article_id", billingHandler.RemoveArticle)
		api.POST("/billings/:id/complete", billingHandler.Complete)
		api.POST("/billings/:id/cancel", billingHandler.Cancel)
		api.DELETE("/billings/:id", staff, billingHandler.Delete)

		// Helper planning
		api.GET("/events/:id/plannings", planningHandler.ListByEvent)
		api.POST("/events/:id/plannings", staff, planningHandler.Create)
		api.GET("/plannings/:id", planningHandler.Get)
		api.PUT("/plannings/:id", staff, planningHandler.Update)
		api.DELETE("/plannings/:id", staff, planningHandler.Delete)
		api.POST("/plannings/:id/helpers", planningHandler.Assign)
		api.DELETE("/plannings/:id/helpers/:helper_id", planningHandler.Unassign)

		// Outbox (admin only)
		api.GET("/emails", admin, outboxHandler.List)
		api.POST("/emails/:id/resend", admin, outboxHandler.Resend)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Outbox dispatcher (mail sending); disable when cmd/worker runs it
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cfg.Email.InProcess {
		sender := mailer.NewSMTPSender(smtpConfig(cfg.Email), logger)
		dispatcher := worker.NewDispatcher(outboxRepo, sender, rdb.Locker(), cfg.Email.PollInterval, cfg.Email.BatchSize, logger)
		go dispatcher.Run(workerCtx)
		logger.Info("outbox dispatcher started", zap.Duration("interval", cfg.Email.PollInterval))
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func smtpConfig(c config.EmailConfig) mailer.SMTPConfig {
	return mailer.SMTPConfig{
		Host:        c.SMTPHost,
		Port:        c.SMTPPort,
		Username:    c.SMTPUser,
		Password:    c.SMTPPass,
		FromAddress: c.FromAddress,
		FromName:    c.FromName,
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
