package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/maxcyking/ngo-library-sub001/internal/config"
	"github.com/maxcyking/ngo-library-sub001/internal/database"
	"github.com/maxcyking/ngo-library-sub001/internal/database/memstore"
	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
	"github.com/maxcyking/ngo-library-sub001/internal/handlers"
	"github.com/maxcyking/ngo-library-sub001/internal/metrics"
	"github.com/maxcyking/ngo-library-sub001/internal/middleware"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
	"github.com/maxcyking/ngo-library-sub001/internal/services"
	"github.com/maxcyking/ngo-library-sub001/internal/storage"
)

const version = "1.0.0"

// dataStore is satisfied by both the postgres store and the in-memory store.
type dataStore interface {
	services.BookQuerier
	services.TransactionQuerier
	services.MemberQuerier
	services.EventQuerier
	services.RegistrationQuerier
	services.UserQuerier
	services.ReportQuerier
}

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	ctx := context.Background()
	healthHandler := handlers.NewHealthHandler(version)

	// Initialize persistence
	var store dataStore
	switch cfg.Database.Driver {
	case "memory":
		slog.Warn("Using in-memory database; data is lost on restart")
		store = memstore.New()
	default:
		db, err := database.New(cfg)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if cfg.Database.Migrate {
			if err := database.Migrate(ctx, db.Pool); err != nil {
				slog.Error("Failed to apply migrations", "error", err)
				os.Exit(1)
			}
		}
		store = queries.NewStore(db.Pool)
		healthHandler.AddCheck("database", db)
	}

	// Initialize Redis connection. The server runs without it, losing
	// rate limits, token revocation and the persistent failure log.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		rdb, err := database.NewRedis(cfg)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		redisClient = rdb.Client
		healthHandler.AddCheck("redis", rdb)
	} else {
		slog.Warn("Redis disabled; rate limiting and logout revocation are off")
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		slog.Error("Failed to open object storage", "error", err, "driver", cfg.Storage.Driver)
		os.Exit(1)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	// Initialize services
	authService, err := services.NewAuthService(
		store,
		cfg.JWT.PrivateKey,
		time.Duration(cfg.JWT.ExpiryHours)*time.Hour,
		logger,
		redisClient,
	)
	if err != nil {
		slog.Error("Failed to initialize auth service", "error", err)
		os.Exit(1)
	}
	if cfg.JWT.PrivateKey == "" {
		slog.Warn("No JWT private key configured; tokens will not survive a restart")
	}
	userService := services.NewUserService(store, authService, logger)
	if err := bootstrapAdmin(ctx, userService, cfg.Bootstrap); err != nil {
		slog.Error("Failed to create bootstrap admin", "error", err)
		os.Exit(1)
	}

	emailService := services.NewEmailService(cfg.Email, logger)
	var mailer services.Mailer
	if emailService.Configured() {
		mailer = emailService
	} else {
		slog.Warn("SMTP is not configured; notifications are disabled")
	}
	notificationService := services.NewNotificationService(mailer, cfg.Email.AdminEmail, redisClient, logger)
	notificationService.SetMetrics(appMetrics)
	defer notificationService.Wait()

	bookService := services.NewBookService(store)
	memberService := services.NewMemberService(store)

	transactionService := services.NewTransactionService(store, services.LendingPolicy{
		LoanDays:       cfg.Lending.LoanDays,
		FinePerDay:     decimal.NewFromFloat(cfg.Lending.FinePerDay),
		MaxActiveLoans: cfg.Lending.MaxActiveLoans,
		MaxRenewals:    cfg.Lending.MaxRenewals,
	}, logger)
	transactionService.SetNotifier(notificationService)
	transactionService.SetMetrics(appMetrics)

	eventService := services.NewEventService(store, logger)
	registrationService := services.NewRegistrationService(store, logger)
	registrationService.SetNotifier(notificationService)
	registrationService.SetMetrics(appMetrics)

	reportService := services.NewReportService(store)

	uploadService := services.NewUploadService(objects, bookService, eventService, logger)
	uploadService.SetLimits(cfg.Server.MaxUploadBytes, 0)

	// Initialize Gin router
	r := gin.New()

	// Add global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics(appMetrics))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins...))
	r.Use(middleware.SecurityHeaders())

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)
	auditLogger := middleware.NewAuditLogger(logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	bookHandler := handlers.NewBookHandler(bookService)
	memberHandler := handlers.NewMemberHandler(memberService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	eventHandler := handlers.NewEventHandler(eventService)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	uploadHandler := handlers.NewUploadHandler(uploadService, cfg.Server.MaxUploadBytes)
	reportHandler := handlers.NewReportHandler(reportService, transactionService)
	notificationHandler := handlers.NewNotificationHandler(emailService, notificationService)

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	// Uploaded images are served directly when stored on local disk
	if fs, ok := objects.(*storage.Filesystem); ok {
		r.Static("/uploads", fs.Root())
	}

	v1 := r.Group("/api/v1")
	v1.GET("/ping", healthHandler.Ping)

	// Authentication routes with rate limiting
	auth := v1.Group("/auth")
	{
		auth.POST("/login", rateLimiter.AuthLimit(), authHandler.Login)

		session := auth.Group("", authMiddleware.RequireAuth())
		session.POST("/logout", authHandler.Logout)
		session.GET("/profile", authHandler.GetProfile)
		session.POST("/change-password", authHandler.ChangePassword)
	}

	// Public site
	public := v1.Group("/public")
	public.Use(rateLimiter.APILimit())
	{
		public.GET("/books", bookHandler.SearchBooks)
		public.GET("/books/:id", bookHandler.GetBook)

		public.GET("/events", eventHandler.ListPublicEvents)
		public.GET("/events/:id", eventHandler.GetPublicEvent)
		public.POST("/events/:id/register", rateLimiter.RegistrationLimit(), registrationHandler.Register)
		public.GET("/registrations/:code", registrationHandler.GetByCode)
	}

	// Admin API (admin or librarian)
	admin := v1.Group("/admin")
	admin.Use(authMiddleware.RequireAuth())
	admin.Use(authMiddleware.RequireAdmin())
	admin.Use(middleware.NoCache())
	admin.Use(middleware.AuditMiddleware(auditLogger))
	{
		books := admin.Group("/books")
		{
			books.POST("", bookHandler.CreateBook)
			books.GET("", bookHandler.SearchBooks)
			books.GET("/stats", bookHandler.GetBookStats)
			books.GET("/:id", bookHandler.GetBook)
			books.PUT("/:id", bookHandler.UpdateBook)
			books.DELETE("/:id", bookHandler.DeleteBook)

			// File upload routes
			books.POST("/:id/cover", uploadHandler.UploadBookCover)
			books.DELETE("/:id/cover", uploadHandler.DeleteBookCover)
		}

		members := admin.Group("/members")
		{
			members.POST("", memberHandler.CreateMember)
			members.GET("", memberHandler.ListMembers)
			members.GET("/:id", memberHandler.GetMember)
			members.PUT("/:id", memberHandler.UpdateMember)
			members.DELETE("/:id", memberHandler.DeactivateMember)
			members.GET("/:id/transactions", transactionHandler.GetMemberHistory)
		}

		transactions := admin.Group("/transactions")
		{
			transactions.GET("", transactionHandler.ListTransactions)
			transactions.GET("/overdue", transactionHandler.ListOverdue)
			transactions.POST("/issue", transactionHandler.IssueBook)
			transactions.GET("/:id", transactionHandler.GetTransaction)
			transactions.POST("/:id/return", transactionHandler.ReturnBook)
			transactions.POST("/:id/renew", transactionHandler.RenewBook)
			transactions.POST("/:id/pay-fine", transactionHandler.PayFine)
		}

		events := admin.Group("/events")
		{
			events.POST("", eventHandler.CreateEvent)
			events.GET("", eventHandler.ListEvents)
			events.GET("/:id", eventHandler.GetEvent)
			events.PUT("/:id", eventHandler.UpdateEvent)
			events.DELETE("/:id", eventHandler.DeleteEvent)
			events.POST("/:id/image", uploadHandler.UploadEventImage)
			events.DELETE("/:id/image", uploadHandler.DeleteEventImage)
			events.GET("/:id/registrations", registrationHandler.ListRegistrations)
		}

		admin.GET("/registrations/:id", registrationHandler.GetRegistration)
		admin.PUT("/registrations/:id/status", registrationHandler.UpdateStatus)

		admin.POST("/gallery", uploadHandler.UploadGalleryImage)

		reportHandler.RegisterRoutes(admin)

		admin.POST("/settings/email/test", notificationHandler.TestEmail)
		admin.GET("/notifications/failed", notificationHandler.ListFailed)

		users := admin.Group("/users", authMiddleware.RequireSuperAdmin())
		{
			users.GET("", authHandler.ListUsers)
			users.POST("", authHandler.CreateUser)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server",
			"port", port,
			"mode", cfg.Server.Mode,
			"database", cfg.Database.Driver,
			"storage", cfg.Storage.Driver,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return
	}

	slog.Info("Server exited")
}

// bootstrapAdmin creates the configured admin account unless it already exists.
func bootstrapAdmin(ctx context.Context, users *services.UserService, cfg config.BootstrapConfig) error {
	if cfg.AdminPassword == "" {
		return nil
	}
	email := cfg.AdminEmail
	if email == "" {
		email = cfg.AdminUsername + "@localhost.localdomain"
	}

	user, err := users.CreateUser(ctx, models.CreateUserRequest{
		Username: cfg.AdminUsername,
		Email:    email,
		Password: cfg.AdminPassword,
		Role:     models.RoleAdmin,
	})
	if errors.Is(err, services.ErrConflict) {
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("Bootstrap admin created", "user_id", user.ID, "username", user.Username)
	return nil
}
