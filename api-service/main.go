package main

import (
	"log"
	"net/http"
	"time"

	"ashasetu-backend/api-service/handlers"
	"ashasetu-backend/api-service/middleware"
	"ashasetu-backend/api-service/services"
	"ashasetu-backend/shared/config"
	"ashasetu-backend/shared/database"
	"ashasetu-backend/shared/utils/cache"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	// Load configuration
	config.LoadConfig()
	cfg := config.GetConfig()

	// Initialize database
	db, err := database.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase(db)

	// Seed admin account when configured
	if err := database.SeedAdminUser(db, cfg); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	// Optional infrastructure
	cacheManager, err := cache.InitCacheManager(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Redis cache: %v", err)
	}
	defer cacheManager.Close()

	storage, err := services.NewStorageService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// Realtime notifications
	hub := services.NewWebSocketHub(cfg)
	notifier := services.NewNotifier(db, hub)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, storage)
	bloodRequestHandler := handlers.NewBloodRequestHandler(db, cacheManager)
	donationHandler := handlers.NewDonationHandler(db, cacheManager, notifier)
	notificationHandler := handlers.NewNotificationHandler(db, hub)

	// Initialize rate limiter
	rateLimiterCleanupTime := 30 * time.Minute
	rateLimiter := middleware.NewRateLimiter(rateLimiterCleanupTime)

	loginConfig := middleware.RateLimitConfig{
		MaxRequests:   cfg.GetLoginRateLimitMaxAttempts(),
		TimeWindow:    time.Duration(cfg.GetLoginRateLimitWindowSeconds()) * time.Second,
		BlockDuration: time.Duration(cfg.GetLoginRateLimitBlockMinutes()) * time.Minute,
	}

	registerConfig := middleware.RateLimitConfig{
		MaxRequests:   cfg.GetRegisterRateLimitMaxAttempts(),
		TimeWindow:    time.Duration(cfg.GetRegisterRateLimitWindowHours()) * time.Hour,
		BlockDuration: time.Duration(cfg.GetRegisterRateLimitBlockHours()) * time.Hour,
	}

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendURL}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")

	// Auth endpoints
	api.POST("/auth/register", rateLimiter.RegistrationRateLimitMiddleware(registerConfig), authHandler.Register)
	api.POST("/auth/login", rateLimiter.LoginRateLimitMiddleware(loginConfig), authHandler.Login)
	api.GET("/auth/profile", middleware.AuthMiddleware(), authHandler.GetProfile)
	api.PUT("/auth/profile", middleware.AuthMiddleware(), authHandler.UpdateProfile)
	api.PUT("/auth/change-password", middleware.AuthMiddleware(), authHandler.ChangePassword)
	api.POST("/auth/profile/picture", middleware.AuthMiddleware(), authHandler.UploadProfilePicture)

	// Blood request endpoints
	api.POST("/blood/request", middleware.AuthMiddleware(), bloodRequestHandler.Create)
	api.GET("/blood/requests", middleware.AuthMiddleware(), bloodRequestHandler.List)
	api.GET("/blood/my-requests", middleware.AuthMiddleware(), bloodRequestHandler.ListMine)
	api.GET("/blood/request/:id", middleware.AuthMiddleware(), bloodRequestHandler.GetByID)
	api.PUT("/blood/request/:id", middleware.AuthMiddleware(), bloodRequestHandler.Update)
	api.DELETE("/blood/request/:id", middleware.AuthMiddleware(), bloodRequestHandler.Delete)

	// Donation response endpoints
	api.POST("/blood/respond", middleware.AuthMiddleware(), donationHandler.Respond)
	api.GET("/blood/my-responses", middleware.AuthMiddleware(), donationHandler.ListMine)
	api.GET("/blood/respond/:requestId", middleware.AuthMiddleware(), donationHandler.ListForRequest)
	api.PUT("/blood/respond/:donationId", middleware.AuthMiddleware(), donationHandler.UpdateStatus)
	api.DELETE("/blood/respond/:donationId", middleware.AuthMiddleware(), donationHandler.Delete)

	// Notification endpoints
	api.GET("/notifications", middleware.AuthMiddleware(), notificationHandler.List)
	api.PUT("/notifications/:id/read", middleware.AuthMiddleware(), notificationHandler.MarkRead)
	api.GET("/ws/notifications", middleware.AuthMiddleware(), notificationHandler.Stream)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "ashasetu",
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	log.Printf("AshaSetu API starting on port %s...", cfg.ServerPort)
	router.Run(":" + cfg.ServerPort)
}
