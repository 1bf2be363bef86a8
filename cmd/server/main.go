package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/openreviews/review-square/internal/config"
	"github.com/openreviews/review-square/internal/database"
	"github.com/openreviews/review-square/internal/handler"
	"github.com/openreviews/review-square/internal/middleware"
	"github.com/openreviews/review-square/internal/notify"
	"github.com/openreviews/review-square/internal/outbox"
	"github.com/openreviews/review-square/internal/repository"
	"github.com/openreviews/review-square/internal/service"
	"github.com/openreviews/review-square/pkg/logger"
)

func main() {
	cfg := config.Load()
	log.Println("Config loaded successfully")

	if err := logger.Init(cfg.Environment != "production"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	database.Connect(cfg)
	database.Migrate()

	// Confirmation mail collaborator: local outbox in development,
	// Redis channel in production
	sender, err := buildSender(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize mail sender: %v", err)
	}
	defer sender.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(database.DB)
	categoryRepo := repository.NewCategoryRepository(database.DB)
	genreRepo := repository.NewGenreRepository(database.DB)
	titleRepo := repository.NewTitleRepository(database.DB)
	reviewRepo := repository.NewReviewRepository(database.DB)

	// Initialize services
	authService := service.NewAuthService(userRepo, sender, cfg.JWTSecret, cfg.JWTExpiry, cfg.Limits)
	userService := service.NewUserService(userRepo, cfg.Limits)
	contentService := service.NewContentService(categoryRepo, genreRepo, titleRepo, cfg.Limits)
	reviewService := service.NewReviewService(reviewRepo, titleRepo, cfg.Limits)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService, cfg.Limits)
	contentHandler := handler.NewContentHandler(contentService, cfg.Limits)
	titleHandler := handler.NewTitleHandler(contentService, cfg.Limits)
	reviewHandler := handler.NewReviewHandler(reviewService, cfg.Limits)
	commentHandler := handler.NewCommentHandler(reviewService, cfg.Limits)

	// Rate limiting on the auth endpoints
	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	rateLimiter := middleware.NewRateLimiter(redis.NewClient(redisOpt), middleware.RateLimiterConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
		BlockTime:   cfg.RateLimitBlockTime,
	})

	// Setup Gin router
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.HSTSMiddleware(cfg.Environment == "production"))

	api := router.Group("/api/v1")

	authGroup := api.Group("/auth", rateLimiter.Middleware())
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/token", authHandler.Token)

	// Admin-gated user administration plus the self-scoped /me pair
	users := api.Group("/users", middleware.RequireAuth(cfg.JWTSecret, userRepo))
	users.GET("/me", userHandler.Me)
	users.PATCH("/me", userHandler.UpdateMe)
	adminUsers := users.Group("", middleware.RequireAdmin())
	adminUsers.GET("", userHandler.List)
	adminUsers.POST("", userHandler.Create)
	adminUsers.GET("/:username", userHandler.Get)
	adminUsers.PATCH("/:username", userHandler.Update)
	adminUsers.DELETE("/:username", userHandler.Delete)

	// Content: open reads, policy-gated writes; the services decide
	content := api.Group("", middleware.OptionalAuth(cfg.JWTSecret, userRepo))
	content.GET("/categories", contentHandler.ListCategories)
	content.POST("/categories", contentHandler.CreateCategory)
	content.DELETE("/categories/:slug", contentHandler.DeleteCategory)

	content.GET("/genres", contentHandler.ListGenres)
	content.POST("/genres", contentHandler.CreateGenre)
	content.DELETE("/genres/:slug", contentHandler.DeleteGenre)

	content.GET("/titles", titleHandler.List)
	content.POST("/titles", titleHandler.Create)
	content.GET("/titles/:title_id", titleHandler.Get)
	content.PATCH("/titles/:title_id", titleHandler.Update)
	content.DELETE("/titles/:title_id", titleHandler.Delete)

	content.GET("/titles/:title_id/reviews", reviewHandler.List)
	content.POST("/titles/:title_id/reviews", reviewHandler.Create)
	content.GET("/titles/:title_id/reviews/:review_id", reviewHandler.Get)
	content.PATCH("/titles/:title_id/reviews/:review_id", reviewHandler.Update)
	content.DELETE("/titles/:title_id/reviews/:review_id", reviewHandler.Delete)

	content.GET("/titles/:title_id/reviews/:review_id/comments", commentHandler.List)
	content.POST("/titles/:title_id/reviews/:review_id/comments", commentHandler.Create)
	content.GET("/titles/:title_id/reviews/:review_id/comments/:comment_id", commentHandler.Get)
	content.PATCH("/titles/:title_id/reviews/:review_id/comments/:comment_id", commentHandler.Update)
	content.DELETE("/titles/:title_id/reviews/:review_id/comments/:comment_id", commentHandler.Delete)

	// Start server
	log.Printf("Server starting on %s", cfg.ServerPort)
	if err := router.Run(cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func buildSender(cfg *config.Config) (notify.Sender, error) {
	if cfg.MailBackend == "redis" {
		return notify.NewRedisSender(cfg.RedisURL, cfg.MailChannel)
	}

	box, err := outbox.New(cfg.OutboxPath)
	if err != nil {
		return nil, err
	}
	return notify.NewOutboxSender(box), nil
}
