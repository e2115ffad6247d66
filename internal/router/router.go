package router

import (
	"log"
	"os"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nuumi-app/backend/internal/handlers"
	"github.com/nuumi-app/backend/internal/middleware"
	"github.com/nuumi-app/backend/internal/models"
	"github.com/nuumi-app/backend/internal/realtime"
	"github.com/nuumi-app/backend/internal/repositories"
	"github.com/nuumi-app/backend/pkg/config"
	"github.com/nuumi-app/backend/pkg/storage"
	"golang.org/x/time/rate"
)

// SetupMiddleware attaches the global middleware stack
func SetupMiddleware(e *echo.Echo) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(rate.Limit(20))))
}

// SetupRoutes migrates the schema, wires the repositories and handlers,
// and registers all routes
func SetupRoutes(e *echo.Echo, db *config.DB, firebaseAuth *auth.Client, hub *realtime.Hub, mediaStore storage.MediaStore) {
	if err := db.Postgres.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.Notification{},
		&models.Comment{},
		&models.Like{},
		&models.CommentLike{},
		&models.Follow{},
		&models.StorySeen{},
	); err != nil {
		log.Fatalf("Failed to migrate database schema: %v", err)
	}

	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoDBName == "" {
		mongoDBName = "nuumi"
	}
	mongoDB := db.Mongo.Database(mongoDBName)

	// Repositories
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	conversationRepo := repositories.NewPostgresConversationRepository(db.Postgres)
	messageRepo := repositories.NewPostgresMessageRepository(db.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)
	commentRepo := repositories.NewPostgresCommentRepository(db.Postgres)
	likeRepo := repositories.NewPostgresLikeRepository(db.Postgres)
	commentLikeRepo := repositories.NewPostgresCommentLikeRepository(db.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(db.Postgres)
	postRepo := repositories.NewMongoPostRepository(mongoDB)
	storyRepo := repositories.NewStoryRepository(mongoDB, db.Postgres)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuth)
	userHandler := handlers.NewUserHandler(userRepo, followRepo, mediaStore)
	conversationHandler := handlers.NewConversationHandler(conversationRepo, messageRepo, userRepo, notificationRepo, hub)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo)
	postHandler := handlers.NewPostHandler(postRepo, userRepo, mediaStore)
	feedHandler := handlers.NewFeedHandler(postRepo, userRepo, likeRepo)
	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, userRepo, commentLikeRepo, notificationRepo, hub)
	likeHandler := handlers.NewLikeHandler(likeRepo, postRepo, userRepo, notificationRepo, hub)
	followHandler := handlers.NewFollowHandler(followRepo, userRepo, notificationRepo, hub)
	storyHandler := handlers.NewStoryHandler(storyRepo, userRepo, followRepo, mediaStore, hub)
	wsHandler := handlers.NewWSHandler(hub, conversationRepo)

	e.GET("/health", handlers.HealthCheck)

	// Public auth routes
	authGroup := e.Group("/api/auth")
	authHandler.RegisterAuthRoutes(authGroup)

	// Routes authenticated by a Firebase ID token directly
	firebaseGroup := e.Group("/api/firebase", middleware.FirebaseAuthMiddleware(firebaseAuth))
	authHandler.RegisterFirebaseRoutes(firebaseGroup)

	// Authenticated API routes
	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware())

	userHandler.RegisterUserRoutes(api)
	conversationHandler.RegisterConversationRoutes(api)
	notificationHandler.RegisterNotificationRoutes(api)
	postHandler.RegisterPostRoutes(api)
	feedHandler.RegisterFeedRoutes(api)
	commentHandler.RegisterCommentRoutes(api)
	likeHandler.RegisterLikeRoutes(api)
	followHandler.RegisterFollowRoutes(api)
	storyHandler.RegisterStoryRoutes(api)
	wsHandler.RegisterWSRoutes(api)
}
