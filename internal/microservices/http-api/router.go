// Package httpapi assembles the chat HTTP API from its repositories, services and handlers.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"jobchat/database"
	"jobchat/internal/config"
	"jobchat/internal/microservices/http-api/handler"
	"jobchat/internal/microservices/http-api/middleware"
	"jobchat/internal/microservices/http-api/repository"
	"jobchat/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the long-lived resources owned by main.
// Redis is optional; without it job reads go straight to the database.
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Config *config.Config
	Logger *slog.Logger
}

// NewRouter wires every layer and returns the gin engine.
func NewRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// repositories
	jobRepo := repository.NewCachedJobRepository(
		repository.NewJobRepository(deps.DB), deps.Redis, cfg.JobCacheTTL, logger,
	)
	roomRepo := repository.NewChatRoomRepository(deps.DB)
	messageRepo := repository.NewChatMessageRepository(deps.DB)
	readRepo := repository.NewMessageReadRepository(deps.DB)

	// services
	chatService := service.NewChatService(roomRepo, messageRepo, readRepo, jobRepo, cfg.ChatPageDefault, logger)
	jobService := service.NewJobService(jobRepo, chatService, logger)

	// handlers
	chatHandler := handler.NewChatHandler(chatService)
	jobHandler := handler.NewJobHandler(jobService)
	healthHandler := handler.NewHealthHandler(healthChecks(deps))

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	r.GET("/healthz", healthHandler.Check)

	api := r.Group("/api/v1")
	api.Use(middleware.IdentityMiddleware(identityResolver(cfg)))
	{
		limiter := middleware.NewMessageRateLimiter(cfg.ChatMessageRate, cfg.ChatMessageBurst)
		chatHandler.RegisterRoutes(api, limiter.Middleware())
		jobHandler.RegisterRoutes(api)
	}

	return r
}

// NewHandler is NewRouter behind CORS for the configured origins.
func NewHandler(deps Deps) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(deps.Config.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions}),
		handlers.AllowedHeaders([]string{
			"Content-Type",
			"Authorization",
			middleware.HeaderActorType,
			middleware.HeaderOwnerUserID,
			middleware.HeaderCrewID,
			middleware.HeaderRequestID,
		}),
		handlers.ExposedHeaders([]string{middleware.HeaderRequestID}),
	)
	return cors(NewRouter(deps))
}

func identityResolver(cfg *config.Config) middleware.IdentityResolver {
	if cfg.AuthMode == config.AuthModeJWT {
		return middleware.NewJWTResolver(cfg.JWTSecret)
	}
	return middleware.HeaderResolver{}
}

func healthChecks(deps Deps) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error {
			return database.Ping(ctx, deps.DB)
		},
	}
	if deps.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}
	}
	return checks
}
