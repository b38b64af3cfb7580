package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"healthmate-backend/internal/chat"
	"healthmate-backend/internal/documents"
	"healthmate-backend/internal/healthdata"
	"healthmate-backend/internal/shared/config"
	"healthmate-backend/internal/shared/metrics"
	"healthmate-backend/internal/shared/server/middleware"
	"healthmate-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router registers.
type RouterDeps struct {
	Config          config.Config
	DocumentHandler *documents.Handler
	HealthHandler   *healthdata.Handler
	ChatHandler     *chat.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	authed := api.Group("")
	authed.Use(middleware.Auth())

	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(authed)
	}
	if deps.HealthHandler != nil {
		deps.HealthHandler.RegisterRoutes(authed)
	}
	if deps.ChatHandler != nil {
		chatGroup := authed.Group("")
		chatGroup.Use(middleware.RateLimit(middleware.RateLimitRule{Rate: 1, Burst: 5}))
		deps.ChatHandler.RegisterRoutes(chatGroup)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
