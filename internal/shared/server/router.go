package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docsight-backend/internal/account"
	googleauth "docsight-backend/internal/auth"
	"docsight-backend/internal/documents"
	"docsight-backend/internal/shared/config"
	"docsight-backend/internal/shared/metrics"
	"docsight-backend/internal/shared/server/middleware"
	"docsight-backend/internal/shared/server/respond"
	"docsight-backend/internal/users"
)

// RouterDeps carries the handlers wired into the engine.
type RouterDeps struct {
	Config          config.Config
	DocumentHandler *documents.Handler
	AccountHandler  *account.Handler
	UserHandler     *users.Handler
	GoogleAuth      *googleauth.GoogleService
	Metrics         *metrics.Metrics
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
		middleware.Auth(deps.Config.Env),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", deps.Metrics.Handler())
	}

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)

		// Analyze fans out to the external analysis provider, so it gets a
		// stricter budget than the CRUD routes.
		analyzeGroup := api.Group("")
		analyzeGroup.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"ANALYZE": {Rate: 0.5, Burst: 3},
			},
			DefaultGroup: "ANALYZE",
		}))
		deps.DocumentHandler.RegisterAnalyzeRoutes(analyzeGroup)
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
