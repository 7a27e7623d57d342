package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contractbot-backend/internal/shared/config"
	"contractbot-backend/internal/shared/metrics"
	"contractbot-backend/internal/shared/server/middleware"
	"contractbot-backend/internal/shared/server/respond"
)

const bannerMessage = "ContractBot API is running. POST to /analyze to analyze a contract."

const analyzeRateGroup = "ANALYZE"

// RouteRegistrar attaches a feature's routes to a group.
type RouteRegistrar interface {
	RegisterRoutes(rg gin.IRoutes)
}

// NewRouter constructs the Gin engine with middleware and routes registered.
// Feature routes are served at the root and under /api/v1.
func NewRouter(cfg config.Config, features ...RouteRegistrar) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: analyzeGroup,
			Rules: map[string]middleware.RateLimitRule{
				analyzeRateGroup: middleware.PerMinute(cfg.RateLimitPerMin, cfg.RateLimitBurst),
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())
	api := r.Group("/api/v1")
	for _, g := range []gin.IRoutes{r, api} {
		g.GET("/", banner)
		g.GET("/health", health)
		for _, f := range features {
			f.RegisterRoutes(g)
		}
	}

	return r
}

func banner(c *gin.Context) {
	respond.OK(c, gin.H{"message": bannerMessage})
}

func health(c *gin.Context) {
	respond.JSON(c, http.StatusOK, gin.H{"status": "ok"})
}

func analyzeGroup(c *gin.Context) string {
	if strings.Contains(c.FullPath(), "/analyze/") {
		return analyzeRateGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
