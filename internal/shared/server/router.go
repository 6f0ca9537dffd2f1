package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docparse-backend/internal/account"
	googleauth "docparse-backend/internal/auth"
	"docparse-backend/internal/documents"
	"docparse-backend/internal/export"
	"docparse-backend/internal/health"
	"docparse-backend/internal/parse"
	"docparse-backend/internal/shared/config"
	"docparse-backend/internal/shared/metrics"
	"docparse-backend/internal/shared/server/middleware"
	"docparse-backend/internal/stats"
	"docparse-backend/internal/usage"
	"docparse-backend/internal/users"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config          config.Config
	HealthHandler   *health.Handler
	UsersHandler    *users.Handler
	GoogleAuth      *googleauth.GoogleService
	DocumentHandler *documents.Handler
	ParseHandler    *parse.Handler
	ExportHandler   *export.Handler
	UsageHandler    *usage.Handler
	StatsHandler    *stats.Handler
	AccountHandler  *account.Handler
}

// Rate-limit groups. Rates are tokens per second.
var rateLimitRules = map[string]middleware.RateLimitRule{
	"AUTH":     {Rate: 10.0 / 60.0, Burst: 10},
	"REGISTER": {Rate: 5.0 / 3600.0, Burst: 5},
	"PARSE":    {Rate: 30.0 / 3600.0, Burst: 30},
	"BATCH":    {Rate: 10.0 / 3600.0, Burst: 10},
	"SEARCH":   {Rate: 100.0 / 3600.0, Burst: 100},
	"EXPORT":   {Rate: 50.0 / 3600.0, Burst: 50},
}

func rateLimitGroupFor(c *gin.Context) string {
	path := c.Request.URL.Path
	switch {
	case path == "/api/v1/auth/register":
		return "REGISTER"
	case path == "/api/v1/auth/login" || strings.HasPrefix(path, "/api/v1/auth/google/"):
		return "AUTH"
	case path == "/api/v1/documents/parse":
		return "PARSE"
	case path == "/api/v1/documents/batch":
		return "BATCH"
	case path == "/api/v1/documents/search":
		return "SEARCH"
	case path == "/api/v1/exports" && c.Request.Method == http.MethodPost:
		return "EXPORT"
	default:
		return ""
	}
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
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    rateLimitRules,
			GroupFor: rateLimitGroupFor,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	if deps.HealthHandler != nil {
		deps.HealthHandler.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.ParseHandler != nil {
		deps.ParseHandler.RegisterRoutes(api)
	}
	if deps.ExportHandler != nil {
		deps.ExportHandler.RegisterRoutes(api)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(api)
	}
	if deps.StatsHandler != nil {
		deps.StatsHandler.RegisterRoutes(api)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(api)
	}
	if deps.Config.Env == "dev" && deps.UsageHandler != nil {
		dev := api.Group("/dev")
		deps.UsageHandler.RegisterDevRoutes(dev)
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
