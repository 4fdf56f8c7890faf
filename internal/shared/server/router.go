package server

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"study-planner/internal/planner"
	"study-planner/internal/services/health"
	"study-planner/internal/shared/config"
	"study-planner/internal/shared/metrics"
	"study-planner/internal/shared/server/middleware"
	"study-planner/internal/shared/server/respond"
	"study-planner/internal/web"
)

// RouterDeps carries everything the router wires into routes.
type RouterDeps struct {
	Config    config.Config
	Sessions  *planner.SessionStore
	Web       *web.Handler
	Templates *template.Template
	Limiter   *middleware.RateLimiter
	Health    *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = deps.Config.MaxUploadBytes + (1 << 20)
	if deps.Templates != nil {
		r.SetHTMLTemplate(deps.Templates)
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	sessions := middleware.Session(deps.Sessions, middleware.SessionOptions{
		TTL:    deps.Config.SessionTTL,
		Secure: deps.Config.Env == "production",
	})
	limits := middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		GroupFor:     rateLimitGroup,
		Limiter:      deps.Limiter,
		Rules: map[string]middleware.RateLimitRule{
			middleware.GenerationGroup: middleware.PerMinute(deps.Config.GenerationRatePerMin, deps.Config.GenerationBurst),
		},
	})

	page := r.Group("/", sessions, limits)
	deps.Web.RegisterPageRoutes(page)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		respond.JSON(c, http.StatusOK, deps.Health.Status())
	})
	api.GET("/metrics", metrics.Handler())

	session := api.Group("", sessions, limits)
	deps.Web.RegisterAPIRoutes(session)

	return r
}

// rateLimitGroup puts the two actions that reach the generation service into
// their own bucket; everything else is unlimited.
func rateLimitGroup(c *gin.Context) string {
	path := c.FullPath()
	if strings.HasSuffix(path, "/plan") || strings.HasSuffix(path, "/analyze") {
		return middleware.GenerationGroup
	}
	return "DEFAULT"
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
