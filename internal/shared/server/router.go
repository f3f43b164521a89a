package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/somacore/roledeck/internal/analytics"
	googleauth "github.com/somacore/roledeck/internal/auth"
	"github.com/somacore/roledeck/internal/decks"
	"github.com/somacore/roledeck/internal/portal"
	"github.com/somacore/roledeck/internal/services/health"
	"github.com/somacore/roledeck/internal/shared/config"
	"github.com/somacore/roledeck/internal/shared/metrics"
	"github.com/somacore/roledeck/internal/shared/server/middleware"
	"github.com/somacore/roledeck/internal/shared/server/respond"
	"github.com/somacore/roledeck/internal/tenants"
)

const (
	rateGroupDefault = "DEFAULT"
	rateGroupPortal  = "PORTAL"
)

// Deps are the handlers the router mounts. Nil handlers are skipped.
type Deps struct {
	Config     config.Config
	Health     *health.Service
	GoogleAuth *googleauth.GoogleService
	Tenants    *tenants.Handler
	Decks      *decks.Handler
	Analytics  *analytics.Handler
	Portal     *portal.Handler
	Files      FileSource
	Limiter    *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.SetHTMLTemplate(portal.Templates())

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      deps.Limiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupDefault: {Rate: 5, Burst: 20},
				rateGroupPortal:  {Rate: 20, Burst: 60},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())
	if deps.Portal != nil {
		deps.Portal.RegisterRoutes(r)
	}
	if deps.Files != nil {
		r.GET("/files/*key", serveFile(deps.Files))
	}

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps.Health))
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}

	authed := api.Group("")
	authed.Use(middleware.Auth())
	if deps.Tenants != nil {
		deps.Tenants.RegisterRoutes(authed)
	}
	if deps.Decks != nil {
		deps.Decks.RegisterRoutes(authed)
	}
	if deps.Analytics != nil {
		deps.Analytics.RegisterRoutes(authed)
	}

	return r
}

func healthHandler(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		payload, ok := svc.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, payload)
	}
}

// rateGroupFor gives public portal and download traffic its own budget.
func rateGroupFor(c *gin.Context) string {
	path := c.FullPath()
	if strings.HasPrefix(path, "/user/") || strings.HasPrefix(path, "/files/") {
		return rateGroupPortal
	}
	return rateGroupDefault
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
