package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/somacore/roledeck/internal/shared/telemetry"
)

// Context keys handlers set so the request log can attribute the request.
const (
	TenantHandleKey = "tenantHandle"
	DeckIDKey       = "deckId"
)

// OriginalPathHeader carries the pre-rewrite path of subdomain requests.
const OriginalPathHeader = "X-Original-Path"

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		userID, _ := c.Get(userIDKey)
		tenant, _ := c.Get(TenantHandleKey)
		deckID, _ := c.Get(DeckIDKey)

		telemetry.Info("request.complete", map[string]any{
			"request_id":    RequestIDFromContext(c),
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"original_path": c.GetHeader(OriginalPathHeader),
			"host":          c.Request.Host,
			"status":        c.Writer.Status(),
			"duration_ms":   float64(latency.Microseconds()) / 1000.0,
			"user_id":       userID,
			"tenant":        tenant,
			"deck_id":       deckID,
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
		})
	}
}
