package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docsight-backend/internal/shared/telemetry"
	"docsight-backend/internal/shared/util"
)

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
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		isGuest, _ := c.Get(isGuestKey)
		documentID, _ := c.Get("documentId")

		// Guest IDs are client-supplied, so only their hash is logged.
		ownerID := c.GetString(ownerIDKey)
		if guest, ok := isGuest.(bool); ok && guest && ownerID != "" {
			ownerID = "guest:" + util.HashOwnerKey(ownerID)[:16]
		}

		telemetry.Info("request.complete", map[string]any{
			"request_id":  reqID,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"owner_id":    ownerID,
			"document_id": documentID,
			"is_guest":    isGuest,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
