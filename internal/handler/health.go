package handler

import (
	"context"
	"net/http"
	"time"

	"ivr-flow/internal/database"
	"ivr-flow/internal/session"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

// Health reports whether both backing stores answer.
func Health(sessions session.Store, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		checks := gin.H{"session_store": "ok", "database": "ok"}
		healthy := true
		if err := sessions.Ping(ctx); err != nil {
			checks["session_store"] = err.Error()
			healthy = false
		}
		if err := database.Ping(db); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}

		status, code := "healthy", http.StatusOK
		if !healthy {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "checks": checks})
	}
}
