package router

import (
	"net/http"

	"ivr-flow/internal/config"
	"ivr-flow/internal/handler"
	"ivr-flow/internal/ivr"
	"ivr-flow/internal/middleware"
	"ivr-flow/internal/session"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the long-lived collaborators built by the serve command.
type Deps struct {
	DB       *gorm.DB
	Sessions session.Store
	Engine   *ivr.Engine
}

// SetupRouter wires the Plivo webhooks, the health probe and the admin API.
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestLogger())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"app":    "ivr-flow",
			"status": "running",
		})
	})

	api := r.Group("/api")
	api.GET("/health", handler.Health(deps.Sessions, deps.DB))

	// ====== Plivo webhooks ======
	webhooks := api.Group("")
	if cfg.Plivo.VerifySignature {
		webhooks.Use(middleware.PlivoSignature(cfg.Plivo.AuthToken, cfg.IVR.WebhookBaseURL))
	}
	webhookHandler := handler.NewWebhookHandler(deps.Engine)
	webhooks.POST("/answer", webhookHandler.Answer)
	webhooks.POST("/handle-input", webhookHandler.HandleInput)
	webhooks.POST("/hangup", webhookHandler.Hangup)

	// ====== admin API ======
	admin := api.Group("")
	admin.Use(middleware.AdminAuth(cfg.Admin.JWTSecret, cfg.Admin.JWTIssuer))

	adminHandler := handler.NewAdminHandler(deps.DB)
	admin.GET("/call-logs", adminHandler.ListCallLogs)
	admin.GET("/call-history/:phone", adminHandler.CallHistory)
	admin.GET("/callers/:phone", adminHandler.GetCaller)
	admin.GET("/menus", adminHandler.ListMenus)

	exportHandler := handler.NewExportHandler(deps.DB)
	admin.GET("/export/call-logs.csv", exportHandler.ExportCSV)
	admin.GET("/export/call-logs.xlsx", exportHandler.ExportXLSX)

	return r
}
