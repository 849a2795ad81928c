package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/audit-engine/internal/jwtauth"
)

// RegisterRoutes mounts the public and admin route groups. An empty jwtSecret
// leaves the admin group unprotected; the bootstrap refuses that outside
// debug mode.
func RegisterRoutes(router *gin.Engine, h *Handler, jwtSecret string) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/audits", h.SubmitAudit)
		v1.GET("/audits/:id", h.GetAudit)
		v1.GET("/audits/:id/report/:doc", h.GetReport)
	}

	admin := router.Group("/api/v1/admin")
	if jwtSecret != "" {
		admin.Use(jwtauth.Middleware(jwtSecret))
	}
	{
		admin.GET("/audits/:id/assets", h.ListAssets)
		admin.POST("/jobs/:id/dispatch", h.RetryDispatch)
	}
}
