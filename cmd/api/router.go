package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sitestock-backend/internal/shared/middleware"
	"sitestock-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
	)

	// Telegram delivers updates here; everything else is the back-office API.
	router.POST("/webhook/telegram",
		middleware.WebhookSecret(c.Config.Telegram.WebhookSecret),
		c.Bot.WebhookHandler(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c)
		setupItemRoutes(v1, c)
		setupBatchRoutes(v1, c)
		setupReportRoutes(v1, c)
		setupAdminRoutes(v1, c)
	}

	return router
}

func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/token", c.AuthHandler.IssueToken)
	}
}

func setupItemRoutes(v1 *gin.RouterGroup, c *container.Container) {
	items := v1.Group("/items")
	items.Use(middleware.Auth(c.JWTManager))
	{
		items.GET("", c.CatalogHandler.ListItems)
		items.GET("/:name", c.CatalogHandler.GetItem)
	}
}

func setupBatchRoutes(v1 *gin.RouterGroup, c *container.Container) {
	batches := v1.Group("/batches")
	batches.Use(middleware.Auth(c.JWTManager))
	{
		batches.GET("/pending", c.ApprovalHandler.ListPending)
		batches.GET("/:id", c.ApprovalHandler.GetBatch)

		admin := batches.Group("")
		admin.Use(middleware.Admin())
		{
			admin.POST("/:id/approve", c.ApprovalHandler.ApproveBatch)
			admin.POST("/:id/reject", c.ApprovalHandler.RejectBatch)
			admin.DELETE("/:id/movements/:movement_id", c.ApprovalHandler.VoidMovement)
		}
	}
}

func setupReportRoutes(v1 *gin.RouterGroup, c *container.Container) {
	reports := v1.Group("/reports")
	reports.Use(middleware.Auth(c.JWTManager), middleware.Admin())
	{
		reports.POST("/export", c.ReportHandler.Export)
		reports.GET("/low-stock", c.ReportHandler.LowStock)
	}
}

func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(middleware.Auth(c.JWTManager), middleware.Admin())
	{
		admin.GET("/users", c.AuthHandler.ListUsers)
	}
}

func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		services := gin.H{"store": appCtx.Config.Store.Backend}
		statusCode := http.StatusOK

		if appCtx.DB != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.Ping(ctx); err != nil {
				services["database"] = "error: " + err.Error()
				health["status"] = "degraded"
				statusCode = http.StatusServiceUnavailable
			} else {
				services["database"] = "ok"
			}
		}

		cacheStatus := "ok"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := appCtx.Cache.Ping(ctx); err != nil {
			cacheStatus = "error: " + err.Error()
		}
		services["cache"] = cacheStatus

		health["services"] = services
		c.JSON(statusCode, health)
	}
}
