package router

import (
	"github.com/gin-gonic/gin"

	"threadwatch.app/scout/internal/http/handler"
)

func SetupRoutes(router *gin.Engine, actionHandler *handler.ActionHandler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		ActionRouter(v1.Group("/actions"), actionHandler)
	}
}

func ActionRouter(rg *gin.RouterGroup, h *handler.ActionHandler) {
	rg.POST("/callback", h.Callback)
}
