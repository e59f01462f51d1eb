// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由，chatLimit 只作用于对话接口
func RegisterV1Routes(v1 *gin.RouterGroup, h RouterHandlers, chatLimit gin.HandlerFunc) {
	projects := v1.Group("/projects")
	{
		projects.GET("", h.Project.ListProjects)
		projects.POST("", h.Project.CreateProject)
		projects.GET("/:pid", h.Project.GetProject)

		projects.POST("/:pid/generate/:kind", h.Generation.Generate)
		projects.POST("/:pid/storyboard", h.Generation.Storyboard)
	}

	v1.POST("/chat", chatLimit, h.Generation.Chat)

	usage := v1.Group("/usage")
	{
		usage.GET("", h.Usage.Summary)
		usage.GET("/history", h.Usage.History)
	}

	sub := v1.Group("/subscription")
	{
		sub.GET("/plans", h.Subscription.Plans)
		sub.POST("/orders", h.Subscription.CreateOrder)
		sub.POST("/verify", h.Subscription.Verify)
	}
}
