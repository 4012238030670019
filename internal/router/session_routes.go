// Package router 提供 HTTP 路由注册
// 本文件定义设备会话相关的路由
package router

import (
	"github.com/gin-gonic/gin"

	"duo_chat_server/internal/infrastructure/middleware"
)

// RegisterSessionRoutes 注册设备会话路由（需要认证）
func (rt *Router) RegisterSessionRoutes(rg *gin.RouterGroup) {
	sessionGroup := rg.Group("/session", middleware.JWTAuth())
	{
		sessionGroup.POST("/register", rt.handlers.Session.RegisterSessionHandler) // 登录后注册设备会话
		sessionGroup.POST("/logout", rt.handlers.Session.LogoutSessionHandler)     // 登出删除设备会话
	}
}
