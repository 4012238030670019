// Package router 提供 HTTP 路由注册
// 本文件定义 WebSocket 相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes 注册 WebSocket 连接入口
// 握手认证在升级后的连接内完成，不挂 JWT 中间件
// 请求示例: wss://host:port/wss?token=xxx
func (rt *Router) RegisterWebSocketRoutes(engine *gin.Engine) {
	engine.GET("/wss", rt.handlers.Ws.ConnectHandler)
}
