// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"duo_chat_server/internal/handler"
)

// Router 路由管理器，持有 Handler 聚合实例
type Router struct {
	handlers *handler.Handlers
}

// NewRouter 创建路由管理器
func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
// 在 https_server.Init() 中调用
func (rt *Router) RegisterRoutes(engine *gin.Engine) {
	// Prometheus 指标，不走业务中间件
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rt.RegisterWebSocketRoutes(engine)

	api := engine.Group("/api")
	rt.RegisterSessionRoutes(api)
}
