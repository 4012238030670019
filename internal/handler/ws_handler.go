// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接升级与握手认证
package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"duo_chat_server/internal/service/chat"
	"duo_chat_server/pkg/util/jwt"
)

// 允许任意来源，跨域策略由前置网关控制
var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WsHandler WebSocket 连接处理器
type WsHandler struct {
	chatServer *chat.ChatServer
}

// NewWsHandler 创建 WebSocket 处理器实例
func NewWsHandler(chatServer *chat.ChatServer) *WsHandler {
	return &WsHandler{chatServer: chatServer}
}

// ConnectHandler 建立 WebSocket 连接
// GET /wss?token=xxx （或 Authorization: Bearer xxx）
// 握手认证失败回 unauthorized 事件并关闭，不在传输层重试
// 浏览器 WebSocket API 无法自定义请求头，所以同时支持查询参数携带令牌
func (h *WsHandler) ConnectHandler(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}

	// 先升级再裁决：失败结果要通过 WebSocket 回给客户端
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("websocket upgrade failed", zap.Error(err))
		return
	}

	claims, err := jwt.ParseToken(token)
	if err != nil {
		zap.L().Warn("websocket handshake rejected: bad token", zap.Error(err))
		chat.RejectUnauthorized(conn)
		return
	}

	// 摘要必须命中一条未删除的会话行，否则令牌已被登出吊销
	if err := h.chatServer.Attach(conn, claims.UserID, claims.Role, jwt.Digest(token)); err != nil {
		zap.L().Warn("websocket handshake rejected: no live session",
			zap.Int64("user_id", claims.UserID), zap.Error(err))
		chat.RejectUnauthorized(conn)
		return
	}
}
