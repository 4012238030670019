// Package handler 提供 HTTP 请求处理器
// 本文件处理设备会话行相关的 API 请求
package handler

import (
	"github.com/gin-gonic/gin"

	"duo_chat_server/internal/dto/request"
	"duo_chat_server/internal/service/chatops"
)

// SessionHandler 设备会话请求处理器
type SessionHandler struct {
	svc *chatops.Service
}

// NewSessionHandler 创建会话处理器实例
func NewSessionHandler(svc *chatops.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// RegisterSessionHandler 登录后注册设备会话行
// POST /api/session/register
// 请求体: request.RegisterSessionRequest
// 落库当前 Bearer Token 的摘要，之后 WebSocket 握手凭同一令牌绑定此行
func (h *SessionHandler) RegisterSessionHandler(c *gin.Context) {
	var req request.RegisterSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userID := c.GetInt64("user_id")
	rawToken := c.GetString("raw_token")

	data, err := h.svc.RegisterSession(userID, rawToken, &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// LogoutSessionHandler 登出删除设备会话行
// POST /api/session/logout
// 请求体: request.LogoutSessionRequest
// 删除后持原令牌的 WebSocket 握手将被拒绝
func (h *SessionHandler) LogoutSessionHandler(c *gin.Context) {
	var req request.LogoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	userID := c.GetInt64("user_id")

	if err := h.svc.LogoutSession(userID, &req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
