// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
package handler

import (
	"duo_chat_server/internal/service/chat"
	"duo_chat_server/internal/service/chatops"
)

// Handlers 聚合所有 Handler 实例
// 作为依赖注入的入口，Router 层通过此结构访问各个 Handler
type Handlers struct {
	Session *SessionHandler
	Ws      *WsHandler
}

// NewHandlers 创建并注入所有 Handler 实例
func NewHandlers(svc *chatops.Service, chatServer *chat.ChatServer) *Handlers {
	return &Handlers{
		Session: NewSessionHandler(svc),
		Ws:      NewWsHandler(chatServer),
	}
}
