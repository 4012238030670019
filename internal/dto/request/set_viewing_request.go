package request

// SetViewingRequest 设置/清除正在查看会话请求 (WebSocket)
// viewing=true 表示前台打开该会话，false 表示离开
// 使用位置:
//   - internal/service/chat/dispatcher.go: handleSetViewing
type SetViewingRequest struct {
	ConversationID int64 `json:"conversation_id" binding:"required"`
	Viewing        bool  `json:"viewing"`
}
