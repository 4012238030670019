package request

// EditMessageRequest 编辑消息请求 (WebSocket)
// 使用位置:
//   - internal/service/chat/dispatcher.go: handleEditMessage
type EditMessageRequest struct {
	MessageID      int64  `json:"message_id" binding:"required"`
	ConversationID int64  `json:"conversation_id" binding:"required"`
	Body           string `json:"body" binding:"required"`
}
