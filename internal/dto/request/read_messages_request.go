package request

// ReadMessagesRequest 会话消息全部置为已读请求 (WebSocket)
// 使用位置:
//   - internal/service/chat/dispatcher.go: handleReadMessages
type ReadMessagesRequest struct {
	ConversationID int64 `json:"conversation_id" binding:"required"`
}
