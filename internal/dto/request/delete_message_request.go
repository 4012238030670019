package request

// DeleteMessageRequest 删除消息请求 (WebSocket)
// deleteMessage（仅自己不可见）与 deleteMessageForEveryone（双方不可见）共用此载荷
// 使用位置:
//   - internal/service/chat/dispatcher.go: handleDeleteMessage / handleDeleteMessageForEveryone
type DeleteMessageRequest struct {
	MessageID      int64 `json:"message_id" binding:"required"`
	ConversationID int64 `json:"conversation_id" binding:"required"`
}
