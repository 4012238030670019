package request

// DeleteConversationRequest 删除会话请求 (WebSocket)
// 仅对请求者隐藏，对端不受影响
// 使用位置:
//   - internal/service/chat/dispatcher.go: handleDeleteConversation
type DeleteConversationRequest struct {
	ConversationID int64 `json:"conversation_id" binding:"required"`
}
