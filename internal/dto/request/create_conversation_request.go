package request

// CreateConversationRequest 创建会话请求 (WebSocket)
// 使用位置:
//   - internal/service/chat/dispatcher.go: handleCreateConversation
type CreateConversationRequest struct {
	OtherUserID int64 `json:"other_user_id" binding:"required"`
}
