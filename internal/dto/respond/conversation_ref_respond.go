package respond

// ConversationRefRespond 仅携带会话 ID 的确认响应
// 使用位置:
//   - internal/service/chatops/service.go: ReadMessages / DeleteConversation
type ConversationRefRespond struct {
	ConversationID int64 `json:"conversation_id"`
}
