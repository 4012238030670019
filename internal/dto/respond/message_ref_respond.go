package respond

// MessageRefRespond 删除类操作的消息定位响应
// user_id 为执行操作的用户，广播给其他端时用于同步本地状态
// 使用位置:
//   - internal/service/chatops/service.go: DeleteMessage / DeleteMessageForEveryone
type MessageRefRespond struct {
	ConversationID int64 `json:"conversation_id"`
	MessageID      int64 `json:"message_id"`
	UserID         int64 `json:"user_id"`
}
