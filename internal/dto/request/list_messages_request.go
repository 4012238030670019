package request

// ListMessagesRequest 分页拉取消息记录请求 (WebSocket)
// page 从 1 开始，缺省按第一页、默认页长处理
// 使用位置:
//   - internal/service/chat/dispatcher.go: handleListMessages
type ListMessagesRequest struct {
	ConversationID int64 `json:"conversation_id" binding:"required"`
	Page           int   `json:"page" binding:"omitempty,min=1"`
	Limit          int   `json:"limit" binding:"omitempty,min=1,max=100"`
}
