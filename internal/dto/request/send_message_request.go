package request

// MediaPayload 消息附带的单个媒体项
// path 为对象存储内的相对路径，服务端不回源校验
type MediaPayload struct {
	Type      string `json:"type" binding:"required"`
	Path      string `json:"path" binding:"required"`
	FileName  string `json:"filename"`
	Thumbnail string `json:"thumbnail"`
}

// SendMessageRequest 发送消息请求 (WebSocket)
// kind 为 0 时 body 必填，为 1 时 media 非空，由 Service 层校验
// 使用位置:
//   - internal/service/chat/dispatcher.go: handleSendMessage
type SendMessageRequest struct {
	ConversationID int64          `json:"conversation_id" binding:"required"`
	ReceiverID     int64          `json:"receiver_id" binding:"required"`
	Kind           int8           `json:"kind" binding:"oneof=0 1"`
	Body           string         `json:"body"`
	Media          []MediaPayload `json:"media" binding:"omitempty,dive"`
}
