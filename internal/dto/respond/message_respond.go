package respond

import (
	"strings"
	"time"

	"duo_chat_server/internal/model"
)

// MediaRespond 响应中的单个媒体项
// url 已在出口处拼接为绝对地址，客户端直接取用
type MediaRespond struct {
	Type      string `json:"type"`
	URL       string `json:"url"`
	FileName  string `json:"filename"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// MessageRespond 消息响应
// is_last_message 仅编辑操作回填，其余场景不出现在 JSON 中
// 使用位置:
//   - internal/service/chatops/service.go: SendMessage / ListMessages / EditMessage
//   - internal/service/chat/dispatcher.go: 会话内广播
type MessageRespond struct {
	MessageID      int64          `json:"message_id"`
	ConversationID int64          `json:"conversation_id"`
	SenderID       int64          `json:"sender_id"`
	ReceiverID     int64          `json:"receiver_id"`
	Kind           int8           `json:"kind"`
	Body           string         `json:"body"`
	Media          []MediaRespond `json:"media"`
	SentAt         string         `json:"sent_at"`
	IsRead         bool           `json:"is_read"`
	IsEdited       bool           `json:"is_edited"`
	IsLastMessage  *bool          `json:"is_last_message,omitempty"`
}

// NewMessageRespond 从模型构建消息响应，媒体相对路径拼接 baseURL
func NewMessageRespond(m *model.Message, baseURL string) *MessageRespond {
	media := make([]MediaRespond, 0, len(m.Media))
	for _, item := range m.Media {
		media = append(media, MediaRespond{
			Type:      item.Type,
			URL:       absoluteURL(baseURL, item.Path),
			FileName:  item.FileName,
			Thumbnail: absoluteURL(baseURL, item.Thumbnail),
		})
	}
	return &MessageRespond{
		MessageID:      m.Uuid,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Kind:           m.Kind,
		Body:           m.Body,
		Media:          media,
		SentAt:         m.SentAt.Format(time.DateTime),
		IsRead:         m.IsRead,
		IsEdited:       m.IsEdited,
	}
}

// absoluteURL 拼接基础地址和相对路径，已是绝对地址或为空则原样返回
func absoluteURL(baseURL, path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
