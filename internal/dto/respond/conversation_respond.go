package respond

import (
	"time"

	"duo_chat_server/internal/model"
)

// ConversationRespond 会话响应
// 使用位置:
//   - internal/service/chatops/service.go: CreateConversation / SetViewing
type ConversationRespond struct {
	ConversationID int64  `json:"conversation_id"`
	PeerID         int64  `json:"peer_id"`
	IsNew          bool   `json:"is_new"`
	Viewing        bool   `json:"viewing"`
	CreatedAt      string `json:"created_at"`
}

// NewConversationRespond 从模型构建会话响应，视角为 userID
func NewConversationRespond(conv *model.Conversation, userID int64, isNew, viewing bool) *ConversationRespond {
	return &ConversationRespond{
		ConversationID: conv.Uuid,
		PeerID:         conv.PeerOf(userID),
		IsNew:          isNew,
		Viewing:        viewing,
		CreatedAt:      conv.CreatedAt.Format(time.DateTime),
	}
}
