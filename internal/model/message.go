// Package model 定义数据库实体模型
// 本文件定义消息模型
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// 消息类型
const (
	MessageKindText  int8 = 0 // 文本消息，body 必填
	MessageKindMedia int8 = 1 // 媒体消息，media 非空，body 可空
)

// MediaItem 单个媒体附件
// 对象存储是外部协作方，这里只引用路径字符串；落库存相对路径，
// 出口处拼接为绝对 URL
type MediaItem struct {
	Type      string `json:"type"`                // MIME 类型，如 image/jpeg
	Path      string `json:"path"`                // 相对路径
	FileName  string `json:"filename"`            // 原始文件名
	Thumbnail string `json:"thumbnail,omitempty"` // 缩略图相对路径，可空
}

// MediaList 媒体附件有序列表，gorm 列类型为 JSON
type MediaList []MediaItem

// Value 实现 driver.Valuer
func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]MediaItem(m))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner
func (m *MediaList) Scan(value interface{}) error {
	if value == nil {
		*m = MediaList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("medialist: unsupported column type %T", value)
	}
	if len(data) == 0 {
		*m = MediaList{}
		return nil
	}
	var items []MediaItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("medialist: %w", err)
	}
	*m = items
	return nil
}

// Message 消息模型
// 对应数据库 message 表
// 消息只打软删除标记，从不物理删除，服务端历史始终可重建
type Message struct {
	gorm.Model

	// Uuid 消息对外 ID，雪花算法生成
	// 可见性排序为 (sent_at, uuid) 升序，时间戳相同时以 uuid 决胜
	Uuid int64 `gorm:"column:uuid;uniqueIndex;type:bigint;not null;comment:消息雪花ID"`

	// ConversationID 所属会话的对外 ID
	ConversationID int64 `gorm:"column:conversation_id;index:idx_conv_sent;not null;comment:会话id"`

	// SenderID 发送者用户 ID
	SenderID int64 `gorm:"column:sender_id;index;not null;comment:发送者id"`

	// ReceiverID 接收者用户 ID
	ReceiverID int64 `gorm:"column:receiver_id;index;not null;comment:接收者id"`

	// SentAt 服务端落库时指定的发送时间
	SentAt time.Time `gorm:"column:sent_at;index:idx_conv_sent;not null;comment:发送时间"`

	// Kind 消息类型，0 文本 1 媒体
	Kind int8 `gorm:"column:kind;not null;comment:消息类型，0.文本，1.媒体"`

	// Body 文本内容，媒体消息可为空
	Body string `gorm:"column:body;type:TEXT;comment:消息内容"`

	// Media 媒体附件列表，文本消息为空数组
	Media MediaList `gorm:"column:media;type:json;comment:媒体附件"`

	// IsRead 接收者是否已读
	IsRead bool `gorm:"column:is_read;not null;default:false;comment:是否已读"`

	// IsEdited 是否被编辑过
	IsEdited bool `gorm:"column:is_edited;not null;default:false;comment:是否编辑过"`

	// DeletedBy 逐用户软删除标记，在集合中的用户查询历史时不可见
	DeletedBy IDSet `gorm:"column:deleted_by;type:json;comment:逐用户删除标记"`

	// IsDeletedForEveryone 对双方删除标记，仅发送者可设置
	IsDeletedForEveryone bool `gorm:"column:is_deleted_for_everyone;not null;default:false;comment:对所有人删除"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "message"
}

// VisibleTo 判断消息对指定用户是否可见
func (m *Message) VisibleTo(userID int64) bool {
	return !m.IsDeletedForEveryone && !m.DeletedBy.Contains(userID)
}
