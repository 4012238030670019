// Package repository 提供数据访问层的具体实现
// 本文件实现 MessageRepository 接口
// 可见性过滤全部压到 SQL 里：分页先过滤后截断，避免页内空洞
package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"duo_chat_server/internal/model"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建 MessageRepository 实例
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create 创建消息
func (r *messageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return wrapDBError(err, "创建消息")
	}
	return nil
}

// FindByUuid 按对外 ID 查找消息
func (r *messageRepository) FindByUuid(msgID int64) (*model.Message, error) {
	var message model.Message
	if err := r.db.Where("uuid = ?", msgID).First(&message).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 msg=%d", msgID)
	}
	return &message, nil
}

// ListPage 查询对 viewer 可见的消息页，最新在前
// 排序键 (sent_at, uuid)：时间戳相同用雪花 ID 决胜
func (r *messageRepository) ListPage(convID, viewerID int64, page, limit int) ([]model.Message, error) {
	if page < 1 {
		page = 1
	}
	var messages []model.Message
	err := r.db.
		Where("conversation_id = ?", convID).
		Where("is_deleted_for_everyone = ?", false).
		Where("NOT JSON_CONTAINS(deleted_by, CAST(? AS JSON))", viewerID).
		Order("sent_at DESC, uuid DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询消息页 conv=%d viewer=%d page=%d", convID, viewerID, page)
	}
	return messages, nil
}

// UpdateBody 条件更新消息正文，仅发送者的行会被命中
func (r *messageRepository) UpdateBody(msgID, convID, senderID int64, body string) (int64, error) {
	res := r.db.Model(&model.Message{}).
		Where("uuid = ? AND conversation_id = ? AND sender_id = ? AND is_deleted_for_everyone = ?",
			msgID, convID, senderID, false).
		Updates(map[string]interface{}{"body": body, "is_edited": true})
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "编辑消息 msg=%d", msgID)
	}
	return res.RowsAffected, nil
}

// LastVisibleUuid 查询会话内最新一条全局可见消息的 Uuid
// 必须在编辑提交后调用，读提交后的状态而非缓存值
func (r *messageRepository) LastVisibleUuid(convID int64) (int64, error) {
	var message model.Message
	err := r.db.Select("uuid").
		Where("conversation_id = ? AND is_deleted_for_everyone = ?", convID, false).
		Order("sent_at DESC, uuid DESC").
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, wrapDBErrorf(err, "查询最新消息 conv=%d", convID)
	}
	return message.Uuid, nil
}

// AddDeletedBy 将用户加入消息的 deleted_by 集合
// 行锁内读改写，重复删除是 no-op 成功
func (r *messageRepository) AddDeletedBy(msgID, userID int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var message model.Message
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("uuid = ?", msgID).First(&message).Error; err != nil {
			return err
		}
		if message.DeletedBy.Contains(userID) {
			return nil // 幂等
		}
		return tx.Model(&model.Message{}).Where("uuid = ?", msgID).
			Update("deleted_by", message.DeletedBy.Add(userID)).Error
	})
	if err != nil {
		return wrapDBErrorf(err, "自删消息 msg=%d user=%d", msgID, userID)
	}
	return nil
}

// MarkDeletedForEveryone 条件更新对双方删除标记，仅发送者的行会被命中
func (r *messageRepository) MarkDeletedForEveryone(msgID, convID, senderID int64) (int64, error) {
	res := r.db.Model(&model.Message{}).
		Where("uuid = ? AND conversation_id = ? AND sender_id = ?", msgID, convID, senderID).
		Update("is_deleted_for_everyone", true)
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "对所有人删除消息 msg=%d", msgID)
	}
	return res.RowsAffected, nil
}

// MarkConversationRead 将会话内发给 reader 的全部消息置为已读
func (r *messageRepository) MarkConversationRead(convID, readerID int64) error {
	res := r.db.Model(&model.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", convID, readerID, false).
		Update("is_read", true)
	if res.Error != nil {
		return wrapDBErrorf(res.Error, "标记已读 conv=%d reader=%d", convID, readerID)
	}
	return nil
}
