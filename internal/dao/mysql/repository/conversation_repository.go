// Package repository 提供数据访问层的具体实现
// 本文件实现 ConversationRepository 接口
package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"duo_chat_server/internal/model"
	"duo_chat_server/pkg/errorx"
	"duo_chat_server/pkg/util/snowflake"
)

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建 ConversationRepository 实例
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// FindOrCreate 按无序用户对查找或创建会话
// 查找忽略逐用户删除标记；命中且请求者在 deleted_by 中时清除其标记
func (r *conversationRepository) FindOrCreate(requesterID, otherID int64) (*model.Conversation, bool, error) {
	if requesterID == otherID {
		return nil, false, errorx.New(errorx.CodeInvalidParam, "不能与自己创建会话")
	}
	lo, hi := model.NormalizePair(requesterID, otherID)

	var conv model.Conversation
	err := r.db.Where("user_lo = ? AND user_hi = ?", lo, hi).First(&conv).Error
	if err == nil {
		if conv.DeletedBy.Contains(requesterID) {
			conv.DeletedBy = conv.DeletedBy.Remove(requesterID)
			if err := r.db.Model(&model.Conversation{}).Where("uuid = ?", conv.Uuid).
				Update("deleted_by", conv.DeletedBy).Error; err != nil {
				return nil, false, wrapDBErrorf(err, "恢复会话 conv=%d user=%d", conv.Uuid, requesterID)
			}
		}
		return &conv, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, wrapDBErrorf(err, "查询会话 pair=(%d,%d)", lo, hi)
	}

	conv = model.Conversation{
		Uuid:      snowflake.GenerateID(),
		UserLo:    lo,
		UserHi:    hi,
		DeletedBy: model.IDSet{},
	}
	// 并发的对称创建（A->B 与 B->A）由唯一索引裁决，冲突方读回已有行
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&conv).Error; err != nil {
		return nil, false, wrapDBErrorf(err, "创建会话 pair=(%d,%d)", lo, hi)
	}
	if conv.ID == 0 {
		// DoNothing 命中冲突，读回对方刚创建的行
		if err := r.db.Where("user_lo = ? AND user_hi = ?", lo, hi).First(&conv).Error; err != nil {
			return nil, false, wrapDBErrorf(err, "回读会话 pair=(%d,%d)", lo, hi)
		}
		return &conv, false, nil
	}
	return &conv, true, nil
}

// FindByUuid 按对外 ID 查找未删除会话
func (r *conversationRepository) FindByUuid(convID int64) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.Where("uuid = ?", convID).First(&conv).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 conv=%d", convID)
	}
	return &conv, nil
}

// ClearDeletedBy 清除用户在会话上的删除标记，未打标记时是 no-op
// JSON_REMOVE 按路径而非值删除，数值元素的移除在事务内读改写
func (r *conversationRepository) ClearDeletedBy(convID, userID int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var conv model.Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("uuid = ?", convID).First(&conv).Error; err != nil {
			return err
		}
		if !conv.DeletedBy.Contains(userID) {
			return nil
		}
		return tx.Model(&model.Conversation{}).Where("uuid = ?", convID).
			Update("deleted_by", conv.DeletedBy.Remove(userID)).Error
	})
	if err != nil {
		return wrapDBErrorf(err, "恢复会话 conv=%d user=%d", convID, userID)
	}
	return nil
}

// DeleteFor 逐用户软删除会话，并在同一事务内清洗到每条消息
// 写时反规范化：读路径只看消息上的标记，无须在查询时再关联会话标记
func (r *conversationRepository) DeleteFor(convID, requesterID int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var conv model.Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("uuid = ?", convID).First(&conv).Error; err != nil {
			return err
		}
		if !conv.HasParticipant(requesterID) {
			return errorx.Newf(errorx.CodeNotFound, "会话 %d 不存在", convID)
		}
		if err := tx.Model(&model.Conversation{}).Where("uuid = ?", convID).
			Update("deleted_by", conv.DeletedBy.Add(requesterID)).Error; err != nil {
			return err
		}
		// MySQL 5.7+：把请求者追加进尚未包含它的消息标记里
		return tx.Model(&model.Message{}).
			Where("conversation_id = ? AND NOT JSON_CONTAINS(deleted_by, CAST(? AS JSON))", convID, requesterID).
			Update("deleted_by", gorm.Expr("JSON_ARRAY_APPEND(deleted_by, '$', CAST(? AS JSON))", requesterID)).Error
	})
	if err != nil {
		var codeErr *errorx.CodeError
		if errors.As(err, &codeErr) {
			return err
		}
		return wrapDBErrorf(err, "删除会话 conv=%d user=%d", convID, requesterID)
	}
	return nil
}
