// Package repository 提供数据访问层的具体实现
// 本文件实现 SessionRepository 接口，处理连接会话行的数据库操作
// 每个操作都是单条原子语句，断连/重连竞态由"先写 detach、再重读活跃集合"的
// 调用纪律兜底（见 presence 包）
package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"duo_chat_server/internal/model"
	"duo_chat_server/pkg/errorx"
)

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建 SessionRepository 实例
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Upsert 沿 (user_id, device_type, device_token) 唯一键插入或更新
// 同一设备重连刷新令牌摘要并重新激活，不产生重复行
func (r *sessionRepository) Upsert(session *model.Session) error {
	session.IsLogin = true
	session.IsActive = true
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "device_type"}, {Name: "device_token"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"auth_token": session.AuthToken,
			"is_login":   true,
			"is_active":  true,
			"deleted_at": nil,
		}),
	}).Create(session).Error
	if err != nil {
		return wrapDBErrorf(err, "upsert会话 user=%d device=%s", session.UserID, session.DeviceType)
	}
	return nil
}

// AttachSocket 将连接 ID 绑定到 (user, 令牌摘要) 匹配的会话行
func (r *sessionRepository) AttachSocket(userID int64, tokenDigest, socketID string) (*model.Session, error) {
	res := r.db.Model(&model.Session{}).
		Where("user_id = ? AND auth_token = ?", userID, tokenDigest).
		Updates(map[string]interface{}{"socket_id": socketID, "is_active": true})
	if res.Error != nil {
		return nil, wrapDBErrorf(res.Error, "绑定连接 user=%d", userID)
	}
	if res.RowsAffected == 0 {
		// 令牌已吊销或会话行已被登出删除
		return nil, errorx.Newf(errorx.CodeNotFound, "用户 %d 无匹配会话", userID)
	}
	var session model.Session
	if err := r.db.Where("socket_id = ?", socketID).First(&session).Error; err != nil {
		return nil, wrapDBErrorf(err, "回读会话 socket=%s", socketID)
	}
	return &session, nil
}

// DetachBySocket 清空连接绑定并返回变更前的行
// 行不存在返回 NotFound，调用方视为幂等 no-op
func (r *sessionRepository) DetachBySocket(socketID string) (*model.Session, error) {
	var prior model.Session
	if err := r.db.Where("socket_id = ? AND socket_id <> ''", socketID).First(&prior).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询连接 socket=%s", socketID)
	}
	res := r.db.Model(&model.Session{}).
		Where("socket_id = ?", socketID).
		Updates(map[string]interface{}{
			"socket_id":               "",
			"viewing_conversation_id": 0,
			"is_active":               false,
		})
	if res.Error != nil {
		return nil, wrapDBErrorf(res.Error, "解绑连接 socket=%s", socketID)
	}
	return &prior, nil
}

// ListActive 查询用户全部活跃会话行
func (r *sessionRepository) ListActive(userID int64) ([]model.Session, error) {
	var sessions []model.Session
	if err := r.db.Where("user_id = ? AND is_active = ?", userID, true).Find(&sessions).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询活跃会话 user=%d", userID)
	}
	return sessions, nil
}

// SetViewing 更新 (userID, socketID) 精确定位的那一行的前台会话
func (r *sessionRepository) SetViewing(userID int64, socketID string, convID int64) error {
	res := r.db.Model(&model.Session{}).
		Where("user_id = ? AND socket_id = ?", userID, socketID).
		Update("viewing_conversation_id", convID)
	if res.Error != nil {
		return wrapDBErrorf(res.Error, "更新前台会话 user=%d socket=%s", userID, socketID)
	}
	if res.RowsAffected == 0 {
		return errorx.Newf(errorx.CodeNotFound, "连接 %s 不存在", socketID)
	}
	return nil
}

// DeviceTokens 查询用户全部登录设备的推送令牌
func (r *sessionRepository) DeviceTokens(userID int64) ([]string, error) {
	var tokens []string
	err := r.db.Model(&model.Session{}).
		Where("user_id = ? AND is_login = ? AND device_token <> ''", userID, true).
		Pluck("device_token", &tokens).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询设备令牌 user=%d", userID)
	}
	return tokens, nil
}

// DeleteByUserDevice 登出时物理删除会话行
func (r *sessionRepository) DeleteByUserDevice(userID int64, deviceType, deviceToken string) error {
	err := r.db.Unscoped().
		Where("user_id = ? AND device_type = ? AND device_token = ?", userID, deviceType, deviceToken).
		Delete(&model.Session{}).Error
	if err != nil {
		return wrapDBErrorf(err, "删除会话 user=%d device=%s", userID, deviceType)
	}
	return nil
}

var _ SessionRepository = (*sessionRepository)(nil)
