// Package model 定义数据库实体模型
// 本文件定义会话模型：一条活跃连接（设备/标签页）对应一行
package model

import (
	"gorm.io/gorm"
)

// Session 连接会话模型
// 对应数据库 session 表
// 同一用户可同时持有多行（多设备/多标签页），在线状态由该用户的活跃行集合推导，
// 绝不缓存在进程内存中
type Session struct {
	gorm.Model

	// UserID 会话归属用户，用户本体由外部系统管理，这里只引用数值 ID
	// (user_id, device_type, device_token) 复合唯一：同一设备重连更新既有行而不是插入重复行
	UserID int64 `gorm:"column:user_id;not null;uniqueIndex:idx_user_device;comment:用户id"`

	// DeviceType 设备类型，如 ios / android / web
	DeviceType string `gorm:"column:device_type;type:varchar(20);not null;uniqueIndex:idx_user_device;comment:设备类型"`

	// DeviceToken 设备推送令牌，离线推送时使用
	DeviceToken string `gorm:"column:device_token;type:varchar(191);not null;uniqueIndex:idx_user_device;comment:设备推送令牌"`

	// AuthToken 接入令牌的 SHA3-256 摘要，不落明文
	AuthToken string `gorm:"column:auth_token;type:char(64);index;not null;comment:令牌摘要"`

	// SocketID 活跃 WebSocket 连接标识，断开后清空
	SocketID string `gorm:"column:socket_id;type:char(36);index;comment:连接id"`

	// ViewingConversationID 该连接当前前台的会话，0 表示未前台任何会话
	// 用于抑制冗余离线推送
	ViewingConversationID int64 `gorm:"column:viewing_conversation_id;index;comment:正在查看的会话id"`

	// IsLogin 是否处于登录态
	IsLogin bool `gorm:"column:is_login;not null;default:false;comment:是否登录"`

	// IsActive 连接是否活跃，断开时置 false
	IsActive bool `gorm:"column:is_active;not null;default:false;comment:是否活跃"`
}

// TableName 指定表名
func (Session) TableName() string {
	return "session"
}
