// Package model 定义数据库实体模型
// 本文件定义两人会话（房间）模型
package model

import (
	"gorm.io/gorm"
)

// Conversation 两人会话模型
// 对应数据库 conversation 表
// 参与者按 (user_lo, user_hi) 归一化存储：user_lo < user_hi，
// 由复合唯一索引保证任意无序用户对至多一个未删除会话
type Conversation struct {
	gorm.Model

	// Uuid 会话对外 ID，雪花算法生成
	Uuid int64 `gorm:"column:uuid;uniqueIndex;type:bigint;not null;comment:会话雪花ID"`

	// UserLo 较小的参与者 ID
	UserLo int64 `gorm:"column:user_lo;not null;uniqueIndex:idx_pair;comment:较小参与者id"`

	// UserHi 较大的参与者 ID
	UserHi int64 `gorm:"column:user_hi;not null;uniqueIndex:idx_pair;comment:较大参与者id"`

	// DeletedBy 逐用户软删除标记
	// 某参与者删除会话后对其隐藏；下次查找/来新消息时清除其标记，会话对其"重新出现"
	DeletedBy IDSet `gorm:"column:deleted_by;type:json;comment:逐用户删除标记"`
}

// TableName 指定表名
func (Conversation) TableName() string {
	return "conversation"
}

// NormalizePair 归一化无序用户对
func NormalizePair(userA, userB int64) (lo, hi int64) {
	if userA > userB {
		return userB, userA
	}
	return userA, userB
}

// HasParticipant 判断用户是否是会话参与者
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.UserLo == userID || c.UserHi == userID
}

// PeerOf 返回对端参与者 ID，非参与者返回 0
func (c *Conversation) PeerOf(userID int64) int64 {
	switch userID {
	case c.UserLo:
		return c.UserHi
	case c.UserHi:
		return c.UserLo
	}
	return 0
}
