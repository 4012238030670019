// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 所有仓储操作表达为单条原子语句（upsert、条件更新），唯一的例外是
// DeleteFor 的逐消息标记清洗，它在单个数据库事务内完成
package repository

import (
	"gorm.io/gorm"

	"duo_chat_server/internal/model"
)

// ConversationRepository 两人会话仓储
type ConversationRepository interface {
	// FindOrCreate 按无序用户对查找或创建会话
	// 命中且请求者在 deleted_by 中时清除其标记（会话对其"重新出现"）
	// 返回 created=true 表示本次新建；userA == userB 返回参数错误
	FindOrCreate(requesterID, otherID int64) (*model.Conversation, bool, error)
	// FindByUuid 按对外 ID 查找未删除会话
	FindByUuid(convID int64) (*model.Conversation, error)
	// DeleteFor 将请求者加入会话的 deleted_by，并在同一事务内
	// 把同样的标记清洗到会话内的每条消息上
	DeleteFor(convID, requesterID int64) error
	// ClearDeletedBy 清除用户在会话上的删除标记
	// 新消息到达时调用，会话对已删除的接收方"重新出现"
	ClearDeletedBy(convID, userID int64) error
}

// MessageRepository 消息仓储
type MessageRepository interface {
	// Create 创建消息，SentAt 与 Uuid 由调用方在落库前指定
	Create(message *model.Message) error
	// FindByUuid 按对外 ID 查找消息
	FindByUuid(msgID int64) (*model.Message, error)
	// ListPage 查询对 viewer 可见的消息页，按 (sent_at, uuid) 降序（最新在前）
	// 排除 viewer 已自删或已对双方删除的消息
	ListPage(convID, viewerID int64, page, limit int) ([]model.Message, error)
	// UpdateBody 条件更新消息正文，仅发送者的行会被命中
	// 返回受影响行数，0 行由上层区分 NotFound / Denied
	UpdateBody(msgID, convID, senderID int64, body string) (int64, error)
	// LastVisibleUuid 查询会话内最新一条全局可见消息的 Uuid
	// 用于编辑提交后的 is_last_message 复核，必须读编辑事务之后的状态
	LastVisibleUuid(convID int64) (int64, error)
	// AddDeletedBy 将用户加入消息的 deleted_by 集合，幂等
	AddDeletedBy(msgID, userID int64) error
	// MarkDeletedForEveryone 条件更新对双方删除标记，仅发送者的行会被命中
	// 返回受影响行数
	MarkDeletedForEveryone(msgID, convID, senderID int64) (int64, error)
	// MarkConversationRead 将会话内发给 reader 的全部消息置为已读，幂等
	MarkConversationRead(convID, readerID int64) error
}

// SessionRepository 连接会话仓储
type SessionRepository interface {
	// Upsert 沿 (user_id, device_type, device_token) 唯一键插入或更新，
	// 刷新令牌摘要并置 is_active=true，单条语句
	Upsert(session *model.Session) error
	// AttachSocket 将连接 ID 绑定到 (user, 令牌摘要) 匹配的会话行
	// 无匹配未删除行（令牌已吊销/过期）返回 NotFound
	AttachSocket(userID int64, tokenDigest, socketID string) (*model.Session, error)
	// DetachBySocket 清空 socket_id 与 viewing_conversation_id，置 is_active=false
	// 返回变更前的行供调用方判断受影响的用户/会话；行不存在返回 NotFound，
	// 调用方将其视为幂等 no-op（传输层可能多次上报关闭）
	DetachBySocket(socketID string) (*model.Session, error)
	// ListActive 查询用户全部活跃会话行（is_active=true 且未删除）
	ListActive(userID int64) ([]model.Session, error)
	// SetViewing 作用于 (userID, socketID) 精确定位的那一行，convID 为 0 表示清除
	SetViewing(userID int64, socketID string, convID int64) error
	// DeviceTokens 查询用户全部登录设备的推送令牌
	DeviceTokens(userID int64) ([]string, error)
	// DeleteByUserDevice 登出/注销时物理删除会话行
	DeleteByUserDevice(userID int64, deviceType, deviceToken string) error
}

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db           *gorm.DB
	Conversation ConversationRepository
	Message      MessageRepository
	Session      SessionRepository
}

// NewRepositories 创建所有 Repository 实例
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		Conversation: NewConversationRepository(db),
		Message:      NewMessageRepository(db),
		Session:      NewSessionRepository(db),
	}
}

// Transaction 在数据库事务中执行函数
// 事务内的所有操作要么全部成功，要么全部回滚
func (r *Repositories) Transaction(fn func(txRepos *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
