// Package presence 实现在线状态与查看状态的推导
//
// 在线状态不在进程内维护任何共享表，而是每次从会话行集合推导：
// 同一用户的连接可能落在不同进程上，只有存储是唯一可信源。
// 断开处理遵循固定步骤：先落分离写，再做一次活跃集合读，
// 两个并发断开交错时窗口有界，最终状态收敛正确
package presence

import (
	"duo_chat_server/internal/dao/mysql/repository"
	"duo_chat_server/internal/model"
	"duo_chat_server/pkg/errorx"
)

// Decision 一次断开处理的推导结果
type Decision struct {
	// UserID 受影响的用户
	UserID int64
	// WentOffline 该用户由在线转为离线（最后一个活跃会话分离）
	WentOffline bool
	// ClearedViewingConversationID 查看抑制被清除的会话 ID
	// 仅当分离的连接正在查看某会话、且该用户没有其他活跃连接仍在查看
	// 同一会话时非零
	ClearedViewingConversationID int64
}

// View 单个用户的在线视图，按需从会话行推导，不落任何缓存
type View struct {
	Online bool
	// ViewingConversationIDs 该用户活跃连接正在查看的会话集合（去重）
	ViewingConversationIDs []int64
}

// Coordinator 在线状态协调器
type Coordinator struct {
	sessions repository.SessionRepository
}

// NewCoordinator 创建协调器
func NewCoordinator(sessions repository.SessionRepository) *Coordinator {
	return &Coordinator{sessions: sessions}
}

// Connect 将连接绑定到令牌摘要匹配的会话行
// 无匹配行说明令牌已吊销或会话已删除，返回 NotFound，调用方应拒绝连接
func (c *Coordinator) Connect(userID int64, tokenDigest, socketID string) (*model.Session, error) {
	return c.sessions.AttachSocket(userID, tokenDigest, socketID)
}

// Disconnect 处理连接断开，推导在线/查看状态变化
// 幂等：socketID 未绑定任何行时返回 (nil, nil)，重复上报关闭不产生第二次推导
func (c *Coordinator) Disconnect(socketID string) (*Decision, error) {
	prior, err := c.sessions.DetachBySocket(socketID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	// 分离写之后仅做这一次读，后续判断都基于同一份快照
	active, err := c.sessions.ListActive(prior.UserID)
	if err != nil {
		return nil, err
	}

	decision := &Decision{
		UserID:      prior.UserID,
		WentOffline: len(active) == 0,
	}

	if prior.ViewingConversationID != 0 {
		stillViewing := false
		for i := range active {
			if active[i].ViewingConversationID == prior.ViewingConversationID {
				stillViewing = true
				break
			}
		}
		if !stillViewing {
			decision.ClearedViewingConversationID = prior.ViewingConversationID
		}
	}
	return decision, nil
}

// SetViewing 更新 (userID, socketID) 定位的那一行的查看状态
// convID 为 0 表示清除
func (c *Coordinator) SetViewing(userID int64, socketID string, convID int64) error {
	return c.sessions.SetViewing(userID, socketID, convID)
}

// IsViewing 判断用户是否有任一活跃连接正在查看指定会话
// 推送抑制的依据：正在查看的用户无需离线推送
func (c *Coordinator) IsViewing(userID, convID int64) (bool, error) {
	active, err := c.sessions.ListActive(userID)
	if err != nil {
		return false, err
	}
	for i := range active {
		if active[i].ViewingConversationID == convID {
			return true, nil
		}
	}
	return false, nil
}

// Snapshot 推导用户当前的在线视图
func (c *Coordinator) Snapshot(userID int64) (*View, error) {
	active, err := c.sessions.ListActive(userID)
	if err != nil {
		return nil, err
	}

	view := &View{Online: len(active) > 0}
	seen := make(map[int64]struct{})
	for i := range active {
		convID := active[i].ViewingConversationID
		if convID == 0 {
			continue
		}
		if _, ok := seen[convID]; ok {
			continue
		}
		seen[convID] = struct{}{}
		view.ViewingConversationIDs = append(view.ViewingConversationIDs, convID)
	}
	return view, nil
}
