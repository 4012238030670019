package respond

// UserOfflineRespond 用户离线事件载荷（服务端主动推送）
// 仅在该用户最后一个活跃会话分离时广播一次
// 使用位置:
//   - internal/service/chat/server.go: 离线事件广播
type UserOfflineRespond struct {
	UserID int64 `json:"user_id"`
}
