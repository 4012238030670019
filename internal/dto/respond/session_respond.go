package respond

// RegisterSessionRespond 会话注册响应 (HTTP)
// 使用位置:
//   - internal/handler/session_handler.go: RegisterSessionHandler
type RegisterSessionRespond struct {
	UserID      int64  `json:"user_id"`
	DeviceType  string `json:"device_type"`
	DeviceToken string `json:"device_token"`
}
