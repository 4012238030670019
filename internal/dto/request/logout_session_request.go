package request

// LogoutSessionRequest 登出删除会话行请求 (HTTP)
// 使用位置:
//   - internal/handler/session_handler.go: LogoutSessionHandler
type LogoutSessionRequest struct {
	DeviceType  string `json:"device_type" binding:"required,max=20"`
	DeviceToken string `json:"device_token" binding:"required,max=191"`
}
