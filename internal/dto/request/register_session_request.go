package request

// RegisterSessionRequest 登录后注册会话行请求 (HTTP)
// 使用位置:
//   - internal/handler/session_handler.go: RegisterSessionHandler
type RegisterSessionRequest struct {
	DeviceType  string `json:"device_type" binding:"required,max=20"`
	DeviceToken string `json:"device_token" binding:"required,max=191"`
}
