package constants

const (
	CHANNEL_SIZE        = 100 // 通道大小
	REDIS_TIMEOUT       = 1   // redis timeout (分钟)
	MESSAGE_PAGE_LIMIT  = 50  // 单页消息最大条数
	PUSH_PREVIEW_LENGTH = 64  // 推送预览截断长度

	ROLE_USER  = "user"  // 普通用户
	ROLE_ADMIN = "admin" // 管理员
)
