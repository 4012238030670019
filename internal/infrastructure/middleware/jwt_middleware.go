package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"duo_chat_server/pkg/errorx"
	"duo_chat_server/pkg/util/jwt"
)

// JWTAuth JWT 认证中间件
// 验证 Access Token 并将用户信息和原始令牌存入上下文
// 原始令牌还会被 session 接口摘要后落库，供 WebSocket 握手匹配
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"code":    errorx.CodeUnauthorized,
				"message": "请先登录",
				"data":    nil,
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"code":    errorx.CodeUnauthorized,
				"message": "Token 格式错误，请使用 Bearer Token",
				"data":    nil,
			})
			return
		}

		claims, err := jwt.ParseToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"code":    errorx.CodeUnauthorized,
				"message": "Token 已过期或无效，请重新登录",
				"data":    nil,
			})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("raw_token", parts[1])
		c.Next()
	}
}
