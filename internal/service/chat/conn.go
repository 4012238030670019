// Package chat 实现实时网关的核心服务层
// conn.go
// 核心职责：单个 WebSocket 连接的读写泵与生命周期
package chat

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"duo_chat_server/pkg/constants"
)

// ClientConn 表示一个已认证的 WebSocket 连接
// 每个连接一读一写两个 goroutine，连接之间只通过仓储和 Broker 交互，
// 从不直接读写彼此的内存
type ClientConn struct {
	Conn     *websocket.Conn
	SocketID string
	UserID   int64
	Role     string

	// SendBack 出站通道，写泵独占消费
	// 通道从不 close，写泵的退出由 done 通知，投递方不会写已关闭通道
	SendBack chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

// NewClientConn 创建连接对象
func NewClientConn(conn *websocket.Conn, socketID string, userID int64, role string) *ClientConn {
	return &ClientConn{
		Conn:     conn,
		SocketID: socketID,
		UserID:   userID,
		Role:     role,
		SendBack: make(chan []byte, constants.CHANNEL_SIZE),
		done:     make(chan struct{}),
	}
}

// Send 非阻塞投递出站数据
// 连接已关闭或通道已满时丢弃并返回 false，慢连接不能反压事件循环
func (c *ClientConn) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.SendBack <- payload:
		return true
	case <-c.done:
		return false
	default:
		zap.L().Warn("send buffer full, message dropped",
			zap.String("socket_id", c.SocketID), zap.Int64("user_id", c.UserID))
		return false
	}
}

// Done 连接关闭通知
func (c *ClientConn) Done() <-chan struct{} {
	return c.done
}

// Close 关闭连接，可安全重复调用
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.Conn != nil {
			if err := c.Conn.Close(); err != nil {
				zap.L().Debug("close websocket", zap.Error(err))
			}
		}
	})
}

// ReadLoop 读泵：逐条读取入站帧并交给 handle 处理
// 读出错（含对端正常关闭）即返回，调用方在返回后做一次性清理
func (c *ClientConn) ReadLoop(handle func(raw []byte)) {
	defer c.Close()
	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("websocket read error",
					zap.String("socket_id", c.SocketID), zap.Error(err))
			}
			return
		}
		handle(raw)
	}
}

// WriteLoop 写泵：消费 SendBack 并写到 WebSocket
func (c *ClientConn) WriteLoop() {
	for {
		select {
		case payload := <-c.SendBack:
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				zap.L().Warn("websocket write error",
					zap.String("socket_id", c.SocketID), zap.Error(err))
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
