// Package chat 实现实时网关的核心服务层
// channel_broker.go
// 核心职责：单机模式下的广播代理实现
// 1. 事件循环独占连接表和订阅表，所有变更经由通道串行化
// 2. 按主题投递事件，排除发起方连接
// 3. 不依赖外部消息队列，适合单进程部署或开发环境
package chat

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"duo_chat_server/pkg/constants"
	"duo_chat_server/pkg/errorx"
)

// subRequest 订阅变更请求
type subRequest struct {
	conn  *ClientConn
	topic string
	join  bool
}

// ChannelBroker 单机广播代理
// conns 与 topics 只被 Start 的事件循环读写，外部只通过通道交互
type ChannelBroker struct {
	login    chan *ClientConn
	logout   chan *ClientConn
	transmit chan *Event
	subs     chan subRequest

	done      chan struct{}
	closeOnce sync.Once

	// socket_id -> 连接
	conns map[string]*ClientConn
	// topic -> socket_id -> 连接
	topics map[string]map[string]*ClientConn
}

// NewChannelBroker 创建单机广播代理
func NewChannelBroker() *ChannelBroker {
	return &ChannelBroker{
		login:    make(chan *ClientConn, constants.CHANNEL_SIZE),
		logout:   make(chan *ClientConn, constants.CHANNEL_SIZE),
		transmit: make(chan *Event, constants.CHANNEL_SIZE),
		subs:     make(chan subRequest, constants.CHANNEL_SIZE),
		done:     make(chan struct{}),
		conns:    make(map[string]*ClientConn),
		topics:   make(map[string]map[string]*ClientConn),
	}
}

// Start 事件循环
// 登入/登出/订阅/投递都在这里串行处理，映射表无须加锁
func (b *ChannelBroker) Start() {
	for {
		select {
		case <-b.done:
			return

		case conn := <-b.login:
			if conn == nil {
				continue
			}
			b.conns[conn.SocketID] = conn
			zap.L().Info("client registered",
				zap.String("socket_id", conn.SocketID), zap.Int64("user_id", conn.UserID))

		case conn := <-b.logout:
			if conn == nil {
				continue
			}
			delete(b.conns, conn.SocketID)
			for topic, set := range b.topics {
				delete(set, conn.SocketID)
				if len(set) == 0 {
					delete(b.topics, topic)
				}
			}
			zap.L().Info("client unregistered",
				zap.String("socket_id", conn.SocketID), zap.Int64("user_id", conn.UserID))

		case req := <-b.subs:
			if req.conn == nil {
				continue
			}
			if req.join {
				set := b.topics[req.topic]
				if set == nil {
					set = make(map[string]*ClientConn)
					b.topics[req.topic] = set
				}
				set[req.conn.SocketID] = req.conn
			} else {
				if set, ok := b.topics[req.topic]; ok {
					delete(set, req.conn.SocketID)
					if len(set) == 0 {
						delete(b.topics, req.topic)
					}
				}
			}

		case event := <-b.transmit:
			if event == nil {
				continue
			}
			b.deliver(event)
		}
	}
}

// deliver 将事件投递给主题下除 Exclude 外的所有连接
func (b *ChannelBroker) deliver(event *Event) {
	set, ok := b.topics[event.Topic]
	if !ok {
		return
	}
	for socketID, conn := range set {
		if socketID == event.Exclude {
			continue
		}
		conn.Send(event.Payload)
	}
}

// Publish 实现 Broker 接口：发布事件到事件循环
func (b *ChannelBroker) Publish(ctx context.Context, event *Event) error {
	select {
	case b.transmit <- event:
		return nil
	case <-b.done:
		return errorx.New(errorx.CodeServerBusy, "broker closed")
	case <-ctx.Done():
		return errorx.Wrap(ctx.Err(), errorx.CodeServerBusy, "publish cancelled")
	}
}

// Register 实现 Broker 接口：注册客户端
func (b *ChannelBroker) Register(conn *ClientConn) {
	select {
	case b.login <- conn:
	case <-b.done:
	}
}

// Unregister 实现 Broker 接口：注销客户端
func (b *ChannelBroker) Unregister(conn *ClientConn) {
	select {
	case b.logout <- conn:
	case <-b.done:
	}
}

// Subscribe 实现 Broker 接口：加入主题
func (b *ChannelBroker) Subscribe(conn *ClientConn, topic string) {
	select {
	case b.subs <- subRequest{conn: conn, topic: topic, join: true}:
	case <-b.done:
	}
}

// Unsubscribe 实现 Broker 接口：离开主题
func (b *ChannelBroker) Unsubscribe(conn *ClientConn, topic string) {
	select {
	case b.subs <- subRequest{conn: conn, topic: topic, join: false}:
	case <-b.done:
	}
}

// Close 实现 Broker 接口：停止事件循环
func (b *ChannelBroker) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
}

var _ Broker = (*ChannelBroker)(nil)
