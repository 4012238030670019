// Package chat 实现实时网关的核心服务层
// server.go
// 核心职责：网关聚合结构和连接生命周期
// 封装 Broker、Dispatcher、KafkaClient 等组件，提供统一的生命周期管理
package chat

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"duo_chat_server/internal/dto/respond"
	"duo_chat_server/internal/infrastructure/metrics"
	"duo_chat_server/internal/service/chatops"
	"duo_chat_server/internal/service/presence"
	"duo_chat_server/pkg/errorx"
)

// ChatServer 实时网关聚合结构
// 封装所有网关组件，通过依赖注入管理生命周期
type ChatServer struct {
	// Broker 广播代理，根据配置是 ChannelBroker 或 KafkaBroker
	Broker Broker

	// KafkaClient Kafka 客户端（仅 Kafka 模式使用）
	KafkaClient *KafkaClient

	dispatcher  *Dispatcher
	coordinator *presence.Coordinator
	mode        string
}

// ChatServerConfig 网关配置
type ChatServerConfig struct {
	Mode        string // "channel" 或 "kafka"
	Ops         *chatops.Service
	Coordinator *presence.Coordinator
}

// NewChatServer 创建网关实例
// 根据配置选择 ChannelBroker 或 KafkaBroker
func NewChatServer(cfg ChatServerConfig) *ChatServer {
	cs := &ChatServer{
		coordinator: cfg.Coordinator,
		mode:        cfg.Mode,
	}

	if cfg.Mode == "kafka" {
		cs.KafkaClient = NewKafkaClient()
		cs.Broker = NewKafkaBroker(cs.KafkaClient)
	} else {
		// Channel 模式（默认）
		cs.Broker = NewChannelBroker()
	}
	cs.dispatcher = NewDispatcher(cfg.Ops, cs.Broker)
	return cs
}

// InitKafka 初始化 Kafka 连接（仅 Kafka 模式需要调用）
func (cs *ChatServer) InitKafka() {
	if cs.KafkaClient != nil {
		cs.KafkaClient.KafkaInit()
	}
}

// Start 启动事件循环
func (cs *ChatServer) Start() {
	go cs.Broker.Start()
}

// Close 关闭网关
func (cs *ChatServer) Close() {
	cs.Broker.Close()
	if cs.KafkaClient != nil {
		cs.KafkaClient.KafkaClose()
	}
}

// Attach 将升级完成的 WebSocket 连接接入网关
// 连接状态机：握手 -> 认证 -> 已接入 -> 已断开
// 认证即把连接 ID 绑定到令牌摘要匹配的会话行，无匹配行返回错误，
// 调用方回 unauthorized 并关闭连接，不重试
func (cs *ChatServer) Attach(wsConn *websocket.Conn, userID int64, role, tokenDigest string) error {
	socketID := uuid.NewString()
	if _, err := cs.coordinator.Connect(userID, tokenDigest, socketID); err != nil {
		return err
	}

	client := NewClientConn(wsConn, socketID, userID, role)
	cs.Broker.Register(client)
	// 自动加入自己的多端同步频道
	cs.Broker.Subscribe(client, userTopic(userID))
	metrics.ActiveConnections.Inc()
	zap.L().Info("connection attached",
		zap.String("socket_id", socketID), zap.Int64("user_id", userID))

	go client.WriteLoop()
	go func() {
		// 读泵返回恰好一次，断开清理随之恰好执行一次
		client.ReadLoop(func(raw []byte) {
			cs.dispatcher.Dispatch(client, raw)
		})
		cs.teardown(client)
	}()
	return nil
}

// teardown 连接断开后的一次性清理
func (cs *ChatServer) teardown(client *ClientConn) {
	cs.Broker.Unregister(client)
	client.Close()
	metrics.ActiveConnections.Dec()

	decision, err := cs.coordinator.Disconnect(client.SocketID)
	if err != nil {
		zap.L().Error("disconnect handling failed",
			zap.String("socket_id", client.SocketID), zap.Error(err))
		return
	}
	if decision == nil {
		return
	}
	zap.L().Info("connection detached",
		zap.String("socket_id", client.SocketID),
		zap.Int64("user_id", decision.UserID),
		zap.Bool("went_offline", decision.WentOffline))

	if decision.WentOffline {
		metrics.OfflineTransitions.Inc()
		cs.dispatcher.broadcast(presenceTopic(decision.UserID), client.SocketID,
			OpUserIsOffline, &respond.UserOfflineRespond{UserID: decision.UserID}, "presence")
	}
}

// RejectUnauthorized 向未通过握手认证的连接回拒绝事件并关闭
func RejectUnauthorized(wsConn *websocket.Conn) {
	payload, err := json.Marshal(&Response{
		Operation: OpUnauthorized,
		Success:   false,
		Code:      errorx.CodeUnauthorized,
		Message:   "认证失败，连接关闭",
	})
	if err == nil {
		_ = wsConn.WriteMessage(websocket.TextMessage, payload)
	}
	_ = wsConn.Close()
}
