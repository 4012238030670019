// Package chat 实现实时网关的核心服务层
// kafka_broker.go
// 核心职责：分布式模式下的广播代理实现
// 发布走 Kafka，消费循环把事件喂给本地 ChannelBroker 做进程内投递，
// 同一用户的连接落在不同进程时广播仍然可达
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"go.uber.org/zap"
)

// KafkaBroker 分布式广播代理
// 连接/订阅管理完全委托给进程内的 local broker，Kafka 只承载事件流
type KafkaBroker struct {
	local  *ChannelBroker
	client *KafkaClient

	cancel context.CancelFunc
}

// NewKafkaBroker 创建分布式广播代理
func NewKafkaBroker(client *KafkaClient) *KafkaBroker {
	return &KafkaBroker{
		local:  NewChannelBroker(),
		client: client,
	}
}

// Publish 实现 Broker 接口：事件写入 Kafka
// 本进程的投递同样经由消费循环，所有进程走同一条路径
func (b *KafkaBroker) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.WriteEvent(ctx, []byte(event.Topic), payload)
}

// Register 实现 Broker 接口
func (b *KafkaBroker) Register(conn *ClientConn) {
	b.local.Register(conn)
}

// Unregister 实现 Broker 接口
func (b *KafkaBroker) Unregister(conn *ClientConn) {
	b.local.Unregister(conn)
}

// Subscribe 实现 Broker 接口
func (b *KafkaBroker) Subscribe(conn *ClientConn, topic string) {
	b.local.Subscribe(conn, topic)
}

// Unsubscribe 实现 Broker 接口
func (b *KafkaBroker) Unsubscribe(conn *ClientConn, topic string) {
	b.local.Unsubscribe(conn, topic)
}

// Start 实现 Broker 接口：启动本地事件循环和 Kafka 消费循环
func (b *KafkaBroker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	go b.local.Start()

	for {
		value, err := b.client.ReadEvent(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return
			}
			zap.L().Error("kafka consume error", zap.Error(err))
			continue
		}
		var event Event
		if err := json.Unmarshal(value, &event); err != nil {
			zap.L().Error("undecodable broadcast event", zap.Error(err))
			continue
		}
		if err := b.local.Publish(ctx, &event); err != nil {
			zap.L().Warn("local delivery failed", zap.String("topic", event.Topic), zap.Error(err))
		}
	}
}

// Close 实现 Broker 接口
func (b *KafkaBroker) Close() {
	if b.cancel != nil {
		b.cancel()
	}
	b.local.Close()
}

var _ Broker = (*KafkaBroker)(nil)
