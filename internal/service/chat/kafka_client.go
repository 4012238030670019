// Package chat 实现实时网关的核心服务层
// kafka_client.go
// 核心职责：Kafka 基础设施管理
// 1. 封装 Kafka 底层连接 (Writer/Reader)
// 2. 提供事件写入/读取接口
// 3. 纯技术组件，不包含网关业务逻辑
package chat

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"duo_chat_server/internal/config"
)

// KafkaClient Kafka 客户端结构
type KafkaClient struct {
	Producer *kafka.Writer // 生产者：负责写入事件
	Consumer *kafka.Reader // 消费者：负责读取事件
}

// NewKafkaClient 创建 Kafka 客户端实例
func NewKafkaClient() *KafkaClient {
	return &KafkaClient{}
}

// KafkaInit 初始化 Kafka 客户端
// 按事件 Topic 做 Hash 分区，同一会话的事件保持有序
func (k *KafkaClient) KafkaInit() {
	kafkaConfig := config.GetConfig().KafkaConfig
	k.Producer = &kafka.Writer{
		Addr:                   kafka.TCP(kafkaConfig.HostPort),
		Topic:                  kafkaConfig.ChatTopic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           kafkaConfig.Timeout * time.Second,
		RequiredAcks:           kafka.RequireNone,
		AllowAutoTopicCreation: false,
	}
	k.Consumer = kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{kafkaConfig.HostPort},
		Topic:          kafkaConfig.ChatTopic,
		CommitInterval: kafkaConfig.Timeout * time.Second,
		// 每个进程独立消费组，广播事件每个进程都要收到一份
		GroupID:     "chat-gateway-" + config.GetConfig().MainConfig.AppName,
		StartOffset: kafka.LastOffset,
	})
}

// KafkaClose 关闭 Kafka 资源
func (k *KafkaClient) KafkaClose() {
	if k.Producer != nil {
		if err := k.Producer.Close(); err != nil {
			zap.L().Error("close kafka producer", zap.Error(err))
		}
	}
	if k.Consumer != nil {
		if err := k.Consumer.Close(); err != nil {
			zap.L().Error("close kafka consumer", zap.Error(err))
		}
	}
}

// WriteEvent 写入一条广播事件
func (k *KafkaClient) WriteEvent(ctx context.Context, key, value []byte) error {
	return k.Producer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

// ReadEvent 读取一条广播事件（阻塞直到有消息或 ctx 取消）
func (k *KafkaClient) ReadEvent(ctx context.Context) ([]byte, error) {
	msg, err := k.Consumer.ReadMessage(ctx)
	if err != nil {
		return nil, err
	}
	return msg.Value, nil
}
