// Package chat 实现实时网关的核心服务层
// broker.go
// 核心职责：定义广播代理接口
// 抽象事件发布与连接/主题管理，支持 Kafka 和 Channel 两种实现
package chat

import (
	"context"
	"fmt"
)

// Event 一次广播事件
// Topic 决定投递到哪个订阅集合，Exclude 跳过发起方连接（发起方
// 走直接响应，不吃自己的广播），Payload 是完整的响应信封 JSON
type Event struct {
	Topic   string `json:"topic"`
	Exclude string `json:"exclude"`
	Payload []byte `json:"payload"`
}

// Broker 定义广播代理接口
// 支持多种实现：KafkaBroker (分布式), ChannelBroker (单机)
type Broker interface {
	// Publish 发布事件到订阅了 Topic 的连接集合
	Publish(ctx context.Context, event *Event) error
	// Register 注册客户端连接
	Register(conn *ClientConn)
	// Unregister 注销客户端连接并清理其全部订阅
	Unregister(conn *ClientConn)
	// Subscribe 将连接加入主题的订阅集合
	Subscribe(conn *ClientConn, topic string)
	// Unsubscribe 将连接从主题的订阅集合移除
	Unsubscribe(conn *ClientConn, topic string)
	// Start 启动事件循环
	Start()
	// Close 关闭代理资源
	Close()
}

// 主题命名空间
// conv:<id>     会话频道，setViewing(true) 加入
// user:<id>     用户自己的多端同步频道，连接建立时自动加入
// presence:<id> 对端在线状态频道，查看共同会话时加入
func convTopic(convID int64) string {
	return fmt.Sprintf("conv:%d", convID)
}

func userTopic(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

func presenceTopic(userID int64) string {
	return fmt.Sprintf("presence:%d", userID)
}
