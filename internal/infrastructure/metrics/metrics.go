// Package metrics 提供 Prometheus 指标注册
// 所有指标通过 promauto 注册到默认 Registry，由 /metrics 接口暴露
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections 当前活跃的 WebSocket 连接数
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "duo_chat",
		Name:      "active_connections",
		Help:      "Number of currently attached websocket connections.",
	})

	// OperationTotal 按操作名和结果统计的请求总数
	OperationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "duo_chat",
		Name:      "operation_total",
		Help:      "Total websocket operations processed, labelled by operation and result.",
	}, []string{"operation", "result"})

	// OperationDuration 操作处理耗时分布
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "duo_chat",
		Name:      "operation_duration_seconds",
		Help:      "Websocket operation handling latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	// BroadcastTotal 按主题类型统计的广播事件数
	BroadcastTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "duo_chat",
		Name:      "broadcast_total",
		Help:      "Broadcast events published, labelled by topic kind.",
	}, []string{"kind"})

	// OfflineTransitions 用户由在线转为离线的次数
	OfflineTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "duo_chat",
		Name:      "offline_transitions_total",
		Help:      "Times a user transitioned from online to offline.",
	})

	// PushSent 实际投递的离线推送数
	PushSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "duo_chat",
		Name:      "push_sent_total",
		Help:      "Offline push notifications delivered to the webhook.",
	})

	// PushSuppressed 因接收方正在查看会话而被抑制的推送数
	PushSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "duo_chat",
		Name:      "push_suppressed_total",
		Help:      "Push notifications suppressed because the receiver was viewing the conversation.",
	})
)
