// Package push 提供离线消息的推送通道
// 推送由外部协作方（APNs / FCM 网关）完成，这里只负责把摘要投递到 webhook
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"duo_chat_server/internal/config"
	"duo_chat_server/internal/infrastructure/metrics"
)

// Notification 推送摘要
// Preview 已按长度截断，不包含媒体内容
type Notification struct {
	UserID         int64    `json:"user_id"`
	DeviceTokens   []string `json:"device_tokens"`
	SenderID       int64    `json:"sender_id"`
	ConversationID int64    `json:"conversation_id"`
	Preview        string   `json:"preview"`
}

// Notifier 推送通道接口
type Notifier interface {
	Notify(ctx context.Context, n *Notification)
}

// WebhookNotifier 通过 HTTP webhook 投递推送的实现
type WebhookNotifier struct {
	url    string
	client *http.Client
	tasks  chan *Notification
}

// NewWebhookNotifier 创建 webhook 推送器并启动投递 Worker
func NewWebhookNotifier(cfg *config.PushConfig) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	n := &WebhookNotifier{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: timeout},
		tasks:  make(chan *Notification, 1000),
	}
	for i := 0; i < 4; i++ {
		go n.worker()
	}
	return n
}

// Notify 异步投递推送，通道满时丢弃并告警
// 推送是尽力而为的通知，不能反压消息收发主链路
func (w *WebhookNotifier) Notify(ctx context.Context, n *Notification) {
	select {
	case w.tasks <- n:
	default:
		zap.L().Warn("push queue full, notification dropped",
			zap.Int64("user_id", n.UserID))
	}
}

// worker 消费推送任务并逐条投递
func (w *WebhookNotifier) worker() {
	for n := range w.tasks {
		w.deliver(n)
	}
}

// deliver 执行单次 webhook 投递
func (w *WebhookNotifier) deliver(n *Notification) {
	body, err := json.Marshal(n)
	if err != nil {
		zap.L().Error("marshal push notification failed", zap.Error(err))
		return
	}

	req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		zap.L().Error("build push request failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		zap.L().Warn("push webhook delivery failed",
			zap.Int64("user_id", n.UserID), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		zap.L().Warn("push webhook returned non-2xx",
			zap.Int("status", resp.StatusCode), zap.Int64("user_id", n.UserID))
		return
	}
	metrics.PushSent.Inc()
}

// NopNotifier 推送关闭时的空实现
type NopNotifier struct{}

// Notify 丢弃推送
func (NopNotifier) Notify(ctx context.Context, n *Notification) {}

var (
	_ Notifier = (*WebhookNotifier)(nil)
	_ Notifier = NopNotifier{}
)
