package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"greetcard/internal/errcode"
	"greetcard/internal/tasks"
)

// 预览通知状态。
const (
	NotifyProcessing = "processing"
	NotifyCompleted  = "completed"
	NotifyError      = "error"
)

// PreviewNotifyMessage 是通过 Redis Pub/Sub 转发给 WebSocket 客户端的消息。
// 字段名与前端解析保持一致。
type PreviewNotifyMessage struct {
	Status        string `json:"status"`
	CardID        uint   `json:"card_id"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
	PreviewURL    string `json:"preview_url,omitempty"`
}

// Publisher 是 *redis.Client 中发布消息的部分。
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

func publishNotify(ctx context.Context, publisher Publisher, notify PreviewNotifyMessage) error {
	if notify.ErrorMessage == "" {
		notify.ErrorMessage = errcode.Message(notify.ErrorCode)
	}
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := tasks.CardNotifyChannel(notify.CardID)
	if err := publisher.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
