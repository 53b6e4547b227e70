package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeCardPreview = "card:preview"
)

// 预览任务的重试与超时设置。
const (
	PreviewMaxRetry = 3
	PreviewTimeout  = 90 * time.Second
)

// CardPreviewPayload 描述生成卡片预览图所需的最小信息。
type CardPreviewPayload struct {
	CardID        uint   `json:"card_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewCardPreviewTask 构造一个新的卡片预览图任务。
// 同一张卡片在排队期间只保留一个任务。
func NewCardPreviewTask(cardID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(CardPreviewPayload{
		CardID:        cardID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCardPreview, payload,
		asynq.MaxRetry(PreviewMaxRetry),
		asynq.Timeout(PreviewTimeout),
		asynq.TaskID(PreviewTaskID(cardID)),
	), nil
}

// PreviewTaskID 返回卡片预览任务的去重 ID。
func PreviewTaskID(cardID uint) string {
	return fmt.Sprintf("card-preview-%d", cardID)
}

// ParseCardPreviewPayload 解析任务负载。
func ParseCardPreviewPayload(data []byte) (CardPreviewPayload, error) {
	var payload CardPreviewPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.CardID == 0 {
		return payload, fmt.Errorf("payload missing card_id")
	}
	return payload, nil
}

// CardNotifyChannel 返回卡片预览进度通知使用的 Redis Pub/Sub 频道。
func CardNotifyChannel(cardID uint) string {
	return fmt.Sprintf("card_notify:%d", cardID)
}

// PreviewObjectKey 返回卡片预览图在对象存储中的位置。
func PreviewObjectKey(cardID uint) string {
	return PreviewObjectPrefix(cardID) + "preview.jpg"
}

// PreviewObjectPrefix 返回卡片所有预览产物共享的前缀。
func PreviewObjectPrefix(cardID uint) string {
	return fmt.Sprintf("thumbnails/card/%d/", cardID)
}
