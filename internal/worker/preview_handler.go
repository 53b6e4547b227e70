package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"greetcard/internal/database"
	"greetcard/internal/errcode"
	"greetcard/internal/metrics"
	"greetcard/internal/sharelink"
	"greetcard/internal/tasks"
)

// Uploader 是对象存储中写入对象的部分。
type Uploader interface {
	UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
}

// PreviewTaskHandler 负责消费卡片预览图任务。
type PreviewTaskHandler struct {
	db              *gorm.DB
	storage         Uploader
	publisher       Publisher
	renderer        Renderer
	logger          *slog.Logger
	frontendBaseURL string
	publicBaseURL   string
}

// NewPreviewTaskHandler 创建任务处理器。
// frontendBaseURL 为空时使用内置模板渲染；publicBaseURL 用于生成稳定的预览图地址。
func NewPreviewTaskHandler(
	db *gorm.DB,
	storage Uploader,
	publisher Publisher,
	renderer Renderer,
	logger *slog.Logger,
	frontendBaseURL string,
	publicBaseURL string,
) *PreviewTaskHandler {
	return &PreviewTaskHandler{
		db:              db,
		storage:         storage,
		publisher:       publisher,
		renderer:        renderer,
		logger:          logger,
		frontendBaseURL: strings.TrimSpace(frontendBaseURL),
		publicBaseURL:   strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *PreviewTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	payload, err := tasks.ParseCardPreviewPayload(t.Payload())
	if err != nil {
		log.Error("parse task payload failed", slog.Any("error", err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("card_id", uint64(payload.CardID)),
	)
	log.Info("Starting card preview task...")

	var card database.Card
	if err := h.db.WithContext(ctx).First(&card, payload.CardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("card not found, skipping task")
			notify := PreviewNotifyMessage{
				Status:        NotifyError,
				CardID:        payload.CardID,
				CorrelationID: payload.CorrelationID,
				ErrorCode:     errcode.ResourceMissing,
			}
			if err := publishNotify(ctx, h.publisher, notify); err != nil {
				log.Warn("publish missing card notification failed", slog.Any("error", err))
			}
			return nil
		}
		log.Error("query card failed", slog.Any("error", err))
		return err
	}

	defer func() {
		if retErr == nil || !isFinalAsynqAttempt(ctx) {
			return
		}
		if err := h.setStatus(ctx, &card, database.PreviewStatusFailed); err != nil {
			log.Error("mark preview failed", slog.Any("error", err))
		}
		notify := PreviewNotifyMessage{
			Status:        NotifyError,
			CardID:        card.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := publishNotify(ctx, h.publisher, notify); err != nil {
			log.Error("publish preview error notification failed", slog.Any("error", err))
		}
	}()

	if err := h.setStatus(ctx, &card, database.PreviewStatusProcessing); err != nil {
		log.Error("mark preview processing failed", slog.Any("error", err))
		return err
	}
	if err := publishNotify(ctx, h.publisher, PreviewNotifyMessage{
		Status:        NotifyProcessing,
		CardID:        card.ID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}); err != nil {
		log.Warn("publish processing notification failed", slog.Any("error", err))
	}

	target, err := h.renderTarget(card)
	if err != nil {
		log.Error("build render target failed", slog.Any("error", err))
		return err
	}

	start := time.Now()
	shot, err := h.renderer.Screenshot(ctx, target)
	metrics.PreviewRendered(target.Name(), time.Since(start).Seconds(), err)
	if err != nil {
		log.Error("render card preview failed", slog.String("renderer", target.Name()), slog.Any("error", err))
		return err
	}

	objectKey := tasks.PreviewObjectKey(card.ID)
	if err := h.storage.UploadFile(ctx, objectKey, bytes.NewReader(shot), int64(len(shot)), "image/jpeg"); err != nil {
		log.Error("upload preview to minio failed", slog.Any("error", err))
		return err
	}

	previewURL := h.assetURL(objectKey)
	if err := h.db.WithContext(ctx).Model(&card).Updates(map[string]any{
		"preview_image_url":  previewURL,
		"preview_object_key": objectKey,
		"preview_status":     database.PreviewStatusCompleted,
	}).Error; err != nil {
		log.Error("update card preview failed", slog.Any("error", err))
		return err
	}

	notify := PreviewNotifyMessage{
		Status:        NotifyCompleted,
		CardID:        card.ID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
		PreviewURL:    previewURL,
	}
	// 预览图已经落库，通知失败不重试，客户端可以通过 GET /v1/cards/:id 拿到结果。
	if err := publishNotify(ctx, h.publisher, notify); err != nil {
		log.Warn("publish completion notification failed", slog.Any("error", err))
	}

	log.Info("Card preview task completed.", slog.Int("bytes", len(shot)))
	return nil
}

func (h *PreviewTaskHandler) renderTarget(card database.Card) (RenderTarget, error) {
	doc := card.DecodedDocument()
	if h.frontendBaseURL != "" {
		target, err := sharelink.BuildURL(h.frontendBaseURL, doc)
		if err != nil {
			return RenderTarget{}, err
		}
		return RenderTarget{URL: target}, nil
	}
	html, err := RenderCardHTML(doc)
	if err != nil {
		return RenderTarget{}, err
	}
	return RenderTarget{HTML: html}, nil
}

// assetURL 返回经由 API 302 跳转到预签名地址的稳定链接，预签名过期后链接仍然可用。
func (h *PreviewTaskHandler) assetURL(objectKey string) string {
	return h.publicBaseURL + "/v1/assets/view?key=" + url.QueryEscape(objectKey)
}

func (h *PreviewTaskHandler) setStatus(ctx context.Context, card *database.Card, status string) error {
	return h.db.WithContext(ctx).Model(card).Update("preview_status", status).Error
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
