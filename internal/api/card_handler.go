package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"greetcard/internal/api/middleware"
	"greetcard/internal/auth"
	"greetcard/internal/database"
	"greetcard/internal/greeting"
	"greetcard/internal/metrics"
	"greetcard/internal/sharelink"
	"greetcard/internal/tasks"
)

const (
	maxTitleLength = 255
	// bcrypt 只使用前 72 字节。
	maxPasscodeBytes = 72
	passcodeHeader   = "X-Card-Passcode"
)

// CardHandler 负责服务端保存的卡片草稿。
type CardHandler struct {
	db      *gorm.DB
	tokens  *auth.TokenService
	tasks   TaskEnqueuer
	storage ObjectStore
	links   linkBuilder
}

func NewCardHandler(db *gorm.DB, tokens *auth.TokenService, tasks TaskEnqueuer, storage ObjectStore, links linkBuilder) *CardHandler {
	return &CardHandler{db: db, tokens: tokens, tasks: tasks, storage: storage, links: links}
}

type createCardRequest struct {
	Title    string          `json:"title"`
	Document json.RawMessage `json:"document"`
	Passcode string          `json:"passcode"`
}

type replaceCardRequest struct {
	Title    *string         `json:"title"`
	Document json.RawMessage `json:"document"`
	Passcode *string         `json:"passcode"`
}

type cardResponse struct {
	ID              uint            `json:"id"`
	Title           string          `json:"title"`
	EventType       string          `json:"eventType"`
	Document        json.RawMessage `json:"document"`
	ShareURL        string          `json:"shareUrl"`
	HasPasscode     bool            `json:"hasPasscode"`
	PreviewStatus   string          `json:"previewStatus"`
	PreviewImageURL string          `json:"previewImageUrl,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Create 保存一张新卡片并返回编辑令牌。令牌只在这里出现一次。
func (h *CardHandler) Create(c *gin.Context) {
	var req createCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	doc, ok := decodeDocumentBody(req.Document)
	if !ok {
		BadRequest(c, "document must be a JSON object")
		return
	}
	if len(req.Passcode) > maxPasscodeBytes {
		BadRequest(c, "passcode too long")
		return
	}

	card := database.Card{Title: cardTitle(req.Title, doc)}
	card.SetDocument(doc)
	if req.Passcode != "" {
		hash, err := auth.HashPasscode(req.Passcode)
		if err != nil {
			Internal(c, "failed to create card")
			return
		}
		card.PasscodeHash = hash
	}

	log := middleware.LoggerFromContext(c)
	if err := h.db.WithContext(c.Request.Context()).Create(&card).Error; err != nil {
		log.Error("create card", slog.Any("error", err))
		Internal(c, "failed to create card")
		return
	}

	token, err := h.tokens.IssueEditToken(card.ID)
	if err != nil {
		log.Error("issue edit token", slog.Uint64("card_id", uint64(card.ID)), slog.Any("error", err))
		Internal(c, "failed to create card")
		return
	}
	metrics.CardCreated(card.EventType)

	shareURL, _ := h.links.viewerURL(doc)
	c.JSON(http.StatusCreated, gin.H{
		"id":        card.ID,
		"editToken": token,
		"shareUrl":  shareURL,
	})
}

// Get 返回卡片。设置了口令的卡片需要 X-Card-Passcode 或有效的编辑令牌。
func (h *CardHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "invalid card id")
		return
	}
	card, ok := h.loadCard(c, uint(id))
	if !ok {
		return
	}
	if !h.canView(c, card) {
		Forbidden(c, "passcode required")
		return
	}
	c.JSON(http.StatusOK, h.toResponse(card))
}

func (h *CardHandler) canView(c *gin.Context, card *database.Card) bool {
	return canViewCard(c, h.tokens, card)
}

// canViewCard 口令保护的卡片只对提供正确口令或该卡片编辑令牌的请求可见。
func canViewCard(c *gin.Context, tokens *auth.TokenService, card *database.Card) bool {
	if !card.HasPasscode() {
		return true
	}
	if passcode := c.GetHeader(passcodeHeader); passcode != "" && auth.CheckPasscode(passcode, card.PasscodeHash) {
		return true
	}
	if token := middleware.EditTokenFromRequest(c); token != "" && tokens != nil {
		_, err := tokens.AuthorizeCard(token, card.ID)
		return err == nil
	}
	return false
}

// Replace 整体替换文档，标题和口令为可选字段；passcode 为空字符串时移除口令。
func (h *CardHandler) Replace(c *gin.Context) {
	id, _ := middleware.CardIDFromContext(c)

	var req replaceCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	updates := map[string]any{}
	var doc *greeting.Document
	if len(req.Document) > 0 {
		decoded, ok := decodeDocumentBody(req.Document)
		if !ok {
			BadRequest(c, "document must be a JSON object")
			return
		}
		doc = &decoded
	}
	if req.Passcode != nil {
		if len(*req.Passcode) > maxPasscodeBytes {
			BadRequest(c, "passcode too long")
			return
		}
		hash := ""
		if *req.Passcode != "" {
			var err error
			if hash, err = auth.HashPasscode(*req.Passcode); err != nil {
				Internal(c, "failed to update card")
				return
			}
		}
		updates["passcode_hash"] = hash
	}

	card, ok := h.loadCard(c, id)
	if !ok {
		return
	}
	if doc != nil {
		card.SetDocument(*doc)
		updates["document"] = card.Document
		updates["event_type"] = card.EventType
	}
	if req.Title != nil {
		updates["title"] = cardTitle(*req.Title, card.DecodedDocument())
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, h.toResponse(card))
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Model(card).Updates(updates).Error; err != nil {
		middleware.LoggerFromContext(c).Error("update card", slog.Uint64("card_id", uint64(id)), slog.Any("error", err))
		Internal(c, "failed to update card")
		return
	}
	h.respondFresh(c, id)
}

// Patch 在事务中依次应用一组编辑操作，任何一步失败都不会写入。
func (h *CardHandler) Patch(c *gin.Context) {
	id, _ := middleware.CardIDFromContext(c)

	var edits []greeting.Edit
	if err := c.ShouldBindJSON(&edits); err != nil {
		BadRequest(c, "invalid edit list")
		return
	}
	if len(edits) == 0 {
		BadRequest(c, "edit list is empty")
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var card database.Card
		if err := tx.First(&card, id).Error; err != nil {
			return err
		}
		doc, err := greeting.Apply(card.DecodedDocument(), edits...)
		if err != nil {
			return err
		}
		card.SetDocument(doc)
		return tx.Model(&card).Updates(map[string]any{
			"document":   card.Document,
			"event_type": card.EventType,
		}).Error
	})
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "card not found")
		return
	case errors.Is(err, greeting.ErrNotFound):
		NotFound(c, err.Error())
		return
	case errors.Is(err, greeting.ErrLimitReached):
		Conflict(c, err.Error())
		return
	case errors.Is(err, greeting.ErrInvalidEdit):
		BadRequest(c, err.Error())
		return
	default:
		middleware.LoggerFromContext(c).Error("patch card", slog.Uint64("card_id", uint64(id)), slog.Any("error", err))
		Internal(c, "failed to update card")
		return
	}
	h.respondFresh(c, id)
}

// Delete 软删除卡片，并尽力清理它的预览图。
func (h *CardHandler) Delete(c *gin.Context) {
	id, _ := middleware.CardIDFromContext(c)
	log := middleware.LoggerFromContext(c)

	result := h.db.WithContext(c.Request.Context()).Delete(&database.Card{}, id)
	if result.Error != nil {
		log.Error("delete card", slog.Uint64("card_id", uint64(id)), slog.Any("error", result.Error))
		Internal(c, "failed to delete card")
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "card not found")
		return
	}

	if h.storage != nil {
		if err := h.storage.DeletePrefix(c.Request.Context(), tasks.PreviewObjectPrefix(id)); err != nil {
			log.Warn("delete card preview objects", slog.Uint64("card_id", uint64(id)), slog.Any("error", err))
		}
	}
	c.Status(http.StatusNoContent)
}

// RequestPreview 投递预览图任务。同一张卡片已有排队任务时同样返回 202。
func (h *CardHandler) RequestPreview(c *gin.Context) {
	id, _ := middleware.CardIDFromContext(c)
	log := middleware.LoggerFromContext(c)

	if h.tasks == nil {
		Unavailable(c, "preview queue unavailable")
		return
	}
	card, ok := h.loadCard(c, id)
	if !ok {
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewCardPreviewTask(card.ID, correlationID)
	if err != nil {
		log.Error("build preview task", slog.Any("error", err))
		Internal(c, "failed to queue preview")
		return
	}
	if _, err := h.tasks.EnqueueContext(c.Request.Context(), task); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		log.Error("enqueue preview task", slog.Uint64("card_id", uint64(id)), slog.Any("error", err))
		Internal(c, "failed to queue preview")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Model(card).Update("preview_status", database.PreviewStatusPending).Error; err != nil {
		log.Warn("mark preview pending", slog.Uint64("card_id", uint64(id)), slog.Any("error", err))
	}

	c.JSON(http.StatusAccepted, gin.H{
		"cardId":        card.ID,
		"status":        database.PreviewStatusPending,
		"correlationId": correlationID,
	})
}

func (h *CardHandler) loadCard(c *gin.Context, id uint) (*database.Card, bool) {
	var card database.Card
	if err := h.db.WithContext(c.Request.Context()).First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "card not found")
			return nil, false
		}
		middleware.LoggerFromContext(c).Error("query card", slog.Uint64("card_id", uint64(id)), slog.Any("error", err))
		Internal(c, "failed to load card")
		return nil, false
	}
	return &card, true
}

func (h *CardHandler) respondFresh(c *gin.Context, id uint) {
	card, ok := h.loadCard(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.toResponse(card))
}

func (h *CardHandler) toResponse(card *database.Card) cardResponse {
	doc := card.DecodedDocument()
	shareURL, _ := h.links.viewerURL(doc)
	return cardResponse{
		ID:              card.ID,
		Title:           card.Title,
		EventType:       card.EventType,
		Document:        sharelink.MarshalDocument(doc),
		ShareURL:        shareURL,
		HasPasscode:     card.HasPasscode(),
		PreviewStatus:   card.PreviewStatus,
		PreviewImageURL: card.PreviewImageURL,
		CreatedAt:       card.CreatedAt,
		UpdatedAt:       card.UpdatedAt,
	}
}

// decodeDocumentBody 要求顶层是 JSON 对象，字段级错误按分享链接规则降级。
func decodeDocumentBody(raw json.RawMessage) (greeting.Document, bool) {
	var fields map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &fields) != nil || fields == nil {
		return greeting.Document{}, false
	}
	return sharelink.DecodeDocumentJSON(raw), true
}

func cardTitle(title string, doc greeting.Document) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = doc.DisplayEventName()
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		title = string([]rune(title)[:maxTitleLength])
	}
	return title
}
