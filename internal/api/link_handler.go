package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"greetcard/internal/api/middleware"
	"greetcard/internal/auth"
	"greetcard/internal/database"
	"greetcard/internal/locale"
	"greetcard/internal/metrics"
	"greetcard/internal/seo"
	"greetcard/internal/sharelink"
)

const (
	slugLength   = 8
	slugAttempts = 5
)

// LinkHandler 负责短链接的创建与落地页。
type LinkHandler struct {
	db      *gorm.DB
	tokens  *auth.TokenService
	locales *locale.Resolver
	links   linkBuilder
	newSlug func() string
}

func NewLinkHandler(db *gorm.DB, tokens *auth.TokenService, locales *locale.Resolver, links linkBuilder) *LinkHandler {
	return &LinkHandler{db: db, tokens: tokens, locales: locales, links: links, newSlug: randomSlug}
}

// createLinkRequest 三选一：已编码的查询串、卡片 ID 或完整文档。
type createLinkRequest struct {
	Query    string          `json:"query"`
	CardID   *uint           `json:"cardId"`
	Document json.RawMessage `json:"document"`
}

// Create 为一条分享链接分配短 slug。查询串会先解码再重新编码，保存的总是规范形式。
func (h *LinkHandler) Create(c *gin.Context) {
	var req createLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	link := database.ShortLink{CardID: req.CardID}
	switch {
	case req.CardID != nil:
		var card database.Card
		if err := h.db.WithContext(c.Request.Context()).First(&card, *req.CardID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				NotFound(c, "card not found")
				return
			}
			Internal(c, "failed to load card")
			return
		}
		if !canViewCard(c, h.tokens, &card) {
			Forbidden(c, "passcode required")
			return
		}
		doc := card.DecodedDocument()
		link.Query, link.EventType = sharelink.EncodeQuery(doc), doc.EventType
	case len(req.Document) > 0:
		doc, ok := decodeDocumentBody(req.Document)
		if !ok {
			BadRequest(c, "document must be a JSON object")
			return
		}
		link.Query, link.EventType = sharelink.EncodeQuery(doc), doc.EventType
	case strings.TrimSpace(req.Query) != "":
		doc := sharelink.ParseQuery(strings.TrimPrefix(strings.TrimSpace(req.Query), "?"))
		link.Query, link.EventType = sharelink.EncodeQuery(doc), doc.EventType
	default:
		BadRequest(c, "query, cardId or document is required")
		return
	}

	if err := h.insertWithSlug(c, &link); err != nil {
		middleware.LoggerFromContext(c).Error("create short link", slog.Any("error", err))
		Internal(c, "failed to create link")
		return
	}
	metrics.ShareLink("shorten")

	c.JSON(http.StatusCreated, gin.H{
		"slug":     link.Slug,
		"url":      h.links.shortURL(link.Slug),
		"shareUrl": h.links.viewerURLForQuery(link.Query),
	})
}

// insertWithSlug 在 slug 冲突时换一个重试。
func (h *LinkHandler) insertWithSlug(c *gin.Context, link *database.ShortLink) error {
	var err error
	for i := 0; i < slugAttempts; i++ {
		link.ID = 0
		link.Slug = h.newSlug()
		err = h.db.WithContext(c.Request.Context()).Create(link).Error
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return err
		}
	}
	return err
}

// Resolve 输出短链接落地页：带 Open Graph 标签，浏览器随即跳转到查看页。
func (h *LinkHandler) Resolve(c *gin.Context) {
	slug := c.Param("slug")
	if !isValidSlug(slug) {
		NotFound(c, "link not found")
		return
	}

	var link database.ShortLink
	if err := h.db.WithContext(c.Request.Context()).Where("slug = ?", slug).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "link not found")
			return
		}
		middleware.LoggerFromContext(c).Error("query short link", slog.String("slug", slug), slog.Any("error", err))
		Internal(c, "failed to resolve link")
		return
	}

	lang := h.locales.Resolve(c.Query("lang"), c.GetHeader("Accept-Language"))
	meta := seo.For(link.EventType, lang.Code)
	target := h.links.viewerURLForQuery(link.Query)
	meta.Canonical = target
	if link.CardID != nil {
		var card database.Card
		err := h.db.WithContext(c.Request.Context()).Select("id", "preview_image_url", "passcode_hash").First(&card, *link.CardID).Error
		// 口令保护的卡片不在公开落地页暴露预览图。
		if err == nil && !card.HasPasscode() {
			meta.OGImage = card.PreviewImageURL
		}
	}

	page, err := seo.SharePage{Meta: meta, Dir: string(lang.Direction), RedirectURL: target}.Render()
	if err != nil {
		Internal(c, "failed to render page")
		return
	}
	metrics.ShareLink("resolve")
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func randomSlug() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:slugLength]
}

func isValidSlug(slug string) bool {
	if len(slug) == 0 || len(slug) > 16 {
		return false
	}
	for _, r := range slug {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// isUniqueViolation 兼容 PostgreSQL 与 SQLite 的唯一约束错误。
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
