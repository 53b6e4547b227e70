package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"greetcard/internal/greeting"
	"greetcard/internal/locale"
	"greetcard/internal/seo"
)

// CatalogHandler 提供编辑器所需的静态选项和页面元数据。
type CatalogHandler struct {
	locales *locale.Resolver
}

func NewCatalogHandler(locales *locale.Resolver) *CatalogHandler {
	return &CatalogHandler{locales: locales}
}

// Catalog 返回事件类型、样式选项、语言表和集合上限。
func (h *CatalogHandler) Catalog(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(http.StatusOK, gin.H{
		"eventTypes":              greeting.EventTypes(),
		"animationStyles":         greeting.AnimationStyles(),
		"layouts":                 greeting.LayoutStyles(),
		"borderStyles":            greeting.BorderStyles(),
		"borderElementAnimations": greeting.BorderElementAnimations(),
		"backgroundAnimations":    greeting.BackgroundAnimations(),
		"languages":               locale.Languages(),
		"defaultLanguage":         h.locales.Default().Code,
		"limits": gin.H{
			"texts":          greeting.MaxTexts,
			"media":          greeting.MaxMedia,
			"borderElements": greeting.MaxBorderElements,
		},
	})
}

// SEO 返回 ?eventType= 在请求语言下的元数据。
func (h *CatalogHandler) SEO(c *gin.Context) {
	lang := h.locales.Resolve(c.Query("lang"), c.GetHeader("Accept-Language"))
	c.JSON(http.StatusOK, seo.For(c.Query("eventType"), lang.Code))
}
