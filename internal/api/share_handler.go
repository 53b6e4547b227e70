package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"greetcard/internal/greeting"
	"greetcard/internal/metrics"
	"greetcard/internal/sharelink"
)

// linkBuilder 拼接对外地址：查看页、短链接、资源跳转。
type linkBuilder struct {
	public string
	viewer string
}

func newLinkBuilder(publicBaseURL, viewerBaseURL string) linkBuilder {
	return linkBuilder{
		public: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		viewer: strings.TrimSpace(viewerBaseURL),
	}
}

func (l linkBuilder) viewerURL(doc greeting.Document) (string, error) {
	return sharelink.BuildURL(l.viewer, doc)
}

// viewerURLForQuery 把已编码的查询串拼到查看页地址后面。
func (l linkBuilder) viewerURLForQuery(query string) string {
	if query == "" {
		return l.viewer
	}
	sep := "?"
	if strings.Contains(l.viewer, "?") {
		sep = "&"
	}
	return l.viewer + sep + query
}

func (l linkBuilder) shortURL(slug string) string {
	return l.public + "/s/" + slug
}

func (l linkBuilder) assetURL(objectKey string) string {
	return l.public + "/v1/assets/view?key=" + url.QueryEscape(objectKey)
}

// ShareHandler 提供无状态的文档与分享链接互转。
type ShareHandler struct {
	links linkBuilder
}

func NewShareHandler(links linkBuilder) *ShareHandler {
	return &ShareHandler{links: links}
}

// Encode 接收文档 JSON，返回查询串与完整的查看页地址。
func (h *ShareHandler) Encode(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		BadRequest(c, "invalid document")
		return
	}
	doc, ok := decodeDocumentBody(raw)
	if !ok {
		BadRequest(c, "document must be a JSON object")
		return
	}
	shareURL, err := h.links.viewerURL(doc)
	if err != nil {
		Internal(c, "failed to build share url")
		return
	}
	metrics.ShareLink("encode")

	c.JSON(http.StatusOK, gin.H{
		"query": sharelink.EncodeQuery(doc),
		"url":   shareURL,
	})
}

// Decode 解析当前请求的查询参数，返回补齐默认值后的文档。
func (h *ShareHandler) Decode(c *gin.Context) {
	doc := sharelink.ParseQuery(c.Request.URL.RawQuery)
	metrics.ShareLink("decode")
	c.Data(http.StatusOK, "application/json; charset=utf-8", sharelink.MarshalDocument(doc))
}
