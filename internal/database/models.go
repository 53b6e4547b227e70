package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"greetcard/internal/greeting"
	"greetcard/internal/sharelink"
)

// 预览图状态。
const (
	PreviewStatusNone       = ""
	PreviewStatusPending    = "pending"
	PreviewStatusProcessing = "processing"
	PreviewStatusCompleted  = "completed"
	PreviewStatusFailed     = "failed"
)

// Card 表示一张保存在服务端的贺卡草稿。
// Document 保存规范化后的文档 JSON，读取时走与分享链接相同的降级解码。
type Card struct {
	gorm.Model
	Title            string         `gorm:"size:255"`
	Document         datatypes.JSON `gorm:"type:jsonb"`
	EventType        string         `gorm:"size:64;index"`
	PasscodeHash     string         `gorm:"size:255"`
	PreviewImageURL  string         `gorm:"size:512"`
	PreviewObjectKey string         `gorm:"size:512"`
	PreviewStatus    string         `gorm:"size:32"`
}

// SetDocument 写入文档并同步冗余的事件类型列。
func (c *Card) SetDocument(doc greeting.Document) {
	c.Document = datatypes.JSON(sharelink.MarshalDocument(doc))
	c.EventType = doc.EventType
}

// DecodedDocument 解码存储的文档，损坏的字段回落到默认值。
func (c Card) DecodedDocument() greeting.Document {
	return sharelink.DecodeDocumentJSON(c.Document)
}

// HasPasscode 表示查看该卡片是否需要口令。
func (c Card) HasPasscode() bool {
	return c.PasscodeHash != ""
}

// ShortLink 把短 slug 映射到一条完整的分享查询串。
type ShortLink struct {
	gorm.Model
	Slug      string `gorm:"uniqueIndex;size:16"`
	Query     string `gorm:"type:text"`
	EventType string `gorm:"size:64"`
	CardID    *uint  `gorm:"index"`
}

// Models 返回需要自动迁移的模型。
func Models() []any {
	return []any{&Card{}, &ShortLink{}}
}
