// Package sharelink 在 greeting.Document 与 URL 查询参数之间互相转换。
//
// 标量字段非空时以原值输出，复合字段以 JSON 文本输出；解码时缺失或损坏的字段
// 逐个回落到默认值，整个文档永远可以渲染。
package sharelink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"greetcard/internal/greeting"
)

// 查询参数名。
const (
	KeyVersion            = "v"
	KeyEventType          = "eventType"
	KeyCustomEventName    = "customEventName"
	KeySenderName         = "senderName"
	KeyReceiverName       = "receiverName"
	KeyVideoURL           = "videoUrl"
	KeyAudioURL           = "audioUrl"
	KeyAnimationStyle     = "animationStyle"
	KeyLayout             = "layout"
	KeyTheme              = "theme"
	KeyCustomCSS          = "customCSS"
	KeyTexts              = "texts"
	KeyMedia              = "media"
	KeyEmojis             = "emojis"
	KeyVideoPosition      = "videoPosition"
	KeyBackgroundSettings = "backgroundSettings"
	KeyBorderSettings     = "borderSettings"
)

// SchemaVersion 是当前文档结构的版本号，旧版链接不带该参数。
const SchemaVersion = "2"

type scalarParam struct {
	key string
	get func(*greeting.Document) *string
}

var scalarParams = []scalarParam{
	{KeyEventType, func(d *greeting.Document) *string { return &d.EventType }},
	{KeyCustomEventName, func(d *greeting.Document) *string { return &d.CustomEventName }},
	{KeySenderName, func(d *greeting.Document) *string { return &d.SenderName }},
	{KeyReceiverName, func(d *greeting.Document) *string { return &d.ReceiverName }},
	{KeyVideoURL, func(d *greeting.Document) *string { return &d.VideoURL }},
	{KeyAudioURL, func(d *greeting.Document) *string { return &d.AudioURL }},
	{KeyAnimationStyle, func(d *greeting.Document) *string { return &d.AnimationStyle }},
	{KeyLayout, func(d *greeting.Document) *string { return &d.Layout }},
	{KeyTheme, func(d *greeting.Document) *string { return &d.Theme }},
	{KeyCustomCSS, func(d *greeting.Document) *string { return &d.CustomCSS }},
}

// Encode 把文档转换为查询参数。空标量字段被省略，复合字段总是输出。
// 复合字段无法序列化属于程序错误，直接 panic。
func Encode(doc greeting.Document) url.Values {
	doc = doc.Clone()
	doc.Normalize()

	values := url.Values{}
	values.Set(KeyVersion, SchemaVersion)

	for _, p := range scalarParams {
		if v := *p.get(&doc); v != "" {
			values.Set(p.key, v)
		}
	}

	values.Set(KeyTexts, mustJSON(doc.Texts))
	values.Set(KeyMedia, mustJSON(doc.Media))
	values.Set(KeyEmojis, mustJSON(doc.Emojis))
	values.Set(KeyVideoPosition, mustJSON(doc.VideoPosition))
	values.Set(KeyBackgroundSettings, mustJSON(doc.BackgroundSettings))
	values.Set(KeyBorderSettings, mustJSON(doc.BorderSettings))

	return values
}

// EncodeQuery 返回经过百分号编码的查询字符串（空格编码为 '+'）。
func EncodeQuery(doc greeting.Document) string {
	return Encode(doc).Encode()
}

// BuildURL 把查询字符串拼接到查看页地址上，base 中已有的查询参数会被替换。
func BuildURL(base string, doc greeting.Document) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.RawQuery = EncodeQuery(doc)
	u.Fragment = ""
	return u.String(), nil
}

// mustJSON 输出规范 JSON：不转义 HTML 字符，不带结尾换行。
func mustJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		panic(fmt.Sprintf("sharelink: encode %T: %v", v, err))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
