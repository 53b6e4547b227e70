package sharelink

import (
	"encoding/json"
	"net/url"
	"strings"

	"greetcard/internal/greeting"
)

// Params 是解码器的输入，通常来自 URL 查询参数。
type Params interface {
	Get(key string) string
	Has(key string) bool
}

// MapParams 适配 map[string]string。
type MapParams map[string]string

func (m MapParams) Get(key string) string { return m[key] }

func (m MapParams) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// ValuesParams 适配 url.Values，同名参数取第一个。
type ValuesParams url.Values

func (v ValuesParams) Get(key string) string { return url.Values(v).Get(key) }
func (v ValuesParams) Has(key string) bool   { return url.Values(v).Has(key) }

// DecodeValues 解码 url.Values。
func DecodeValues(values url.Values) greeting.Document {
	return Decode(ValuesParams(values))
}

// DecodeMap 解码 map[string]string。
func DecodeMap(m map[string]string) greeting.Document {
	return Decode(MapParams(m))
}

// ParseQuery 解码原始查询字符串（可带前导 '?'）。
// 单个参数的百分号编码错误不会让整个链接失效，无法解析的片段被丢弃。
func ParseQuery(rawQuery string) greeting.Document {
	values, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	return DecodeValues(values)
}

// ParseURL 解码完整链接或裸查询字符串。
// 只有带 scheme 和 host 的输入才按链接解析；其余输入（包括值里带 :// 的手工查询串）
// 取 ? 之后的部分按查询串解码。目前不会返回错误。
func ParseURL(raw string) (greeting.Document, error) {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		return ParseQuery(u.RawQuery), nil
	}
	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		raw = raw[idx+1:]
	}
	return ParseQuery(raw), nil
}

// Decode 从任意参数集合重建文档。
// 标量缺失或为空时使用默认值；复合字段缺失或 JSON 无效时使用该字段的默认值，
// 互不影响。返回的文档不含 nil 集合。
func Decode(params Params) greeting.Document {
	doc := greeting.NewDocument()

	for _, p := range scalarParams {
		if v := params.Get(p.key); v != "" {
			*p.get(&doc) = v
		}
	}

	doc.Texts = decodeField(params, KeyTexts, func() []greeting.TextBlock { return []greeting.TextBlock{} })
	doc.Media = decodeField(params, KeyMedia, func() []greeting.MediaItem { return []greeting.MediaItem{} })
	doc.Emojis = decodeField(params, KeyEmojis, func() []greeting.EmojiItem { return []greeting.EmojiItem{} })
	doc.VideoPosition = decodeField(params, KeyVideoPosition, greeting.DefaultVideoPosition)
	doc.BackgroundSettings = decodeField(params, KeyBackgroundSettings, greeting.DefaultBackgroundSettings)
	doc.BorderSettings = decodeField(params, KeyBorderSettings, greeting.DefaultBorderSettings)

	if isLegacy(params) {
		applyLegacy(params, &doc)
	}

	doc.Normalize()
	return doc
}

// decodeField 把 JSON 解到默认值的新副本上，缺失的嵌套键保持默认；
// 解析失败时丢弃半成品，返回全新的默认值。
func decodeField[T any](params Params, key string, def func() T) T {
	raw := params.Get(key)
	if strings.TrimSpace(raw) == "" {
		return def()
	}
	out := def()
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return def()
	}
	return out
}

// DecodeDocumentJSON 用与查询参数相同的降级规则解码一整个文档 JSON（例如数据库中的 jsonb）。
// 顶层不是 JSON 对象时返回默认文档；某个字段类型错误只影响该字段。
func DecodeDocumentJSON(data []byte) greeting.Document {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Decode(MapParams{})
	}
	params := MapParams{}
	for key, raw := range fields {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			params[key] = s
			continue
		}
		if isScalarKey(key) {
			continue
		}
		params[key] = string(raw)
	}
	return Decode(params)
}

// MarshalDocument 输出文档的规范 JSON，集合永不为 null。
func MarshalDocument(doc greeting.Document) []byte {
	doc = doc.Clone()
	doc.Normalize()
	return []byte(mustJSON(doc))
}

func isScalarKey(key string) bool {
	for _, p := range scalarParams {
		if p.key == key {
			return true
		}
	}
	return false
}
