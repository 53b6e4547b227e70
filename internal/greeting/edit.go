package greeting

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// 编辑器对集合长度的限制。
const (
	MaxTexts          = 10
	MaxMedia          = 20
	MaxBorderElements = 5
)

var (
	ErrInvalidEdit  = errors.New("invalid edit")
	ErrLimitReached = errors.New("collection limit reached")
	ErrNotFound     = errors.New("item not found")
)

// ScalarField 是只能整体赋值的字符串字段。
type ScalarField string

const (
	FieldEventType       ScalarField = "eventType"
	FieldCustomEventName ScalarField = "customEventName"
	FieldSenderName      ScalarField = "senderName"
	FieldReceiverName    ScalarField = "receiverName"
	FieldVideoURL        ScalarField = "videoUrl"
	FieldAudioURL        ScalarField = "audioUrl"
	FieldAnimationStyle  ScalarField = "animationStyle"
	FieldLayout          ScalarField = "layout"
	FieldTheme           ScalarField = "theme"
	FieldCustomCSS       ScalarField = "customCSS"
)

// ObjectField 是按键合并更新的复合字段。
type ObjectField string

const (
	FieldVideoPosition      ObjectField = "videoPosition"
	FieldBackgroundSettings ObjectField = "backgroundSettings"
	FieldBorderSettings     ObjectField = "borderSettings"
)

// CollectionField 是支持增删的有序集合。
type CollectionField string

const (
	FieldTexts          CollectionField = "texts"
	FieldMedia          CollectionField = "media"
	FieldEmojis         CollectionField = "emojis"
	FieldBorderElements CollectionField = "borderElements"
)

func (d *Document) scalar(field ScalarField) (*string, bool) {
	switch field {
	case FieldEventType:
		return &d.EventType, true
	case FieldCustomEventName:
		return &d.CustomEventName, true
	case FieldSenderName:
		return &d.SenderName, true
	case FieldReceiverName:
		return &d.ReceiverName, true
	case FieldVideoURL:
		return &d.VideoURL, true
	case FieldAudioURL:
		return &d.AudioURL, true
	case FieldAnimationStyle:
		return &d.AnimationStyle, true
	case FieldLayout:
		return &d.Layout, true
	case FieldTheme:
		return &d.Theme, true
	case FieldCustomCSS:
		return &d.CustomCSS, true
	}
	return nil, false
}

// SetScalar 整体替换一个字符串字段。animationStyle 与 layout 只接受目录中的取值（空串表示恢复默认）。
func (d *Document) SetScalar(field ScalarField, value string) error {
	ptr, ok := d.scalar(field)
	if !ok {
		return fmt.Errorf("%w: unknown scalar field %q", ErrInvalidEdit, field)
	}
	switch {
	case value == "":
	case field == FieldAnimationStyle && !IsKnownAnimationStyle(value):
		return fmt.Errorf("%w: unknown animation style %q", ErrInvalidEdit, value)
	case field == FieldLayout && !IsKnownLayout(value):
		return fmt.Errorf("%w: unknown layout %q", ErrInvalidEdit, value)
	}
	*ptr = value
	return nil
}

// MergeObject 把 patch 中出现的键合并进复合字段，未出现的键保持原值。
// 嵌套对象逐层合并，数组整体替换。失败时（解析错误或超出数量上限）字段保持不变。
func (d *Document) MergeObject(field ObjectField, patch json.RawMessage) error {
	switch field {
	case FieldVideoPosition:
		return mergeInto(&d.VideoPosition, d.VideoPosition, patch, nil)
	case FieldBackgroundSettings:
		return mergeInto(&d.BackgroundSettings, d.BackgroundSettings, patch, nil)
	case FieldBorderSettings:
		// 先深拷贝，Unmarshal 会复用原切片的底层数组。
		return mergeInto(&d.BorderSettings, d.BorderSettings.clone(), patch, func(b *BorderSettings) error {
			if len(b.Elements) > MaxBorderElements {
				return fmt.Errorf("%w: border elements exceed %d", ErrLimitReached, MaxBorderElements)
			}
			b.normalize()
			return nil
		})
	}
	return fmt.Errorf("%w: unknown object field %q", ErrInvalidEdit, field)
}

// mergeInto 在 working 上解码 patch，通过 check 后才写回 target。
func mergeInto[T any](target *T, working T, patch json.RawMessage, check func(*T) error) error {
	if err := json.Unmarshal(patch, &working); err != nil {
		return fmt.Errorf("%w: decode patch: %v", ErrInvalidEdit, err)
	}
	if check != nil {
		if err := check(&working); err != nil {
			return err
		}
	}
	*target = working
	return nil
}

// NewTextBlock 使用编辑器默认样式创建文字块。
func NewTextBlock(content string) TextBlock {
	return TextBlock{
		ID:      uuid.NewString(),
		Content: content,
		Style: TextStyle{
			FontSize:   "18px",
			FontWeight: "normal",
			Color:      "#000000",
			TextAlign:  "center",
		},
		Animation: "fade",
	}
}

// AddText 追加文字块，超过上限返回 ErrLimitReached。
func (d *Document) AddText(t TextBlock) (TextBlock, error) {
	if len(d.Texts) >= MaxTexts {
		return TextBlock{}, fmt.Errorf("%w: texts limited to %d", ErrLimitReached, MaxTexts)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	d.Texts = append(d.Texts, t)
	return t, nil
}

func (d *Document) RemoveText(id string) error {
	idx := indexOf(d.Texts, func(t TextBlock) bool { return t.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: text %q", ErrNotFound, id)
	}
	d.Texts = append(d.Texts[:idx], d.Texts[idx+1:]...)
	return nil
}

// AddMedia 追加媒体并把它排在最后（priority = N+1）。
func (d *Document) AddMedia(m MediaItem) (MediaItem, error) {
	if len(d.Media) >= MaxMedia {
		return MediaItem{}, fmt.Errorf("%w: media limited to %d", ErrLimitReached, MaxMedia)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Type == "" {
		m.Type = MediaImage
	}
	if m.Animation == "" {
		m.Animation = "fade"
	}
	m.Priority = len(d.Media) + 1
	d.Media = append(d.Media, m)
	return m, nil
}

// RemoveMedia 删除媒体并把剩余优先级修复为 1..N。
func (d *Document) RemoveMedia(id string) error {
	idx := indexOf(d.Media, func(m MediaItem) bool { return m.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: media %q", ErrNotFound, id)
	}
	d.Media = append(d.Media[:idx], d.Media[idx+1:]...)
	d.renumberMedia()
	return nil
}

// Direction 媒体移动方向。
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// MoveMedia 与展示顺序上的相邻项交换优先级。方向非法或 id 不存在时返回错误且不做任何修改；
// 已在边界时同样不修改。
func (d *Document) MoveMedia(id string, dir Direction) error {
	if dir != Up && dir != Down {
		return fmt.Errorf("%w: direction %q", ErrInvalidEdit, dir)
	}
	if indexOf(d.Media, func(m MediaItem) bool { return m.ID == id }) < 0 {
		return fmt.Errorf("%w: media %q", ErrNotFound, id)
	}
	sorted := d.SortedMedia()
	idx := indexOf(sorted, func(m MediaItem) bool { return m.ID == id })
	target := idx - 1
	if dir == Down {
		target = idx + 1
	}
	if target < 0 || target >= len(sorted) {
		return nil
	}
	d.renumberMedia()
	d.Media[idx].Priority, d.Media[target].Priority = d.Media[target].Priority, d.Media[idx].Priority
	d.Media[idx], d.Media[target] = d.Media[target], d.Media[idx]
	return nil
}

func (d *Document) AddEmoji(e EmojiItem) EmojiItem {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Size == 0 {
		e.Size = 24
	}
	if e.Animation == "" {
		e.Animation = "bounce"
	}
	d.Emojis = append(d.Emojis, e)
	return e
}

func (d *Document) RemoveEmoji(id string) error {
	idx := indexOf(d.Emojis, func(e EmojiItem) bool { return e.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: emoji %q", ErrNotFound, id)
	}
	d.Emojis = append(d.Emojis[:idx], d.Emojis[idx+1:]...)
	return nil
}

// AddBorderElement 追加边框装饰，最多 MaxBorderElements 个。
func (d *Document) AddBorderElement(el BorderElement) (BorderElement, error) {
	if len(d.BorderSettings.Elements) >= MaxBorderElements {
		return BorderElement{}, fmt.Errorf("%w: border elements limited to %d", ErrLimitReached, MaxBorderElements)
	}
	if el.ID == "" {
		el.ID = uuid.NewString()
	}
	if el.Type == "" {
		el.Type = "emoji"
	}
	if el.Size == 0 {
		el.Size = 24
	}
	if el.Animation == "" {
		el.Animation = "float"
	}
	d.BorderSettings.Elements = append(d.BorderSettings.Elements, el)
	return el, nil
}

func (d *Document) RemoveBorderElement(id string) error {
	idx := indexOf(d.BorderSettings.Elements, func(el BorderElement) bool { return el.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: border element %q", ErrNotFound, id)
	}
	els := d.BorderSettings.Elements
	d.BorderSettings.Elements = append(els[:idx], els[idx+1:]...)
	return nil
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i, item := range items {
		if match(item) {
			return i
		}
	}
	return -1
}
