package greeting

// Document 是一张贺卡的完整可序列化状态。
// 编辑器持有并修改它，查看页通过分享链接解码得到它。
type Document struct {
	EventType          string             `json:"eventType"`
	CustomEventName    string             `json:"customEventName"`
	SenderName         string             `json:"senderName"`
	ReceiverName       string             `json:"receiverName"`
	Texts              []TextBlock        `json:"texts"`
	Media              []MediaItem        `json:"media"`
	VideoURL           string             `json:"videoUrl"`
	VideoPosition      Rect               `json:"videoPosition"`
	AudioURL           string             `json:"audioUrl"`
	AnimationStyle     string             `json:"animationStyle"`
	Layout             string             `json:"layout"`
	Theme              string             `json:"theme"`
	CustomCSS          string             `json:"customCSS"`
	BackgroundSettings BackgroundSettings `json:"backgroundSettings"`
	Emojis             []EmojiItem        `json:"emojis"`
	BorderSettings     BorderSettings     `json:"borderSettings"`
}

// Rect 中 X/Y 为百分比 [0,100]，Width/Height 为像素。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point 以百分比表示位置。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TextBlock 表示一段带样式的文字，切片顺序即展示顺序。
type TextBlock struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Style     TextStyle `json:"style"`
	Animation string    `json:"animation"`
	Position  *Point    `json:"position,omitempty"`
}

type TextStyle struct {
	FontSize   string `json:"fontSize"`
	FontWeight string `json:"fontWeight"`
	Color      string `json:"color"`
	TextAlign  string `json:"textAlign"`
}

// 媒体类型。
const (
	MediaImage = "image"
	MediaVideo = "video"
)

// MediaItem 的 Priority 在当前集合中应为 1..N 的排列，由编辑操作维护。
type MediaItem struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Type      string `json:"type"`
	Position  Rect   `json:"position"`
	Animation string `json:"animation"`
	Priority  int    `json:"priority"`
}

type EmojiItem struct {
	ID        string  `json:"id"`
	Emoji     string  `json:"emoji"`
	Position  Point   `json:"position"`
	Size      float64 `json:"size"`
	Animation string  `json:"animation"`
}

// BorderElement 沿边框放置的装饰元素，Position 为周长百分比 [0,100]。
type BorderElement struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Content   string  `json:"content"`
	Position  float64 `json:"position"`
	Size      float64 `json:"size"`
	Animation string  `json:"animation"`
}

type BackgroundSettings struct {
	Color     string              `json:"color"`
	Gradient  GradientSettings    `json:"gradient"`
	Animation BackgroundAnimation `json:"animation"`
	Pattern   PatternSettings     `json:"pattern"`
}

type GradientSettings struct {
	Enabled   bool      `json:"enabled"`
	Colors    [2]string `json:"colors"`
	Direction string    `json:"direction"`
}

type BackgroundAnimation struct {
	Enabled   bool    `json:"enabled"`
	Type      string  `json:"type"`
	Speed     float64 `json:"speed"`
	Intensity float64 `json:"intensity"`
}

type PatternSettings struct {
	Enabled bool    `json:"enabled"`
	Type    string  `json:"type"`
	Opacity float64 `json:"opacity"`
}

type BorderSettings struct {
	Enabled            bool            `json:"enabled"`
	Style              string          `json:"style"`
	Width              float64         `json:"width"`
	Color              string          `json:"color"`
	Radius             float64         `json:"radius"`
	Animation          BorderAnimation `json:"animation"`
	Elements           []BorderElement `json:"elements"`
	DecorativeElements []BorderElement `json:"decorativeElements"`
}

type BorderAnimation struct {
	Enabled bool    `json:"enabled"`
	Type    string  `json:"type"`
	Speed   float64 `json:"speed"`
}

// Normalize 把所有 nil 集合替换为空集合，保证渲染方拿到的文档不缺字段。
func (d *Document) Normalize() {
	if d.Texts == nil {
		d.Texts = []TextBlock{}
	}
	if d.Media == nil {
		d.Media = []MediaItem{}
	}
	if d.Emojis == nil {
		d.Emojis = []EmojiItem{}
	}
	d.BorderSettings.normalize()
}

func (b *BorderSettings) normalize() {
	if b.Elements == nil {
		b.Elements = []BorderElement{}
	}
	if b.DecorativeElements == nil {
		b.DecorativeElements = []BorderElement{}
	}
}

// Clone 返回深拷贝，副本与原文档不共享任何切片或指针。
func (d Document) Clone() Document {
	out := d
	out.Texts = make([]TextBlock, len(d.Texts))
	for i, t := range d.Texts {
		if t.Position != nil {
			p := *t.Position
			t.Position = &p
		}
		out.Texts[i] = t
	}
	out.Media = append(make([]MediaItem, 0, len(d.Media)), d.Media...)
	out.Emojis = append(make([]EmojiItem, 0, len(d.Emojis)), d.Emojis...)
	out.BorderSettings = d.BorderSettings.clone()
	return out
}

func (b BorderSettings) clone() BorderSettings {
	b.Elements = append(make([]BorderElement, 0, len(b.Elements)), b.Elements...)
	b.DecorativeElements = append(make([]BorderElement, 0, len(b.DecorativeElements)), b.DecorativeElements...)
	return b
}

// DisplayEventName 返回用于展示的事件名称：自定义事件使用用户填写的名称。
func (d Document) DisplayEventName() string {
	if d.EventType == CustomEventType && d.CustomEventName != "" {
		return d.CustomEventName
	}
	if et, ok := LookupEventType(d.EventType); ok {
		return et.Label
	}
	return d.EventType
}

// ThemeFor 返回文档主题，未显式设置时回落到事件类型自带的主题。
func (d Document) ThemeFor() string {
	if d.Theme != "" {
		return d.Theme
	}
	if et, ok := LookupEventType(d.EventType); ok {
		return et.Theme
	}
	return ""
}
