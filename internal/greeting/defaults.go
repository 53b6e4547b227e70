package greeting

// 标量字段的默认值。
const (
	DefaultAnimationStyle = "fade"
	DefaultLayout         = "grid"
)

// DefaultVideoPosition 返回视频位置的默认值。
func DefaultVideoPosition() Rect {
	return Rect{X: 50, Y: 50, Width: 400, Height: 300}
}

// DefaultBackgroundSettings 返回背景设置的默认值。
func DefaultBackgroundSettings() BackgroundSettings {
	return BackgroundSettings{
		Color: "#ffffff",
		Gradient: GradientSettings{
			Enabled:   false,
			Colors:    [2]string{"#ffffff", "#000000"},
			Direction: "to right",
		},
		Animation: BackgroundAnimation{
			Enabled:   false,
			Type:      "stars",
			Speed:     3,
			Intensity: 50,
		},
		Pattern: PatternSettings{
			Enabled: false,
			Type:    "dots",
			Opacity: 20,
		},
	}
}

// DefaultBorderSettings 返回边框设置的默认值。
func DefaultBorderSettings() BorderSettings {
	return BorderSettings{
		Enabled: false,
		Style:   "solid",
		Width:   2,
		Color:   "#000000",
		Radius:  0,
		Animation: BorderAnimation{
			Enabled: false,
			Type:    "none",
			Speed:   3,
		},
		Elements:           []BorderElement{},
		DecorativeElements: []BorderElement{},
	}
}

// NewDocument 返回所有字段均为默认值的文档。
func NewDocument() Document {
	return Document{
		Texts:              []TextBlock{},
		Media:              []MediaItem{},
		VideoPosition:      DefaultVideoPosition(),
		AnimationStyle:     DefaultAnimationStyle,
		Layout:             DefaultLayout,
		BackgroundSettings: DefaultBackgroundSettings(),
		Emojis:             []EmojiItem{},
		BorderSettings:     DefaultBorderSettings(),
	}
}
