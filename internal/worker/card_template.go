package worker

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"greetcard/internal/greeting"
)

// 内置卡片页只用于生成预览图，不追求与前端动画一致，只保证版面、配色和内容相同。
var cardTemplate = template.Must(template.New("card").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        html, body { margin: 0; padding: 0; }
        body {
            width: {{.Width}}px;
            height: {{.Height}}px;
            font-family: 'Noto Sans', 'Noto Sans Devanagari', 'Noto Color Emoji', sans-serif;
        }
        #greeting-card {
            position: relative;
            width: 100%;
            height: 100%;
            box-sizing: border-box;
            overflow: hidden;
        }
        .pattern { position: absolute; inset: 0; pointer-events: none; }
        .content {
            position: relative;
            display: flex;
            flex-direction: column;
            align-items: center;
            justify-content: center;
            gap: 12px;
            height: 100%;
            padding: 48px;
            box-sizing: border-box;
        }
        .event { font-size: 56px; }
        .names { font-size: 22px; opacity: 0.8; }
        .text { max-width: 90%; white-space: pre-wrap; }
        .media { position: absolute; object-fit: cover; }
        .emoji, .border-element { position: absolute; transform: translate(-50%, -50%); line-height: 1; }
    </style>
</head>
<body>
<div id="greeting-card" class="{{.Theme}}" style="{{.CardStyle}}">
    {{if .PatternStyle}}<div class="pattern" style="{{.PatternStyle}}"></div>{{end}}
    {{range .Media}}
        {{if .IsVideo}}<video class="media" src="{{.URL}}" style="{{.Style}}" muted></video>
        {{else}}<img class="media" src="{{.URL}}" style="{{.Style}}" alt="">{{end}}
    {{end}}
    <div class="content">
        <div class="event">{{.EventEmoji}} {{.Title}}</div>
        {{if .ReceiverName}}<div class="names">Dear {{.ReceiverName}}</div>{{end}}
        {{range .Texts}}<div class="text" style="{{.Style}}">{{.Content}}</div>{{end}}
        {{if .SenderName}}<div class="names">From {{.SenderName}}</div>{{end}}
    </div>
    {{range .Emojis}}<span class="emoji" style="{{.Style}}">{{.Content}}</span>{{end}}
    {{range .BorderElements}}<span class="border-element" style="{{.Style}}">{{.Content}}</span>{{end}}
</div>
<div id="greeting-render-ready"></div>
</body>
</html>
`))

type cardView struct {
	Title          string
	EventEmoji     string
	Theme          string
	SenderName     string
	ReceiverName   string
	Width          int
	Height         int
	CardStyle      template.CSS
	PatternStyle   template.CSS
	Texts          []styledItem
	Media          []mediaView
	Emojis         []styledItem
	BorderElements []styledItem
}

type styledItem struct {
	Content string
	Style   template.CSS
}

type mediaView struct {
	URL     string
	IsVideo bool
	Style   template.CSS
}

// RenderCardHTML 把文档渲染成一张独立的 HTML 页面。
// 用户提供的样式值只有通过白名单校验才会进入 CSS，customCSS 不会被渲染。
func RenderCardHTML(doc greeting.Document) (string, error) {
	doc = doc.Clone()
	doc.Normalize()

	view := cardView{
		Title:        doc.DisplayEventName(),
		Theme:        safeClass(doc.ThemeFor()),
		SenderName:   doc.SenderName,
		ReceiverName: doc.ReceiverName,
		Width:        PreviewWidth,
		Height:       PreviewHeight,
		CardStyle:    cardStyle(doc.BackgroundSettings, doc.BorderSettings),
		PatternStyle: patternStyle(doc.BackgroundSettings.Pattern),
	}
	if et, ok := greeting.LookupEventType(doc.EventType); ok {
		view.EventEmoji = et.Emoji
	}

	for _, t := range doc.Texts {
		view.Texts = append(view.Texts, styledItem{Content: t.Content, Style: textStyle(t)})
	}
	for _, m := range doc.SortedMedia() {
		if m.URL == "" {
			continue
		}
		view.Media = append(view.Media, mediaView{
			URL:     m.URL,
			IsVideo: m.Type == greeting.MediaVideo,
			Style:   rectStyle(m.Position),
		})
	}
	for _, e := range doc.Emojis {
		view.Emojis = append(view.Emojis, styledItem{
			Content: e.Emoji,
			Style:   pointStyle(e.Position.X, e.Position.Y, e.Size),
		})
	}
	if doc.BorderSettings.Enabled {
		for _, el := range doc.BorderSettings.Elements {
			x, y := perimeterPoint(el.Position)
			view.BorderElements = append(view.BorderElements, styledItem{
				Content: el.Content,
				Style:   pointStyle(x, y, el.Size),
			})
		}
	}

	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("execute card template: %w", err)
	}
	return buf.String(), nil
}

var (
	colorPattern      = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{3,20}|rgba?\([0-9.,%\s]+\)|hsla?\([0-9.,%\s]+\))$`)
	lengthPattern     = regexp.MustCompile(`^[0-9]{1,3}(\.[0-9]+)?(px|em|rem|%)$`)
	fontWeightPattern = regexp.MustCompile(`^(normal|bold|bolder|lighter|[1-9]00)$`)
	directionPattern  = regexp.MustCompile(`^(to (top|bottom|left|right)( (top|bottom|left|right))?|[0-9]{1,3}deg)$`)
	classPattern      = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	borderStyles      = map[string]bool{"solid": true, "dashed": true, "dotted": true, "double": true, "groove": true, "ridge": true, "inset": true, "outset": true}
	textAligns        = map[string]bool{"left": true, "right": true, "center": true, "justify": true}
)

func safeColor(value, fallback string) string {
	value = strings.TrimSpace(value)
	if colorPattern.MatchString(value) {
		return value
	}
	return fallback
}

func safeClass(value string) string {
	if classPattern.MatchString(value) {
		return value
	}
	return ""
}

func cardStyle(bg greeting.BackgroundSettings, border greeting.BorderSettings) template.CSS {
	var b strings.Builder
	color := safeColor(bg.Color, "#ffffff")
	fmt.Fprintf(&b, "background-color: %s;", color)
	if bg.Gradient.Enabled {
		direction := strings.TrimSpace(bg.Gradient.Direction)
		if !directionPattern.MatchString(direction) {
			direction = "to right"
		}
		fmt.Fprintf(&b, " background-image: linear-gradient(%s, %s, %s);",
			direction,
			safeColor(bg.Gradient.Colors[0], color),
			safeColor(bg.Gradient.Colors[1], color),
		)
	}
	if border.Enabled {
		style := border.Style
		if !borderStyles[style] {
			style = "solid"
		}
		fmt.Fprintf(&b, " border: %gpx %s %s; border-radius: %gpx;",
			clamp(border.Width, 0, 50), style, safeColor(border.Color, "#000000"), clamp(border.Radius, 0, 300))
	}
	return template.CSS(b.String())
}

func patternStyle(p greeting.PatternSettings) template.CSS {
	if !p.Enabled {
		return ""
	}
	opacity := clamp(p.Opacity, 0, 100) / 100
	var image string
	switch p.Type {
	case "lines":
		image = "repeating-linear-gradient(45deg, #000 0, #000 1px, transparent 1px, transparent 12px)"
	case "grid":
		image = "linear-gradient(#000 1px, transparent 1px), linear-gradient(90deg, #000 1px, transparent 1px)"
	default:
		image = "radial-gradient(#000 1px, transparent 1px)"
	}
	return template.CSS(fmt.Sprintf("background-image: %s; background-size: 16px 16px; opacity: %g;", image, opacity))
}

func textStyle(t greeting.TextBlock) template.CSS {
	var b strings.Builder
	if lengthPattern.MatchString(t.Style.FontSize) {
		fmt.Fprintf(&b, "font-size: %s;", t.Style.FontSize)
	}
	if fontWeightPattern.MatchString(t.Style.FontWeight) {
		fmt.Fprintf(&b, " font-weight: %s;", t.Style.FontWeight)
	}
	fmt.Fprintf(&b, " color: %s;", safeColor(t.Style.Color, "#000000"))
	if textAligns[t.Style.TextAlign] {
		fmt.Fprintf(&b, " text-align: %s;", t.Style.TextAlign)
	}
	if t.Position != nil {
		fmt.Fprintf(&b, " position: absolute; left: %g%%; top: %g%%; transform: translate(-50%%, -50%%);",
			clamp(t.Position.X, 0, 100), clamp(t.Position.Y, 0, 100))
	}
	return template.CSS(strings.TrimSpace(b.String()))
}

func rectStyle(r greeting.Rect) template.CSS {
	return template.CSS(fmt.Sprintf("left: %g%%; top: %g%%; width: %gpx; height: %gpx;",
		clamp(r.X, 0, 100), clamp(r.Y, 0, 100), clamp(r.Width, 0, 4000), clamp(r.Height, 0, 4000)))
}

func pointStyle(x, y, size float64) template.CSS {
	if size <= 0 {
		size = 24
	}
	return template.CSS(fmt.Sprintf("left: %g%%; top: %g%%; font-size: %gpx;",
		clamp(x, 0, 100), clamp(y, 0, 100), clamp(size, 1, 400)))
}

// perimeterPoint 把周长百分比换算成卡片上的坐标（百分比），从左上角顺时针。
func perimeterPoint(position float64) (x, y float64) {
	p := clamp(position, 0, 100)
	switch {
	case p < 25:
		return p * 4, 0
	case p < 50:
		return 100, (p - 25) * 4
	case p < 75:
		return 100 - (p-50)*4, 100
	default:
		return 0, 100 - (p-75)*4
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
