// Package locale 维护界面语言表，并按显式覆盖、Accept-Language、默认语言的顺序解析请求语言。
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Direction 文字书写方向。
type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

// Language 是一种可选的界面语言。
type Language struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Flag      string    `json:"flag"`
	Direction Direction `json:"direction"`
}

var languages = []Language{
	{"en", "English", "🇺🇸", LTR},
	{"hi", "हिंदी", "🇮🇳", LTR},
	{"bn", "বাংলা", "🇧🇩", LTR},
	{"te", "తెలుగు", "🇮🇳", LTR},
	{"mr", "मराठी", "🇮🇳", LTR},
	{"ta", "தமிழ்", "🇮🇳", LTR},
	{"gu", "ગુજરાતી", "🇮🇳", LTR},
	{"kn", "ಕನ್ನಡ", "🇮🇳", LTR},
	{"ml", "മലയാളം", "🇮🇳", LTR},
	{"pa", "ਪੰਜਾਬੀ", "🇮🇳", LTR},
	{"or", "ଓଡ଼ିଆ", "🇮🇳", LTR},
	{"as", "অসমীয়া", "🇮🇳", LTR},
	{"ur", "اردو", "🇵🇰", RTL},
	{"ne", "नेपाली", "🇳🇵", LTR},
	{"si", "සිංහල", "🇱🇰", LTR},
	{"es", "Español", "🇪🇸", LTR},
	{"fr", "Français", "🇫🇷", LTR},
	{"de", "Deutsch", "🇩🇪", LTR},
	{"zh", "中文", "🇨🇳", LTR},
	{"ja", "日本語", "🇯🇵", LTR},
	{"ko", "한국어", "🇰🇷", LTR},
	{"ar", "العربية", "🇸🇦", RTL},
	{"pt", "Português", "🇧🇷", LTR},
	{"ru", "Русский", "🇷🇺", LTR},
	{"it", "Italiano", "🇮🇹", LTR},
	{"th", "ไทย", "🇹🇭", LTR},
	{"vi", "Tiếng Việt", "🇻🇳", LTR},
	{"id", "Bahasa Indonesia", "🇮🇩", LTR},
	{"ms", "Bahasa Melayu", "🇲🇾", LTR},
	{"tr", "Türkçe", "🇹🇷", LTR},
	{"fa", "فارسی", "🇮🇷", RTL},
	{"sw", "Kiswahili", "🇰🇪", LTR},
	{"nl", "Nederlands", "🇳🇱", LTR},
	{"sv", "Svenska", "🇸🇪", LTR},
	{"no", "Norsk", "🇳🇴", LTR},
	{"da", "Dansk", "🇩🇰", LTR},
	{"fi", "Suomi", "🇫🇮", LTR},
	{"pl", "Polski", "🇵🇱", LTR},
	{"cs", "Čeština", "🇨🇿", LTR},
	{"sk", "Slovenčina", "🇸🇰", LTR},
	{"hu", "Magyar", "🇭🇺", LTR},
	{"ro", "Română", "🇷🇴", LTR},
	{"bg", "Български", "🇧🇬", LTR},
	{"hr", "Hrvatski", "🇭🇷", LTR},
	{"sr", "Српски", "🇷🇸", LTR},
	{"sl", "Slovenščina", "🇸🇮", LTR},
	{"et", "Eesti", "🇪🇪", LTR},
	{"lv", "Latviešu", "🇱🇻", LTR},
	{"lt", "Lietuvių", "🇱🇹", LTR},
	{"mk", "Македонски", "🇲🇰", LTR},
	{"mt", "Malti", "🇲🇹", LTR},
	{"cy", "Cymraeg", "🏴󠁧󠁢󠁷󠁬󠁳󠁿", LTR},
	{"ga", "Gaeilge", "🇮🇪", LTR},
	{"eu", "Euskera", "🇪🇸", LTR},
	{"ca", "Català", "🇪🇸", LTR},}

// Languages 返回语言表的副本。
func Languages() []Language {
	return append([]Language(nil), languages...)
}

// Lookup 按语言代码查找。
func Lookup(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// Resolver 在启动时根据默认语言构建一次，之后并发只读使用。
type Resolver struct {
	matcher  language.Matcher
	index    []Language
	fallback Language
}

// NewResolver 创建解析器，defaultCode 必须是语言表中的语言。
func NewResolver(defaultCode string) (*Resolver, error) {
	fallback, ok := Lookup(defaultCode)
	if !ok {
		return nil, fmt.Errorf("unsupported default language %q", defaultCode)
	}

	// matcher 在没有匹配时返回第一个标签，所以默认语言排在最前。
	index := []Language{fallback}
	for _, l := range languages {
		if l.Code != fallback.Code {
			index = append(index, l)
		}
	}
	tags := make([]language.Tag, 0, len(index))
	for _, l := range index {
		tags = append(tags, language.Make(l.Code))
	}

	return &Resolver{
		matcher:  language.NewMatcher(tags),
		index:    index,
		fallback: fallback,
	}, nil
}

// Default 返回默认语言。
func (r *Resolver) Default() Language {
	return r.fallback
}

// Resolve 依次尝试显式指定的语言和 Accept-Language 请求头，都无法匹配时返回默认语言。
func (r *Resolver) Resolve(override, acceptLanguage string) Language {
	if override = strings.TrimSpace(override); override != "" {
		if tag, err := language.Parse(override); err == nil {
			if l, ok := r.match(tag); ok {
				return l
			}
		}
	}
	if acceptLanguage = strings.TrimSpace(acceptLanguage); acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
			if l, ok := r.match(tags...); ok {
				return l
			}
		}
	}
	return r.fallback
}

func (r *Resolver) match(tags ...language.Tag) (Language, bool) {
	_, idx, confidence := r.matcher.Match(tags...)
	if confidence == language.No || idx < 0 || idx >= len(r.index) {
		return Language{}, false
	}
	return r.index[idx], true
}
