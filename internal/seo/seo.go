// Package seo 提供按事件类型与语言区分的页面元数据，以及短链接落地页。
package seo

// Metadata 是一个页面的标题、描述与 Open Graph 信息。
type Metadata struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Keywords      []string `json:"keywords"`
	OGTitle       string   `json:"ogTitle"`
	OGDescription string   `json:"ogDescription"`
	OGImage       string   `json:"ogImage,omitempty"`
	Canonical     string   `json:"canonical,omitempty"`
	Lang          string   `json:"lang"`
}

var metadataByEvent = map[string]map[string]Metadata{
	"birthday": {
		"en": {
			Title:         "Beautiful Birthday Greeting Cards | Create & Share Free",
			Description:   "Create stunning personalized birthday greeting cards with animations, music, and custom messages. Share beautiful birthday wishes with friends and family.",
			Keywords:      []string{"birthday cards", "birthday greetings", "personalized cards", "free birthday cards", "online greeting cards"},
			OGTitle:       "Beautiful Birthday Greeting Cards - Free & Personalized",
			OGDescription: "Create and share stunning birthday greeting cards with custom animations, music, and messages.",
			Lang:          "en",
		},
		"hi": {
			Title:         "सुंदर जन्मदिन की शुभकामना कार्ड | मुफ्त बनाएं और साझा करें",
			Description:   "एनीमेशन, संगीत और कस्टम संदेशों के साथ शानदार व्यक्तिगत जन्मदिन ग्रीटिंग कार्ड बनाएं।",
			Keywords:      []string{"जन्मदिन कार्ड", "जन्मदिन की शुभकामनाएं", "व्यक्तिगत कार्ड", "मुफ्त जन्मदिन कार्ड"},
			OGTitle:       "सुंदर जन्मदिन ग्रीटिंग कार्ड - मुफ्त और व्यक्तिगत",
			OGDescription: "कस्टम एनीमेशन, संगीत और संदेशों के साथ शानदार जन्मदिन ग्रीटिंग कार्ड बनाएं और साझा करें।",
			Lang:          "hi",
		},
	},
	"diwali": {
		"en": {
			Title:         "Diwali Greeting Cards | Festival of Lights Wishes",
			Description:   "Create beautiful Diwali greeting cards with traditional designs, animations, and personalized messages for the Festival of Lights.",
			Keywords:      []string{"diwali cards", "diwali greetings", "festival of lights", "hindu festival", "diwali wishes"},
			OGTitle:       "Diwali Greeting Cards - Festival of Lights",
			OGDescription: "Celebrate Diwali with beautiful, personalized greeting cards featuring traditional designs and animations.",
			Lang:          "en",
		},
		"hi": {
			Title:         "दिवाली ग्रीटिंग कार्ड | रोशनी के त्योहार की शुभकामनाएं",
			Description:   "पारंपरिक डिजाइन, एनीमेशन और व्यक्तिगत संदेशों के साथ सुंदर दिवाली ग्रीटिंग कार्ड बनाएं।",
			Keywords:      []string{"दिवाली कार्ड", "दिवाली की शुभकामनाएं", "रोशनी का त्योहार", "हिंदू त्योहार"},
			OGTitle:       "दिवाली ग्रीटिंग कार्ड - रोशनी का त्योहार",
			OGDescription: "पारंपरिक डिजाइन और एनीमेशन के साथ सुंदर, व्यक्तिगत दिवाली ग्रीटिंग कार्ड के साथ दिवाली मनाएं।",
			Lang:          "hi",
		},
	},
	"christmas": {
		"en": {
			Title:         "Christmas Greeting Cards | Holiday Wishes & Joy",
			Description:   "Create magical Christmas greeting cards with festive animations, holiday music, and warm personalized messages.",
			Keywords:      []string{"christmas cards", "holiday greetings", "christmas wishes", "festive cards", "holiday cards"},
			OGTitle:       "Christmas Greeting Cards - Holiday Magic",
			OGDescription: "Spread Christmas joy with beautiful, personalized greeting cards featuring festive animations and music.",
			Lang:          "en",
		},
	},
}

func defaultMetadata(lang string) Metadata {
	return Metadata{
		Title:         "Beautiful Greeting Cards | Create & Share Personalized Cards",
		Description:   "Create stunning personalized greeting cards for any occasion with animations, music, and custom messages. Share beautiful wishes with friends and family.",
		Keywords:      []string{"greeting cards", "personalized cards", "online cards", "free greeting cards", "custom cards"},
		OGTitle:       "Beautiful Greeting Cards - Free & Personalized",
		OGDescription: "Create and share stunning greeting cards for any occasion with custom animations, music, and messages.",
		Lang:          lang,
	}
}

// For 返回事件类型在指定语言下的元数据：先找该语言，再找英文，最后是通用文案。
func For(eventType, lang string) Metadata {
	if lang == "" {
		lang = "en"
	}
	byLang, ok := metadataByEvent[eventType]
	if !ok {
		return defaultMetadata(lang)
	}
	if m, ok := byLang[lang]; ok {
		return clone(m)
	}
	if m, ok := byLang["en"]; ok {
		return clone(m)
	}
	return defaultMetadata(lang)
}

func clone(m Metadata) Metadata {
	m.Keywords = append([]string(nil), m.Keywords...)
	return m
}
