package greeting

// CustomEventType 需要配合 CustomEventName 使用。
const CustomEventType = "custom"

// EventCategory 事件分类。
type EventCategory string

const (
	CategoryBirthday  EventCategory = "birthday"
	CategoryReligious EventCategory = "religious"
	CategoryNational  EventCategory = "national"
	CategorySeasonal  EventCategory = "seasonal"
	CategoryPersonal  EventCategory = "personal"
	CategoryCustom    EventCategory = "custom"
)

// EventType 描述一种贺卡模板。
type EventType struct {
	Value          string        `json:"value"`
	Label          string        `json:"label"`
	Emoji          string        `json:"emoji"`
	DefaultMessage string        `json:"defaultMessage"`
	Theme          string        `json:"theme"`
	Category       EventCategory `json:"category"`
}

// Option 是下拉选项。
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var eventTypes = []EventType{
	{"birthday", "Birthday", "🎂", "Wishing you a fantastic birthday filled with joy and happiness!", "card-birthday", CategoryBirthday},
	{"sweet-sixteen", "Sweet Sixteen", "🎈", "Sweet sixteen and never been so amazing! Happy Birthday!", "card-birthday", CategoryBirthday},
	{"milestone-birthday", "Milestone Birthday", "🎉", "Celebrating this amazing milestone in your life!", "card-birthday", CategoryBirthday},

	{"diwali", "Diwali", "🪔", "May this festival of lights illuminate your path to happiness and prosperity!", "card-diwali", CategoryReligious},
	{"holi", "Holi", "🌈", "May your life be filled with colors of joy, happiness, and love!", "card-holi", CategoryReligious},
	{"eid", "Eid", "🌙", "Eid Mubarak! May this blessed day bring you peace and happiness!", "card-eid", CategoryReligious},
	{"christmas", "Christmas", "🎄", "Merry Christmas! May your holidays be merry and bright!", "card-christmas", CategoryReligious},
	{"navratri", "Navratri", "💃", "May Maa Durga bless you with strength, prosperity, and happiness!", "card-navratri", CategoryReligious},
	{"ramadan", "Ramadan", "🕌", "Ramadan Mubarak! May this holy month bring you spiritual growth and peace!", "card-ramadan", CategoryReligious},
	{"karwa-chauth", "Karwa Chauth", "🌙", "May your love grow stronger with each passing moon!", "card-karwa-chauth", CategoryReligious},
	{"raksha-bandhan", "Raksha Bandhan", "🧿", "Celebrating the beautiful bond of love and protection!", "card-raksha-bandhan", CategoryReligious},

	{"independence-day", "Independence Day", "🇮🇳", "Celebrating the spirit of freedom and unity! Happy Independence Day!", "card-independence", CategoryNational},
	{"republic-day", "Republic Day", "🏛️", "Honoring our constitution and democratic values! Happy Republic Day!", "card-republic", CategoryNational},
	{"gandhi-jayanti", "Gandhi Jayanti", "🕊️", "Remembering the Father of our Nation and his teachings of peace!", "card-gandhi", CategoryNational},

	{"makar-sankranti", "Makar Sankranti", "🪁", "May your dreams soar high like colorful kites in the sky!", "card-makar-sankranti", CategorySeasonal},
	{"baisakhi", "Baisakhi", "🌾", "May this harvest festival bring prosperity and joy to your life!", "card-baisakhi", CategorySeasonal},
	{"onam", "Onam", "🌺", "May King Mahabali bless you with happiness and prosperity!", "card-onam", CategorySeasonal},
	{"pongal", "Pongal", "🍯", "May this harvest festival sweeten your life with joy!", "card-pongal", CategorySeasonal},

	{"anniversary", "Anniversary", "💍", "Celebrating your special day and the beautiful journey you share together!", "card-anniversary", CategoryPersonal},
	{"retirement", "Retirement", "👴", "Congratulations on your well-deserved retirement! Enjoy this new chapter!", "card-retirement", CategoryPersonal},
	{"promotion", "Promotion", "📈", "Congratulations on your promotion! Your hard work has truly paid off!", "card-promotion", CategoryPersonal},
	{"farewell", "Farewell", "👋", "Wishing you all the best in your new journey. You will be missed!", "card-farewell", CategoryPersonal},
	{"graduation", "Graduation", "🎓", "Congratulations graduate! Your achievements are truly inspiring!", "card-graduation", CategoryPersonal},
	{"wedding", "Wedding", "💒", "Wishing you a lifetime of love, laughter, and happiness together!", "card-wedding", CategoryPersonal},
	{"new-baby", "New Baby", "👶", "Congratulations on your bundle of joy! Welcome to parenthood!", "card-baby", CategoryPersonal},
	{"new-home", "New Home", "🏠", "Congratulations on your new home! May it be filled with love and laughter!", "card-home", CategoryPersonal},

	{CustomEventType, "Custom Event", "✨", "Sending you warm wishes and positive vibes!", "card-custom", CategoryCustom},
}

var animationStyles = []Option{
	{"fade", "Fade In"},
	{"slide", "Slide In"},
	{"zoom", "Zoom In"},
	{"flip", "Flip In"},
	{"bounce", "Bounce In"},
	{"rotate", "Rotate In"},
	{"pulse", "Pulse"},
	{"shake", "Shake"},
	{"swing", "Swing"},
	{"tada", "Tada"},
}

var layoutStyles = []Option{
	{"grid", "Grid Layout"},
	{"masonry", "Masonry Layout"},
	{"carousel", "Carousel Layout"},
	{"stack", "Stack Layout"},
	{"collage", "Collage Layout"},
}

var borderStyles = []Option{
	{"solid", "Solid"},
	{"dashed", "Dashed"},
	{"dotted", "Dotted"},
	{"double", "Double"},
	{"groove", "Groove"},
	{"ridge", "Ridge"},
}

var borderElementAnimations = []Option{
	{"float", "Float"},
	{"rotate", "Rotate"},
	{"pulse", "Pulse"},
	{"bounce", "Bounce"},
	{"slide", "Slide"},
}

var backgroundAnimations = []Option{
	{"stars", "Twinkling Stars"},
	{"sparkles", "Sparkles"},
	{"particles", "Floating Particles"},
	{"hearts", "Falling Hearts"},
	{"bubbles", "Floating Bubbles"},
	{"dots", "Glowing Dots"},
	{"rings", "Pulsing Rings"},
	{"snow", "Snow"},
}

// EventTypes 返回事件类型列表的副本。
func EventTypes() []EventType { return append([]EventType(nil), eventTypes...) }

func AnimationStyles() []Option         { return append([]Option(nil), animationStyles...) }
func LayoutStyles() []Option            { return append([]Option(nil), layoutStyles...) }
func BorderStyles() []Option            { return append([]Option(nil), borderStyles...) }
func BorderElementAnimations() []Option { return append([]Option(nil), borderElementAnimations...) }
func BackgroundAnimations() []Option    { return append([]Option(nil), backgroundAnimations...) }

// LookupEventType 按 value 查找事件类型。
func LookupEventType(value string) (EventType, bool) {
	for _, et := range eventTypes {
		if et.Value == value {
			return et, true
		}
	}
	return EventType{}, false
}

// EventTypesByCategory 返回指定分类下的事件类型，保持目录顺序。
func EventTypesByCategory(category EventCategory) []EventType {
	out := make([]EventType, 0)
	for _, et := range eventTypes {
		if et.Category == category {
			out = append(out, et)
		}
	}
	return out
}

func hasOption(options []Option, value string) bool {
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// IsKnownAnimationStyle / IsKnownLayout 供 SetScalar 校验编辑；解码器不做校验，未知取值原样保留。
func IsKnownAnimationStyle(value string) bool { return hasOption(animationStyles, value) }
func IsKnownLayout(value string) bool         { return hasOption(layoutStyles, value) }
