package sharelink

import (
	"fmt"

	"greetcard/internal/greeting"
)

// 第一版链接把三段祝福语和三张图片平铺在查询参数里，没有 v 参数。
const legacySlots = 3

func isLegacy(params Params) bool {
	if v := params.Get(KeyVersion); v != "" && v != "1" {
		return false
	}
	if params.Has(KeyTexts) || params.Has(KeyMedia) {
		return false
	}
	for i := 1; i <= legacySlots; i++ {
		if params.Get(legacyMessageKey(i)) != "" || params.Get(legacyImageKey(i)) != "" {
			return true
		}
	}
	return false
}

func legacyMessageKey(i int) string { return fmt.Sprintf("message%d", i) }
func legacyImageKey(i int) string   { return fmt.Sprintf("image%d", i) }

// applyLegacy 把旧版的 messageN / imageN 映射到当前结构的 texts / media。
func applyLegacy(params Params, doc *greeting.Document) {
	for i := 1; i <= legacySlots; i++ {
		content := params.Get(legacyMessageKey(i))
		if content == "" {
			continue
		}
		text := greeting.NewTextBlock(content)
		text.ID = legacyMessageKey(i)
		doc.Texts = append(doc.Texts, text)
	}

	priority := 0
	for i := 1; i <= legacySlots; i++ {
		u := params.Get(legacyImageKey(i))
		if u == "" {
			continue
		}
		priority++
		doc.Media = append(doc.Media, greeting.MediaItem{
			ID:        legacyImageKey(i),
			URL:       u,
			Type:      greeting.MediaImage,
			Position:  greeting.Rect{X: 0, Y: 0, Width: 300, Height: 200},
			Animation: "fade",
			Priority:  priority,
		})
	}
}
