package api

import (
	"strings"
	"unicode/utf8"
)

const (
	assetKeyPrefix   = "card-assets/"
	previewKeyPrefix = "thumbnails/card/"
	maxAssetKeyLen   = 200
)

var viewableExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".gif", ".mp4", ".webm", ".mp3"}

// isViewableObjectKey 只放行上传的卡片素材和预览图，拒绝路径穿越等异常形式。
func isViewableObjectKey(key string) bool {
	if key == "" || !utf8.ValidString(key) || len(key) > maxAssetKeyLen {
		return false
	}
	if !strings.HasPrefix(key, assetKeyPrefix) && !strings.HasPrefix(key, previewKeyPrefix) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	lower := strings.ToLower(key)
	for _, ext := range viewableExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
