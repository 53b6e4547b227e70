package greeting

import (
	"cmp"
	"slices"
)

// SortedMedia 返回按 Priority 升序稳定排序后的媒体副本，优先级相同的保持原有相对顺序。
func (d Document) SortedMedia() []MediaItem {
	out := append(make([]MediaItem, 0, len(d.Media)), d.Media...)
	slices.SortStableFunc(out, func(a, b MediaItem) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
	return out
}

// renumberMedia 按当前展示顺序把优先级重排为 1..N。
func (d *Document) renumberMedia() {
	sorted := d.SortedMedia()
	for i := range sorted {
		sorted[i].Priority = i + 1
	}
	d.Media = sorted
}
