package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "greetcard"

var (
	cardsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cards",
			Name:      "created_total",
			Help:      "创建的卡片数量，按事件类型区分。",
		},
		[]string{"event_type"},
	)

	shareLinksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "share",
			Name:      "links_total",
			Help:      "分享链接的编码、解码与短链接跳转次数。",
		},
		[]string{"operation"},
	)

	previewRenderSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "preview",
			Name:      "render_duration_seconds",
			Help:      "预览图渲染耗时分布（秒）。",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 45, 90},
		},
		[]string{"renderer", "outcome"},
	)
)

// CardCreated 记录一张新卡片。
func CardCreated(eventType string) {
	if eventType == "" {
		eventType = "none"
	}
	cardsCreatedTotal.WithLabelValues(eventType).Inc()
}

// ShareLink 记录一次分享链接操作：encode、decode、shorten 或 resolve。
func ShareLink(operation string) {
	shareLinksTotal.WithLabelValues(operation).Inc()
}

// PreviewRendered 记录一次预览渲染的耗时与结果。
func PreviewRendered(renderer string, seconds float64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	previewRenderSeconds.WithLabelValues(renderer, outcome).Observe(seconds)
}
