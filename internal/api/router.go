package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"greetcard/internal/api/middleware"
	"greetcard/internal/config"
	"greetcard/internal/metrics"
)

// NewRouter 构建 Gin 路由引擎，挂载公共中间件、健康检查与指标端点。
func NewRouter(cfg config.APIConfig, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.CorrelationIDMiddleware(),
		middleware.RequestLogMiddleware(logger, "/health", "/metrics"),
		metrics.GinMiddleware(),
		gin.Recovery(),
	)
	router.MaxMultipartMemory = 8 << 20

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", middleware.BearerSecretMiddleware(cfg.MetricsToken), gin.WrapH(promhttp.Handler()))

	return router
}
