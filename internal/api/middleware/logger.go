package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

const requestLoggerKey = "requestLogger"

// RequestLogMiddleware 为每个请求派生带 correlation_id 的 logger，结束时记一行访问日志。
// quietPaths 中的路由（健康检查、指标抓取）只在出错时记录。
func RequestLogMiddleware(base *slog.Logger, quietPaths ...string) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		reqLog := base.With(
			slog.String("correlation_id", GetCorrelationID(c)),
			slog.String("method", c.Request.Method),
			slog.String("route", route),
		)
		c.Set(requestLoggerKey, reqLog)

		began := time.Now()
		c.Next()
		status := c.Writer.Status()

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status == 429 || status == 413:
			level = slog.LevelWarn
		}
		if _, ok := quiet[route]; ok && level == slog.LevelInfo {
			return
		}

		attrs := []slog.Attr{
			slog.Int("status", status),
			slog.Int64("latency_ms", time.Since(began).Milliseconds()),
			slog.String("client_ip", c.ClientIP()),
			slog.Int("bytes", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}
		reqLog.LogAttrs(c.Request.Context(), level, "request", attrs...)
	}
}

// LoggerFromContext 取出请求级 logger；中间件未挂载时退回 slog.Default()。
func LoggerFromContext(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(requestLoggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}
