package api

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"greetcard/internal/api/middleware"
	"greetcard/internal/auth"
	"greetcard/internal/config"
	"greetcard/internal/locale"
)

// ObjectStore 是 handler 使用的对象存储能力，*storage.Client 满足该接口。
type ObjectStore interface {
	UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// TaskEnqueuer 是 *asynq.Client 中投递任务的部分。
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Deps 汇总路由需要的外部依赖。Redis 为 nil 时不做限流，WebSocket 不可用。
type Deps struct {
	DB      *gorm.DB
	Tasks   TaskEnqueuer
	Tokens  *auth.TokenService
	Redis   *redis.Client
	Storage ObjectStore
	Scanner VirusScanner
	Locale  *locale.Resolver
	Logger  *slog.Logger
	API     config.APIConfig
}

// RegisterRoutes 注册业务路由。
func RegisterRoutes(router *gin.Engine, deps Deps) {
	links := newLinkBuilder(deps.API.PublicBaseURL, deps.API.ViewerBaseURL)

	var counter redisRateCounter
	if deps.Redis != nil {
		counter = deps.Redis
	}
	limiter := newCreateLimiter(counter, deps.API.MaxCreatesPerIPDaily)

	shareHandler := NewShareHandler(links)
	cardHandler := NewCardHandler(deps.DB, deps.Tokens, deps.Tasks, deps.Storage, links)
	linkHandler := NewLinkHandler(deps.DB, deps.Tokens, deps.Locale, links)
	catalogHandler := NewCatalogHandler(deps.Locale)
	assetHandler := NewAssetHandler(deps.Storage, deps.Scanner, links)
	wsHandler := NewWsHandler(deps.Redis, deps.Tokens, deps.Logger, deps.API.AllowedOrigins)
	editToken := middleware.EditTokenMiddleware(deps.Tokens)

	router.GET("/s/:slug", linkHandler.Resolve)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)
		v1.GET("/catalog", catalogHandler.Catalog)
		v1.GET("/seo", catalogHandler.SEO)

		shareGroup := v1.Group("/share")
		{
			shareGroup.POST("/encode", shareHandler.Encode)
			shareGroup.GET("/decode", shareHandler.Decode)
		}

		cardGroup := v1.Group("/cards")
		{
			cardGroup.POST("", limiter.middleware("cards"), cardHandler.Create)
			cardGroup.GET("/:id", cardHandler.Get)
			cardGroup.PUT("/:id", editToken, cardHandler.Replace)
			cardGroup.PATCH("/:id", editToken, cardHandler.Patch)
			cardGroup.DELETE("/:id", editToken, cardHandler.Delete)
			cardGroup.POST("/:id/preview", editToken, cardHandler.RequestPreview)
		}

		v1.POST("/links", limiter.middleware("links"), linkHandler.Create)

		assetGroup := v1.Group("/assets")
		{
			assetGroup.POST("/upload", limiter.middleware("assets"), assetHandler.UploadAsset)
			assetGroup.GET("/view", assetHandler.ViewAsset)
		}
	}
}
