package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"greetcard/internal/auth"
)

const cardIDKey = "cardID"

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// EditTokenMiddleware 校验路径中 :id 对应卡片的编辑令牌，并将 cardID 注入上下文。
// 令牌可以放在 Authorization: Bearer 或 X-Edit-Token 请求头中。
func EditTokenMiddleware(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cardID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || cardID == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
			return
		}

		rawToken := EditTokenFromRequest(c)
		if rawToken == "" {
			abortUnauthorized(c)
			return
		}

		if _, err := tokens.AuthorizeCard(rawToken, uint(cardID)); err != nil {
			LoggerFromContext(c).Info("edit token rejected", slog.Uint64("card_id", cardID), slog.Any("error", err))
			abortUnauthorized(c)
			return
		}

		c.Set(cardIDKey, uint(cardID))
		c.Next()
	}
}

// EditTokenFromRequest 从请求头取出编辑令牌。
func EditTokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.Fields(header)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return strings.TrimSpace(c.GetHeader("X-Edit-Token"))
}

// CardIDFromContext 返回已通过令牌校验的卡片 ID。
func CardIDFromContext(c *gin.Context) (uint, bool) {
	value, ok := c.Get(cardIDKey)
	if !ok {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}
