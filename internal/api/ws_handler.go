package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"greetcard/internal/auth"
	"greetcard/internal/tasks"
)

const wsMessageSubscribe = "subscribe"

// WsHandler 把卡片预览任务的进度通知从 Redis 转发给编辑器。
type WsHandler struct {
	redisClient    *redis.Client
	tokens         *auth.TokenService
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

// NewWsHandler 构造 WebSocket 处理器。
func NewWsHandler(redisClient *redis.Client, tokens *auth.TokenService, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	h := &WsHandler{
		redisClient:    redisClient,
		tokens:         tokens,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *WsHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.allowedOrigins) == 0 {
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

// wsSubscribeMessage 是客户端连接后发送的第一条消息。
type wsSubscribeMessage struct {
	Type   string `json:"type"`
	CardID uint   `json:"card_id"`
	Token  string `json:"token"`
}

// wsAuthError 带上关闭连接时返回给客户端的原因。
type wsAuthError struct {
	reason string
	err    error
}

func (e *wsAuthError) Error() string { return fmt.Sprintf("%s: %v", e.reason, e.err) }
func (e *wsAuthError) Unwrap() error { return e.err }

// authenticate 校验订阅消息，返回允许订阅的卡片 ID。
func (h *WsHandler) authenticate(message []byte) (uint, error) {
	var msg wsSubscribeMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return 0, &wsAuthError{reason: "invalid subscribe payload", err: err}
	}
	if msg.Type != wsMessageSubscribe || msg.CardID == 0 || msg.Token == "" {
		return 0, &wsAuthError{reason: "subscribe required", err: errors.New("invalid subscribe message")}
	}
	if _, err := h.tokens.AuthorizeCard(msg.Token, msg.CardID); err != nil {
		return 0, &wsAuthError{reason: "unauthorized", err: err}
	}
	return msg.CardID, nil
}

// HandleConnection 升级连接并完成订阅握手，之后把 Redis 频道里的通知原样转发给客户端。
//
// 客户端必须在 wsHandshakeTimeout 内发送 subscribe 消息；订阅 Redis 成功后回复
// {"type":"subscribed","card_id":N}，此后发布的通知不会丢失。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	if h.redisClient == nil {
		Unavailable(c, "notifications unavailable")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("upgrade websocket", slog.Any("error", err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxMessageBytes)

	log := h.logger.With(slog.String("client_ip", c.ClientIP()))

	cardID, err := h.handshake(conn)
	if err != nil {
		reason := "subscribe required"
		var authErr *wsAuthError
		if errors.As(err, &authErr) {
			reason = authErr.reason
		}
		writeClose(conn, websocket.ClosePolicyViolation, reason)
		log.Info("websocket subscribe rejected", slog.Any("error", err))
		return
	}
	log = log.With(slog.Uint64("card_id", uint64(cardID)))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	channel := tasks.CardNotifyChannel(cardID)
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		writeClose(conn, websocket.CloseTryAgainLater, "notifications unavailable")
		log.Error("subscribe redis channel", slog.String("channel", channel), slog.Any("error", err))
		return
	}

	ack, _ := json.Marshal(gin.H{"type": "subscribed", "card_id": cardID})
	if err := conn.WriteMessage(websocket.TextMessage, ack); err != nil {
		return
	}

	// 客户端之后不再发消息，读循环只用来感知断开和处理 pong。
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err = h.forward(ctx, conn, pubsub.Channel())
	if err != nil && ctx.Err() == nil {
		log.Info("websocket closed", slog.Any("error", err))
	}
}

const (
	wsHandshakeTimeout = 10 * time.Second
	wsPingInterval     = 30 * time.Second
	wsWriteTimeout     = 5 * time.Second
	wsMaxMessageBytes  = 4 << 10
)

func (h *WsHandler) handshake(conn *websocket.Conn) (uint, error) {
	_ = conn.SetReadDeadline(time.Now().Add(wsHandshakeTimeout))
	_, message, err := conn.ReadMessage()
	if err != nil {
		return 0, fmt.Errorf("read subscribe message: %w", err)
	}
	cardID, err := h.authenticate(message)
	if err != nil {
		return 0, err
	}

	// 握手之后由 pong 续期读超时。
	_ = conn.SetReadDeadline(time.Now().Add(2 * wsPingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * wsPingInterval))
	})
	return cardID, nil
}

func (h *WsHandler) forward(ctx context.Context, conn *websocket.Conn, messages <-chan *redis.Message) error {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return errors.New("redis subscription closed")
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return fmt.Errorf("write message: %w", err)
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(wsWriteTimeout))
}
