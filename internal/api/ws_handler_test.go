package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greetcard/internal/auth"
)

func newTestWsHandler(t *testing.T, origins []string) (*WsHandler, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)
	// 鉴权失败的路径不会访问 Redis。
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWsHandler(client, tokens, logger, origins), tokens
}

func TestWsAuthenticate(t *testing.T) {
	h, tokens := newTestWsHandler(t, nil)
	token, err := tokens.IssueEditToken(3)
	require.NoError(t, err)

	cardID, err := h.authenticate([]byte(`{"type":"subscribe","card_id":3,"token":"` + token + `"}`))
	require.NoError(t, err)
	assert.Equal(t, uint(3), cardID)

	cases := map[string]string{
		"not json":      `hello`,
		"wrong type":    `{"type":"auth","card_id":3,"token":"` + token + `"}`,
		"missing card":  `{"type":"subscribe","token":"` + token + `"}`,
		"other card":    `{"type":"subscribe","card_id":4,"token":"` + token + `"}`,
		"garbage token": `{"type":"subscribe","card_id":3,"token":"abc"}`,
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.authenticate([]byte(msg))
			var authErr *wsAuthError
			assert.ErrorAs(t, err, &authErr)
		})
	}
}

func TestWsCheckOrigin(t *testing.T) {
	h, _ := newTestWsHandler(t, []string{"https://cards.example"})

	req := httptest.NewRequest(http.MethodGet, "/v1/ws", nil)
	assert.True(t, h.checkOrigin(req), "non-browser clients send no origin")

	req.Header.Set("Origin", "https://cards.example")
	assert.True(t, h.checkOrigin(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, h.checkOrigin(req))

	same, _ := newTestWsHandler(t, nil)
	req = httptest.NewRequest(http.MethodGet, "http://api.example/v1/ws", nil)
	req.Header.Set("Origin", "https://api.example")
	assert.True(t, same.checkOrigin(req))
}

func TestWsRejectsBadSubscription(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTestWsHandler(t, nil)
	router := gin.New()
	router.GET("/v1/ws", h.HandleConnection)
	server := httptest.NewServer(router)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/v1/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","card_id":1,"token":"nope"}`)))
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), err.Error())
}

func TestWsUnavailableWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewWsHandler(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	router := gin.New()
	router.GET("/v1/ws", handler.HandleConnection)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/ws", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
