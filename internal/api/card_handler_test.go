package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greetcard/internal/database"
	"greetcard/internal/tasks"
)

type createdCard struct {
	ID        uint   `json:"id"`
	EditToken string `json:"editToken"`
	ShareURL  string `json:"shareUrl"`
}

func createCard(t *testing.T, env *testEnv, body string) createdCard {
	t.Helper()
	w := env.do(http.MethodPost, "/v1/cards", body, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out createdCard
	decodeBody(t, w, &out)
	require.NotZero(t, out.ID)
	require.NotEmpty(t, out.EditToken)
	return out
}

func TestCreateAndGetCard(t *testing.T) {
	env := newTestEnv(t)

	created := createCard(t, env, `{"document":{"eventType":"birthday","senderName":"Mia","texts":[{"id":"t1","content":"Hi"}]}}`)
	assert.Contains(t, created.ShareURL, testViewerURL+"?")
	assert.Contains(t, created.ShareURL, "senderName=Mia")

	w := env.do(http.MethodGet, fmt.Sprintf("/v1/cards/%d", created.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got cardResponse
	decodeBody(t, w, &got)
	assert.Equal(t, "Birthday", got.Title)
	assert.Equal(t, "birthday", got.EventType)
	assert.False(t, got.HasPasscode)
	assert.JSONEq(t, `"Mia"`, string(mustField(t, got.Document, "senderName")))
	assert.Equal(t, created.ShareURL, got.ShareURL)
}

func TestCreateCardRejectsBadDocument(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{`{"document":[1,2]}`, `{"title":"x"}`, `not json`, `{"document":null}`} {
		w := env.do(http.MethodPost, "/v1/cards", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestGetCardMissing(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/v1/cards/42", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/v1/cards/abc", nil, nil).Code)
}

func TestPasscodeProtectedCard(t *testing.T) {
	env := newTestEnv(t)
	created := createCard(t, env, `{"document":{"eventType":"diwali"},"passcode":"open-sesame"}`)
	path := fmt.Sprintf("/v1/cards/%d", created.ID)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, path, nil, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, path, nil, map[string]string{passcodeHeader: "wrong"}).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, path, nil, map[string]string{passcodeHeader: "open-sesame"}).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, path, nil, bearer(created.EditToken)).Code)

	// 空字符串移除口令。
	w := env.do(http.MethodPut, path, `{"passcode":""}`, bearer(created.EditToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, path, nil, nil).Code)
}

func TestReplaceCard(t *testing.T) {
	env := newTestEnv(t)
	created := createCard(t, env, `{"title":"Old","document":{"eventType":"birthday"}}`)
	path := fmt.Sprintf("/v1/cards/%d", created.ID)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPut, path, `{"title":"New"}`, nil).Code)

	other := createCard(t, env, `{"document":{}}`)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPut, path, `{"title":"New"}`, bearer(other.EditToken)).Code)

	w := env.do(http.MethodPut, path, `{"title":"New","document":{"eventType":"christmas","receiverName":"Sam"}}`, bearer(created.EditToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got cardResponse
	decodeBody(t, w, &got)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "christmas", got.EventType)
	assert.JSONEq(t, `"Sam"`, string(mustField(t, got.Document, "receiverName")))
}

func TestPatchCard(t *testing.T) {
	env := newTestEnv(t)
	created := createCard(t, env, `{"document":{"eventType":"birthday"}}`)
	path := fmt.Sprintf("/v1/cards/%d", created.ID)
	auth := bearer(created.EditToken)

	w := env.do(http.MethodPatch, path, `[
		{"op":"set","field":"senderName","value":"Ravi"},
		{"op":"add","field":"texts","value":{"content":"Many happy returns"}},
		{"op":"merge","field":"backgroundSettings","value":{"color":"#fef3c7"}}
	]`, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var card database.Card
	require.NoError(t, env.db.First(&card, created.ID).Error)
	doc := card.DecodedDocument()
	assert.Equal(t, "Ravi", doc.SenderName)
	require.Len(t, doc.Texts, 1)
	assert.Equal(t, "Many happy returns", doc.Texts[0].Content)
	assert.Equal(t, "#fef3c7", doc.BackgroundSettings.Color)

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid op", `[{"op":"replace","field":"texts"}]`, http.StatusBadRequest},
		{"missing item", `[{"op":"remove","field":"texts","id":"nope"}]`, http.StatusNotFound},
		{"empty list", `[]`, http.StatusBadRequest},
		{"not a list", `{"op":"set"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, env.do(http.MethodPatch, path, tc.body, auth).Code)
		})
	}

	// 失败的批次不会留下部分修改。
	w = env.do(http.MethodPatch, path, `[
		{"op":"set","field":"senderName","value":"Changed"},
		{"op":"remove","field":"media","id":"missing"}
	]`, auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, env.db.First(&card, created.ID).Error)
	assert.Equal(t, "Ravi", card.DecodedDocument().SenderName)
}

func TestPatchCardLimit(t *testing.T) {
	env := newTestEnv(t)
	created := createCard(t, env, `{"document":{}}`)
	path := fmt.Sprintf("/v1/cards/%d", created.ID)

	body := "["
	for i := 0; i < 11; i++ {
		if i > 0 {
			body += ","
		}
		body += `{"op":"add","field":"texts","value":{"content":"x"}}`
	}
	body += "]"
	assert.Equal(t, http.StatusConflict, env.do(http.MethodPatch, path, body, bearer(created.EditToken)).Code)
}

func TestDeleteCard(t *testing.T) {
	env := newTestEnv(t)
	created := createCard(t, env, `{"document":{}}`)
	path := fmt.Sprintf("/v1/cards/%d", created.ID)

	w := env.do(http.MethodDelete, path, nil, bearer(created.EditToken))
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Equal(t, []string{tasks.PreviewObjectPrefix(created.ID)}, env.storage.prefixes)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, path, nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, path, nil, bearer(created.EditToken)).Code)
}

func TestRequestPreview(t *testing.T) {
	env := newTestEnv(t)
	created := createCard(t, env, `{"document":{"eventType":"holi"}}`)
	path := fmt.Sprintf("/v1/cards/%d/preview", created.ID)

	w := env.do(http.MethodPost, path, nil, map[string]string{
		"Authorization":    "Bearer " + created.EditToken,
		"X-Correlation-ID": "req-123",
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	require.Len(t, env.queue.tasks, 1)

	payload, err := tasks.ParseCardPreviewPayload(env.queue.tasks[0].Payload())
	require.NoError(t, err)
	assert.Equal(t, created.ID, payload.CardID)
	assert.Equal(t, "req-123", payload.CorrelationID)

	var card database.Card
	require.NoError(t, env.db.First(&card, created.ID).Error)
	assert.Equal(t, database.PreviewStatusPending, card.PreviewStatus)

	env.queue.err = asynq.ErrTaskIDConflict
	assert.Equal(t, http.StatusAccepted, env.do(http.MethodPost, path, nil, bearer(created.EditToken)).Code)

	env.queue.err = errors.New("redis down")
	assert.Equal(t, http.StatusInternalServerError, env.do(http.MethodPost, path, nil, bearer(created.EditToken)).Code)
}

func TestCardTitle(t *testing.T) {
	long := ""
	for i := 0; i < 300; i++ {
		long += "é"
	}
	doc := createDoc("custom")
	doc.CustomEventName = "Game Night"

	assert.Equal(t, "Game Night", cardTitle("  ", doc))
	assert.Equal(t, "Mine", cardTitle(" Mine ", doc))
	assert.Len(t, []rune(cardTitle(long, doc)), maxTitleLength)
}
