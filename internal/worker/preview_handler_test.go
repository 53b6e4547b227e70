package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"greetcard/internal/database"
	"greetcard/internal/errcode"
	"greetcard/internal/greeting"
	"greetcard/internal/tasks"
)

type fakeRenderer struct {
	targets []RenderTarget
	err     error
}

func (f *fakeRenderer) Screenshot(_ context.Context, target RenderTarget) ([]byte, error) {
	f.targets = append(f.targets, target)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("jpeg-bytes"), nil
}

type fakeUploader struct {
	objects map[string][]byte
}

func (f *fakeUploader) UploadFile(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = data
	return nil
}

type publishedMessage struct {
	channel string
	notify  PreviewNotifyMessage
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var notify PreviewNotifyMessage
	_ = json.Unmarshal(message.([]byte), &notify)
	f.messages = append(f.messages, publishedMessage{channel: channel, notify: notify})
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	return redis.NewIntResult(1, nil)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func createCard(t *testing.T, db *gorm.DB) database.Card {
	t.Helper()
	doc := greeting.NewDocument()
	doc.EventType = "christmas"
	doc.SenderName = "Noel"
	var card database.Card
	card.SetDocument(doc)
	require.NoError(t, db.Create(&card).Error)
	return card
}

func TestPreviewTaskRendersBuiltinTemplateAndStoresPreview(t *testing.T) {
	db := newTestDB(t)
	card := createCard(t, db)
	renderer := &fakeRenderer{}
	uploader := &fakeUploader{}
	publisher := &fakePublisher{}
	handler := NewPreviewTaskHandler(db, uploader, publisher, renderer, slog.New(slog.NewTextHandler(io.Discard, nil)), "", "https://api.example/")

	task, err := tasks.NewCardPreviewTask(card.ID, "corr-9")
	require.NoError(t, err)
	require.NoError(t, handler.ProcessTask(context.Background(), task))

	require.Len(t, renderer.targets, 1)
	assert.Empty(t, renderer.targets[0].URL)
	assert.Contains(t, renderer.targets[0].HTML, "Christmas")

	key := tasks.PreviewObjectKey(card.ID)
	assert.Equal(t, []byte("jpeg-bytes"), uploader.objects[key])

	var stored database.Card
	require.NoError(t, db.First(&stored, card.ID).Error)
	assert.Equal(t, database.PreviewStatusCompleted, stored.PreviewStatus)
	assert.Equal(t, key, stored.PreviewObjectKey)
	assert.Equal(t, "https://api.example/v1/assets/view?key=thumbnails%2Fcard%2F1%2Fpreview.jpg", stored.PreviewImageURL)

	require.Len(t, publisher.messages, 2)
	assert.Equal(t, tasks.CardNotifyChannel(card.ID), publisher.messages[1].channel)
	assert.Equal(t, NotifyProcessing, publisher.messages[0].notify.Status)
	assert.Equal(t, NotifyCompleted, publisher.messages[1].notify.Status)
	assert.Equal(t, "corr-9", publisher.messages[1].notify.CorrelationID)
	assert.Equal(t, stored.PreviewImageURL, publisher.messages[1].notify.PreviewURL)
}

func TestPreviewTaskUsesFrontendWhenConfigured(t *testing.T) {
	db := newTestDB(t)
	card := createCard(t, db)
	renderer := &fakeRenderer{}
	handler := NewPreviewTaskHandler(db, &fakeUploader{}, &fakePublisher{}, renderer, slog.New(slog.NewTextHandler(io.Discard, nil)), "https://cards.example", "https://api.example")

	task, err := tasks.NewCardPreviewTask(card.ID, "")
	require.NoError(t, err)
	require.NoError(t, handler.ProcessTask(context.Background(), task))

	require.Len(t, renderer.targets, 1)
	assert.Contains(t, renderer.targets[0].URL, "https://cards.example/?")
	assert.Contains(t, renderer.targets[0].URL, "eventType=christmas")
	assert.Equal(t, "frontend", renderer.targets[0].Name())
}

func TestPreviewTaskSkipsMissingCard(t *testing.T) {
	db := newTestDB(t)
	renderer := &fakeRenderer{}
	publisher := &fakePublisher{}
	handler := NewPreviewTaskHandler(db, &fakeUploader{}, publisher, renderer, slog.New(slog.NewTextHandler(io.Discard, nil)), "", "")

	task, err := tasks.NewCardPreviewTask(404, "corr-x")
	require.NoError(t, err)
	assert.NoError(t, handler.ProcessTask(context.Background(), task))
	assert.Empty(t, renderer.targets)

	require.Len(t, publisher.messages, 1)
	notify := publisher.messages[0].notify
	assert.Equal(t, NotifyError, notify.Status)
	assert.Equal(t, errcode.ResourceMissing, notify.ErrorCode)
	assert.Equal(t, "resource missing", notify.ErrorMessage)
	assert.Equal(t, tasks.CardNotifyChannel(404), publisher.messages[0].channel)
}

func TestPreviewTaskReturnsRenderError(t *testing.T) {
	db := newTestDB(t)
	card := createCard(t, db)
	renderer := &fakeRenderer{err: errors.New("chromium crashed")}
	uploader := &fakeUploader{}
	handler := NewPreviewTaskHandler(db, uploader, &fakePublisher{}, renderer, slog.New(slog.NewTextHandler(io.Discard, nil)), "", "")

	task, err := tasks.NewCardPreviewTask(card.ID, "")
	require.NoError(t, err)
	assert.ErrorContains(t, handler.ProcessTask(context.Background(), task), "chromium crashed")
	assert.Empty(t, uploader.objects)

	var stored database.Card
	require.NoError(t, db.First(&stored, card.ID).Error)
	assert.Equal(t, database.PreviewStatusProcessing, stored.PreviewStatus)
}

func TestPreviewTaskSucceedsWhenNotificationFails(t *testing.T) {
	db := newTestDB(t)
	card := createCard(t, db)
	renderer := &fakeRenderer{}
	publisher := &fakePublisher{err: errors.New("redis down")}
	handler := NewPreviewTaskHandler(db, &fakeUploader{}, publisher, renderer, slog.New(slog.NewTextHandler(io.Discard, nil)), "", "https://api.example")

	task, err := tasks.NewCardPreviewTask(card.ID, "")
	require.NoError(t, err)
	require.NoError(t, handler.ProcessTask(context.Background(), task))
	assert.Len(t, renderer.targets, 1, "preview is rendered once and not retried")

	var stored database.Card
	require.NoError(t, db.First(&stored, card.ID).Error)
	assert.Equal(t, database.PreviewStatusCompleted, stored.PreviewStatus)
	assert.NotEmpty(t, stored.PreviewImageURL)
}
