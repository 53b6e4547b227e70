package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func postUpload(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := newMultipartUpload(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/v1/assets/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadAsset(t *testing.T) {
	env := newTestEnv(t)

	w := postUpload(t, env.router, "photo.bin", pngHeader)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		ObjectKey   string `json:"objectKey"`
		URL         string `json:"url"`
		ContentType string `json:"contentType"`
	}
	decodeBody(t, w, &out)
	assert.Regexp(t, regexp.MustCompile(`^card-assets/\d{4}-\d{2}-\d{2}/[0-9a-f-]{36}\.png$`), out.ObjectKey)
	assert.Equal(t, "image/png", out.ContentType, "type comes from content, not the file name")
	assert.Equal(t, testPublicURL+"/v1/assets/view?key=", out.URL[:len(testPublicURL)+len("/v1/assets/view?key=")])
	assert.Equal(t, pngHeader, env.storage.uploaded[out.ObjectKey])
	assert.Equal(t, "image/png", env.storage.types[out.ObjectKey])
}

func TestUploadAssetRejections(t *testing.T) {
	env := newTestEnv(t)

	w := postUpload(t, env.router, "notes.png", []byte("just some text, not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/assets/upload", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, env.storage.uploaded)
}

func TestUploadAssetVirusScan(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Scanner = fakeScanner{err: fmt.Errorf("%w: Eicar-Test-Signature", ErrMaliciousFile)}
	})

	w := postUpload(t, env.router, "photo.png", pngHeader)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.storage.uploaded)
}

func TestViewAsset(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/v1/assets/view?key=card-assets%2F2026-10-17%2Fabc.png", nil, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://minio.example/card-assets/2026-10-17/abc.png?X-Amz-Signature=abc", w.Header().Get("Location"))

	w = env.do(http.MethodGet, "/v1/assets/view?key=thumbnails%2Fcard%2F3%2Fpreview.jpg", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/v1/assets/view", nil, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/v1/assets/view?key=private%2Fsecret.png", nil, nil).Code)
}

func TestIsViewableObjectKey(t *testing.T) {
	cases := map[string]bool{
		"card-assets/2026-10-17/a.png":        true,
		"card-assets/2026-10-17/a.MP4":        true,
		"thumbnails/card/1/preview.jpg":       true,
		"card-assets/../secrets/a.png":        false,
		"card-assets//a.png":                  false,
		"card-assets\\a.png":                  false,
		"card-assets/2026-10-17/a.exe":        false,
		"user-assets/1/a.png":                 false,
		"":                                    false,
		"card-assets/" + string([]byte{0xff}): false,
	}
	for key, want := range cases {
		assert.Equal(t, want, isViewableObjectKey(key), key)
	}
}

func TestDetectAssetKind(t *testing.T) {
	kind, ok := detectAssetKind(bytes.NewReader(pngHeader))
	require.True(t, ok)
	assert.Equal(t, ".png", kind.extension)

	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	kind, ok = detectAssetKind(bytes.NewReader(jpeg))
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", kind.mime)

	_, ok = detectAssetKind(bytes.NewReader([]byte("%PDF-1.7")))
	assert.False(t, ok)
}

func TestUploadAssetKeyUsesUTCDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeStorage()
	handler := NewAssetHandler(store, nil, newLinkBuilder(testPublicURL, testViewerURL))
	handler.now = func() time.Time { return time.Date(2026, 1, 2, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800)) }

	router := gin.New()
	router.POST("/v1/assets/upload", handler.UploadAsset)

	w := postUpload(t, router, "a.png", pngHeader)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		ObjectKey string `json:"objectKey"`
	}
	decodeBody(t, w, &out)
	assert.True(t, strings.HasPrefix(out.ObjectKey, "card-assets/2026-01-02/"), out.ObjectKey)
}
