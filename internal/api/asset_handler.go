package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"greetcard/internal/api/middleware"
)

const (
	maxImageBytes    = 10 << 20
	maxMediaBytes    = 50 << 20
	assetURLTTL      = 15 * time.Minute
	assetCacheMaxAge = 600
)

// ErrMaliciousFile 表示扫描器在上传内容中发现了病毒特征。
var ErrMaliciousFile = errors.New("malicious file detected")

// VirusScanner 在上传前检查文件内容。
type VirusScanner interface {
	Scan(ctx context.Context, r io.Reader) error
}

type clamdScanner struct {
	client *clamd.Clamd
}

// NewClamdScanner 返回基于 clamd 的扫描器；addr 为空时返回 nil，表示不扫描。
func NewClamdScanner(addr string) VirusScanner {
	if addr == "" {
		return nil
	}
	return &clamdScanner{client: clamd.NewClamd(addr)}
}

func (s *clamdScanner) Scan(ctx context.Context, r io.Reader) error {
	abortChan := make(chan bool)
	defer close(abortChan)

	scanChan, err := s.client.ScanStream(r, abortChan)
	if err != nil {
		return fmt.Errorf("clamd scan stream: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result, ok := <-scanChan:
			if !ok {
				return nil
			}
			switch result.Status {
			case clamd.RES_OK:
			case clamd.RES_FOUND:
				return fmt.Errorf("%w: %s", ErrMaliciousFile, result.Description)
			default:
				return fmt.Errorf("clamd scan: %s %s", result.Status, result.Description)
			}
		}
	}
}

type assetKind struct {
	mime      string
	extension string
	maxBytes  int64
}

// 允许上传的类型，按嗅探出的内容判断，不信任客户端声明的 Content-Type。
var allowedAssetKinds = []assetKind{
	{"image/png", ".png", maxImageBytes},
	{"image/jpeg", ".jpg", maxImageBytes},
	{"image/webp", ".webp", maxImageBytes},
	{"image/gif", ".gif", maxImageBytes},
	{"video/mp4", ".mp4", maxMediaBytes},
	{"video/webm", ".webm", maxMediaBytes},
	{"audio/mpeg", ".mp3", maxMediaBytes},
}

func detectAssetKind(r io.Reader) (assetKind, bool) {
	detected, err := mimetype.DetectReader(r)
	if err != nil {
		return assetKind{}, false
	}
	for _, kind := range allowedAssetKinds {
		if detected.Is(kind.mime) {
			return kind, true
		}
	}
	return assetKind{}, false
}

// AssetHandler 负责卡片素材的上传与访问。
type AssetHandler struct {
	storage ObjectStore
	scanner VirusScanner
	links   linkBuilder
	now     func() time.Time
}

// NewAssetHandler 返回 AssetHandler 实例。scanner 可以为 nil。
func NewAssetHandler(storage ObjectStore, scanner VirusScanner, links linkBuilder) *AssetHandler {
	return &AssetHandler{storage: storage, scanner: scanner, links: links, now: time.Now}
}

// UploadAsset 接收 multipart 字段 file，校验类型与大小并扫描后写入对象存储。
// 返回的 url 是经由 /v1/assets/view 跳转的稳定地址，可以直接写进文档。
func (h *AssetHandler) UploadAsset(c *gin.Context) {
	log := middleware.LoggerFromContext(c)
	if h.storage == nil {
		Unavailable(c, "storage unavailable")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if file.Size <= 0 {
		BadRequest(c, "empty file")
		return
	}

	sniff, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	kind, ok := detectAssetKind(sniff)
	sniff.Close()
	if !ok {
		Unsupported(c, "unsupported file type")
		return
	}
	if file.Size > kind.maxBytes {
		TooLarge(c, fmt.Sprintf("file exceeds %d MB", kind.maxBytes>>20))
		return
	}

	if h.scanner != nil {
		scanReader, err := file.Open()
		if err != nil {
			Internal(c, "failed to open file")
			return
		}
		err = h.scanner.Scan(c.Request.Context(), scanReader)
		scanReader.Close()
		if errors.Is(err, ErrMaliciousFile) {
			log.Warn("malicious upload rejected", slog.String("client_ip", c.ClientIP()), slog.Any("error", err))
			BadRequest(c, "malicious file detected")
			return
		}
		if err != nil {
			log.Error("scan file", slog.Any("error", err))
			Internal(c, "failed to scan file")
			return
		}
	}

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to reopen file")
		return
	}
	defer fileReader.Close()

	objectKey := fmt.Sprintf("%s%s/%s%s", assetKeyPrefix, h.now().UTC().Format("2006-01-02"), uuid.NewString(), kind.extension)
	if err := h.storage.UploadFile(c.Request.Context(), objectKey, fileReader, file.Size, kind.mime); err != nil {
		log.Error("upload file", slog.String("objectKey", objectKey), slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"objectKey":   objectKey,
		"url":         h.links.assetURL(objectKey),
		"contentType": kind.mime,
		"size":        file.Size,
	})
}

// ViewAsset 为素材或预览图生成短期预签名地址并 302 跳转。
func (h *AssetHandler) ViewAsset(c *gin.Context) {
	objectKey := c.Query("key")
	if objectKey == "" {
		BadRequest(c, "missing key")
		return
	}
	if !isViewableObjectKey(objectKey) {
		Forbidden(c, "access denied")
		return
	}
	if h.storage == nil {
		Unavailable(c, "storage unavailable")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(c.Request.Context(), objectKey, assetURLTTL)
	if err != nil {
		middleware.LoggerFromContext(c).Error("generate presigned url", slog.String("objectKey", objectKey), slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}

	c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", assetCacheMaxAge))
	c.Redirect(http.StatusFound, signedURL)
}
