package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"greetcard/internal/config"
)

// Client 读写卡片素材与预览图。
// 写入走内部地址；预签名链接用公开地址签发，否则浏览器拿到的签名 Host 对不上。
type Client struct {
	rw     *minio.Client
	signer *minio.Client
	bucket string
	log    *slog.Logger
}

// NewClient 连接 MinIO 并检查 Bucket；AutoCreateBucket 为 true 时自动创建。
func NewClient(cfg config.MinIOConfig, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	lookup, err := parseBucketLookup(cfg.BucketLookup)
	if err != nil {
		return nil, err
	}
	creds := credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, "")

	rw, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        creds,
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	signer := rw
	if public := strings.TrimSpace(cfg.PublicEndpoint); public != "" {
		u, err := url.Parse(public)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid minio public endpoint %q", public)
		}
		signer, err = minio.New(u.Host, &minio.Options{
			Creds:        creds,
			Secure:       u.Scheme == "https",
			Region:       cfg.Region,
			BucketLookup: lookup,
		})
		if err != nil {
			return nil, fmt.Errorf("init minio signer: %w", err)
		}
	}

	c := &Client{rw: rw, signer: signer, bucket: cfg.Bucket, log: log}
	if err := c.ensureBucket(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) ensureBucket(cfg config.MinIOConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := c.rw.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", c.bucket, err)
	}
	if exists {
		return nil
	}
	if !cfg.AutoCreateBucket {
		return fmt.Errorf("bucket %q does not exist", c.bucket)
	}
	if err := c.rw.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
		return fmt.Errorf("make bucket %q: %w", c.bucket, err)
	}
	c.log.Info("created minio bucket", slog.String("bucket", c.bucket))
	return nil
}

func parseBucketLookup(raw string) (minio.BucketLookupType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		return minio.BucketLookupAuto, nil
	case "dns":
		return minio.BucketLookupDNS, nil
	case "path":
		return minio.BucketLookupPath, nil
	}
	return minio.BucketLookupAuto, fmt.Errorf("invalid minio bucket lookup %q", raw)
}

// cacheControlFor 素材键带 uuid，写入后不再变化；预览图会被重新生成覆盖。
func cacheControlFor(objectKey string) string {
	if strings.HasPrefix(objectKey, "card-assets/") {
		return "public, max-age=31536000, immutable"
	}
	return "no-cache"
}

// UploadFile 写入对象。size 为 -1 时按流式分片上传。
func (c *Client) UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	_, err := c.rw.PutObject(ctx, c.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: cacheControlFor(objectKey),
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", objectKey, err)
	}
	return nil
}

// GeneratePresignedURL 签发限时 GET 链接。
func (c *Client) GeneratePresignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	u, err := c.signer.PresignedGetObject(ctx, c.bucket, objectKey, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", objectKey, err)
	}
	return u.String(), nil
}

// DeletePrefix 批量删除前缀下的对象（例如一张卡片的全部预览图）。已不存在的对象不算错误。
func (c *Client) DeletePrefix(ctx context.Context, prefix string) error {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return errors.New("refusing to delete with empty prefix")
	}

	listed := c.rw.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	toDelete := make(chan minio.ObjectInfo)
	var listErr error
	go func() {
		defer close(toDelete)
		for obj := range listed {
			if obj.Err != nil {
				if listErr == nil && !IsNoSuchBucket(obj.Err) {
					listErr = obj.Err
				}
				continue
			}
			select {
			case toDelete <- obj:
			case <-ctx.Done():
				return
			}
		}
	}()

	var failed int
	var firstErr error
	for res := range c.rw.RemoveObjects(ctx, c.bucket, toDelete, minio.RemoveObjectsOptions{}) {
		if res.Err == nil || IsNoSuchKey(res.Err) {
			continue
		}
		failed++
		if firstErr == nil {
			firstErr = res.Err
		}
	}
	if listErr != nil {
		return fmt.Errorf("list objects under %q: %w", prefix, listErr)
	}
	if failed > 0 {
		c.log.Error("delete objects under prefix",
			slog.String("prefix", prefix),
			slog.Int("failed", failed),
		)
		return fmt.Errorf("delete objects under %q: %d failed, first: %w", prefix, failed, firstErr)
	}
	return nil
}
