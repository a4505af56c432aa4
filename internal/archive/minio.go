package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bowerhall/albumbot/internal/logger"
	"github.com/bowerhall/albumbot/internal/media"
)

// Downloader fetches the binary content behind a photo ref. The
// Telegram transport provides it.
type Downloader interface {
	DownloadPhoto(ref media.Ref) ([]byte, string, error)
}

// Client keeps a copy of every forwarded album in object storage.
type Client struct {
	mc         *minio.Client
	bucket     string
	downloader Downloader
}

// Config holds MinIO connection settings
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func NewClient(cfg Config, downloader Downloader) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	return &Client{
		mc:         mc,
		bucket:     "albumbot-albums",
		downloader: downloader,
	}, nil
}

// Init creates the archive bucket if it doesn't exist
func (c *Client) Init(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}

	if !exists {
		if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", c.bucket, err)
		}
		logger.Info("bucket created", "bucket", c.bucket)
	}

	return nil
}

// Archive stores each photo of a sent album under a per-user, per-day
// prefix. Failures are logged and skipped; archival never blocks or
// fails the user-facing flow.
func (c *Client) Archive(userID int64, refs []media.Ref) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	prefix := fmt.Sprintf("%d/%s", userID, time.Now().Format("2006-01-02"))
	stored := 0

	for i, ref := range refs {
		data, contentType, err := c.downloader.DownloadPhoto(ref)
		if err != nil {
			logger.Error("archive download failed", "userID", userID, "ref", ref, "error", err)
			continue
		}

		name := fmt.Sprintf("%s/%d-%02d.jpg", prefix, time.Now().Unix(), i)

		_, err = c.mc.PutObject(ctx, c.bucket, name,
			bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: contentType})
		if err != nil {
			logger.Error("archive upload failed", "userID", userID, "object", name, "error", err)
			continue
		}

		stored++
	}

	logger.Info("album archived", "userID", userID, "stored", stored, "of", len(refs))
}
