// Package archive keeps raw fetched pages in S3/MinIO, one prefix per
// ingest run. The archive exists so a parser fix can be replayed against
// yesterday's pages without hitting the site again.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds S3/MinIO client configuration.
type Config struct {
	Endpoint        string // "localhost:9000" for MinIO
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Client wraps the MinIO/S3 client for archive operations.
type Client struct {
	minioClient *minio.Client
	bucket      string
}

// New creates a new S3/MinIO archive client.
func New(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Client{minioClient: minioClient, bucket: config.Bucket}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.minioClient.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := c.minioClient.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// NewPrefix builds the object prefix for one run: runs/{host}/{timestamp}-{runID}.
func NewPrefix(host string, ts time.Time, runID string) string {
	return fmt.Sprintf("runs/%s/%s-%s", host, ts.UTC().Format("2006-01-02T15-04-05"), runID)
}

// RunMetadata holds information about an archived run.
type RunMetadata struct {
	RunID       string   `json:"run_id"`
	Host        string   `json:"host"`
	Timestamp   string   `json:"timestamp"`
	PageCount   int      `json:"page_count"`
	Identifiers []string `json:"identifiers"` // judge IDs archived in this run
}

// PutPage writes one raw fetched page under the run prefix.
func (c *Client) PutPage(ctx context.Context, prefix, identifier string, body []byte) error {
	objectName := path.Join(prefix, "pages", identifier+".html")

	_, err := c.minioClient.PutObject(ctx, c.bucket, objectName, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "text/html",
	})
	if err != nil {
		return fmt.Errorf("failed to put page: %w", err)
	}
	return nil
}

// GetPage reads one archived page.
func (c *Client) GetPage(ctx context.Context, prefix, identifier string) ([]byte, error) {
	objectName := path.Join(prefix, "pages", identifier+".html")

	object, err := c.minioClient.GetObject(ctx, c.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	return data, nil
}

// ListPages returns the identifiers of all pages archived under a prefix.
func (c *Client) ListPages(ctx context.Context, prefix string) ([]string, error) {
	pagesPrefix := path.Join(prefix, "pages") + "/"
	var ids []string

	objectCh := c.minioClient.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    pagesPrefix,
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		if strings.HasSuffix(object.Key, ".html") {
			ids = append(ids, strings.TrimSuffix(path.Base(object.Key), ".html"))
		}
	}

	return ids, nil
}

// PutMetadata writes the run metadata JSON under the prefix.
func (c *Client) PutMetadata(ctx context.Context, prefix string, meta RunMetadata) error {
	objectName := path.Join(prefix, "metadata.json")

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = c.minioClient.PutObject(ctx, c.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to put metadata: %w", err)
	}
	return nil
}

// GetMetadata reads the run metadata from the archive.
func (c *Client) GetMetadata(ctx context.Context, prefix string) (*RunMetadata, error) {
	objectName := path.Join(prefix, "metadata.json")

	object, err := c.minioClient.GetObject(ctx, c.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &meta, nil
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}
