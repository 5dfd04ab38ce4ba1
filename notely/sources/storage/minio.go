package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"notely/notely/config"
	"notely/notely/utils/logging"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ProxyPrefix is the in-app path images are served from when the bucket has
// no public URL.
const ProxyPrefix = "/images/"

var ErrObjectNotFound = errors.New("object not found")

type MinIOClient struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinIOClient connects to MinIO and creates the bucket when missing.
func NewMinIOClient(ctx context.Context, cfg config.Config) (*MinIOClient, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.MinIOBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.MinIOBucket, err)
		}
		logging.AppLogger.Info("created bucket", zap.String("bucket", cfg.MinIOBucket))
	}
	return newMinIOClient(client, cfg.MinIOBucket, cfg.MinIOPublicURL), nil
}

func newMinIOClient(client *minio.Client, bucket, publicURL string) *MinIOClient {
	return &MinIOClient{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Put uploads data under key and returns the URL stored on the image row.
func (m *MinIOClient) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	defer logging.LogDuration(ctx, "storage.Put")()

	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return m.URLFor(key), nil
}

// URLFor maps an object key to the URL handed to clients.
func (m *MinIOClient) URLFor(key string) string {
	if m.publicURL != "" {
		return m.publicURL + "/" + m.bucket + "/" + key
	}
	return ProxyPrefix + key
}

// KeyFromURL is the inverse of URLFor. It reports false for URLs that do not
// point into this bucket.
func (m *MinIOClient) KeyFromURL(raw string) (string, bool) {
	if key, ok := strings.CutPrefix(raw, ProxyPrefix); ok && key != "" {
		return key, true
	}
	if m.publicURL != "" {
		if key, ok := strings.CutPrefix(raw, m.publicURL+"/"+m.bucket+"/"); ok && key != "" {
			return key, true
		}
	}
	// Fall back to path matching so a changed MINIO_PUBLIC_URL host still
	// resolves rows written under the old one.
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	key, ok := strings.CutPrefix(u.Path, "/"+m.bucket+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func (m *MinIOClient) Remove(ctx context.Context, rawURL string) error {
	key, ok := m.KeyFromURL(rawURL)
	if !ok {
		return fmt.Errorf("not a blob url: %s", rawURL)
	}
	return m.RemoveKey(ctx, key)
}

func (m *MinIOClient) RemoveKey(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Open streams an object for the image proxy.
func (m *MinIOClient) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("get %s: %w", key, err)
	}
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", fmt.Errorf("stat %s: %w", key, err)
	}
	return obj, stat.ContentType, nil
}

// Keys lists every object key under prefix.
func (m *MinIOClient) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}
