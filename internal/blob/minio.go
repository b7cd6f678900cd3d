package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/fieldsync/internal/client/remote"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig describes a MinIO bucket. Endpoint is host:port without scheme.
type MinioConfig struct {
	S3Config
	UseSSL bool
}

// MinioStore stores objects through the MinIO client.
type MinioStore struct {
	client *minio.Client
	cfg    MinioConfig
}

var _ remote.BlobStore = (*MinioStore)(nil)

func NewMinioStore(c MinioConfig) (*MinioStore, error) {
	client, err := minio.New(c.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure:       c.UseSSL,
		Region:       c.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	if c.URLExpiry <= 0 {
		c.URLExpiry = DefaultURLExpiry
	}
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")
	return &MinioStore{client: client, cfg: c}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.cfg.Bucket, err)
	}
	return nil
}

func (s *MinioStore) Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.cfg.Bucket, path, body, size, opts); err != nil {
		return fmt.Errorf("put object %s: %w", path, err)
	}
	return nil
}

func (s *MinioStore) URL(ctx context.Context, path string) (string, error) {
	if s.cfg.PublicBaseURL != "" {
		return s.cfg.PublicBaseURL + "/" + path, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, path, s.cfg.URLExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", path, err)
	}
	return u.String(), nil
}

func (s *MinioStore) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s: %w", path, err)
	}
	return nil
}
