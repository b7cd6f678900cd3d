package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/fieldsync/internal/client/remote"
)

// DefaultURLExpiry is the lifetime of presigned URLs.
const DefaultURLExpiry = 15 * time.Minute

// S3Config describes an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	// PublicBaseURL, when set, makes URL return PublicBaseURL/path instead of
	// a presigned GET.
	PublicBaseURL string
	URLExpiry     time.Duration
}

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type presignAPI interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
)

// S3Store talks to the bucket directly with static credentials.
type S3Store struct {
	api     s3API
	presign presignAPI
	bucket  string
	public  string
	expiry  time.Duration
}

var _ remote.BlobStore = (*S3Store)(nil)

func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	expiry := c.URLExpiry
	if expiry <= 0 {
		expiry = DefaultURLExpiry
	}

	return &S3Store{
		api:     client,
		presign: newS3PresignClient(client),
		bucket:  c.Bucket,
		public:  strings.TrimRight(c.PublicBaseURL, "/"),
		expiry:  expiry,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
		Body:   body,
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.api.PutObject(ctx, in); err != nil {
		return fmt.Errorf("put object %s: %w", path, err)
	}
	return nil
}

func (s *S3Store) URL(ctx context.Context, path string) (string, error) {
	if s.public != "" {
		return s.public + "/" + path, nil
	}
	return s.PresignGet(ctx, path)
}

func (s *S3Store) Delete(ctx context.Context, path string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", path, err)
	}
	return nil
}

// PresignPut returns a URL the holder can PUT the object to.
func (s *S3Store) PresignPut(ctx context.Context, path, contentType string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	req, err := s.presign.PresignPutObject(ctx, in, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", path, err)
	}
	return req.URL, nil
}

func (s *S3Store) PresignGet(ctx context.Context, path string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", path, err)
	}
	return req.URL, nil
}
