package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	put    *s3.PutObjectInput
	body   string
	del    *s3.DeleteObjectInput
	putErr error
	delErr error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	if in.Body != nil {
		b, _ := io.ReadAll(in.Body)
		f.body = string(b)
	}
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.del = in
	return &s3.DeleteObjectOutput{}, f.delErr
}

type fakePresign struct {
	putIn   *s3.PutObjectInput
	getIn   *s3.GetObjectInput
	expires time.Duration
	err     error
}

func (f *fakePresign) PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.putIn = in
	var o s3.PresignOptions
	for _, fn := range optFns {
		fn(&o)
	}
	f.expires = o.Expires
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://s3/put/" + *in.Key}, nil
}

func (f *fakePresign) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.getIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://s3/get/" + *in.Key}, nil
}

func newFakeS3Store() (*S3Store, *fakeS3, *fakePresign) {
	api := &fakeS3{}
	pre := &fakePresign{}
	return &S3Store{api: api, presign: pre, bucket: "media", expiry: time.Minute}, api, pre
}

func TestS3Store_Put(t *testing.T) {
	s, api, _ := newFakeS3Store()

	err := s.Put(context.Background(), "cases/c1/m1.jpg", strings.NewReader("jpeg"), 4, "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "media", *api.put.Bucket)
	require.Equal(t, "cases/c1/m1.jpg", *api.put.Key)
	require.Equal(t, int64(4), *api.put.ContentLength)
	require.Equal(t, "image/jpeg", *api.put.ContentType)
	require.Equal(t, "jpeg", api.body)

	api.putErr = errors.New("slow down")
	err = s.Put(context.Background(), "k", strings.NewReader(""), -1, "")
	require.ErrorContains(t, err, "put object k")
	require.Nil(t, api.put.ContentLength)
	require.Nil(t, api.put.ContentType)
}

func TestS3Store_URL(t *testing.T) {
	s, _, pre := newFakeS3Store()

	u, err := s.URL(context.Background(), "cases/c1/m1.jpg")
	require.NoError(t, err)
	require.Equal(t, "https://s3/get/cases/c1/m1.jpg", u)
	require.Equal(t, "media", *pre.getIn.Bucket)

	s.public = "https://cdn.example.com"
	u, err = s.URL(context.Background(), "cases/c1/m1.jpg")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/cases/c1/m1.jpg", u)
}

func TestS3Store_Delete(t *testing.T) {
	s, api, _ := newFakeS3Store()
	require.NoError(t, s.Delete(context.Background(), "k"))
	require.Equal(t, "k", *api.del.Key)

	api.delErr = errors.New("boom")
	require.ErrorContains(t, s.Delete(context.Background(), "k"), "delete object k")
}

func TestS3Store_PresignPut(t *testing.T) {
	s, _, pre := newFakeS3Store()

	u, err := s.PresignPut(context.Background(), "cases/c1/m1.mp4", "video/mp4")
	require.NoError(t, err)
	require.Equal(t, "https://s3/put/cases/c1/m1.mp4", u)
	require.Equal(t, "video/mp4", *pre.putIn.ContentType)
	require.Equal(t, time.Minute, pre.expires)

	pre.err = errors.New("no creds")
	_, err = s.PresignPut(context.Background(), "k", "")
	require.ErrorContains(t, err, "presign put k")
	_, err = s.PresignGet(context.Background(), "k")
	require.ErrorContains(t, err, "presign get k")
}

func TestNewS3Store_AppliesConfig(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		require.Equal(t, "eu-west-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		require.NotNil(t, c)
		return &s3.PresignClient{}
	}

	s, err := NewS3Store(context.Background(), S3Config{
		Endpoint:      "http://127.0.0.1:9000",
		Region:        "eu-west-1",
		AccessKey:     "ak",
		SecretKey:     "sk",
		Bucket:        "media",
		PublicBaseURL: "https://cdn/",
	})
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	require.True(t, opts.UsePathStyle)
	require.Equal(t, DefaultURLExpiry, s.expiry)
	require.Equal(t, "https://cdn", s.public)
}

func TestNewS3Store_ConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("bad profile")
	}
	_, err := NewS3Store(context.Background(), S3Config{})
	require.ErrorContains(t, err, "aws config error")
}
