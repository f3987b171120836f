package imagestore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	k1 := NewKey(now, ".webp")
	k2 := NewKey(now, ".webp")
	assert.Regexp(t, `^scans/2026/3/1/[0-9a-f-]{36}\.webp$`, k1)
	assert.NotEqual(t, k1, k2)
}

func TestNew_Kinds(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, Config{Kind: KindNone})
	require.NoError(t, err)
	ref, err := s.Put(ctx, "k", []byte("x"), "image/webp")
	require.NoError(t, err)
	assert.Empty(t, ref)

	s, err = New(ctx, Config{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FSStore{}, s)

	_, err = New(ctx, Config{Kind: "ftp"})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestFSStore_Put(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	require.NoError(t, err)

	ref, err := s.Put(context.Background(), "scans/2026/3/1/a.webp", []byte("img"), "image/webp")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scans", "2026", "3", "1", "a.webp"), ref)

	got, err := os.ReadFile(ref)
	require.NoError(t, err)
	assert.Equal(t, "img", string(got))
}

func TestFSStore_RejectsEscapingKeys(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../evil.webp", "/etc/passwd", "a/../../b"} {
		_, err := s.Put(context.Background(), key, []byte("x"), "")
		assert.Error(t, err, "key %q", key)
	}
}

func TestNewFSStore_EmptyDir(t *testing.T) {
	_, err := NewFSStore("")
	assert.Error(t, err)
}

type fakeS3 struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestNewS3Store_AppliesOptions(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-central-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "minio", creds.AccessKeyID)
		return aws.Config{}, nil
	}

	fake := &fakeS3{}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) putObjectAPI {
		for _, fn := range optFns {
			fn(&opts)
		}
		return fake
	}

	s, err := NewS3Store(context.Background(), S3Config{
		Bucket: "scans", Region: "eu-central-1", Endpoint: "http://127.0.0.1:9000",
		AccessKey: "minio", SecretKey: "minio123",
	})
	require.NoError(t, err)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	ref, err := s.Put(context.Background(), "scans/a.jpg", []byte("jpeg!"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "s3://scans/scans/a.jpg", ref)
	assert.Equal(t, "scans", aws.ToString(fake.in.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(fake.in.ContentType))
	assert.EqualValues(t, 5, aws.ToInt64(fake.in.ContentLength))
	body, _ := io.ReadAll(fake.in.Body)
	assert.Equal(t, "jpeg!", string(body))
}

func TestNewS3Store_Errors(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)

	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })
	loadErr := errors.New("no config")
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, loadErr
	}
	_, err = NewS3Store(context.Background(), S3Config{Bucket: "b"})
	assert.ErrorIs(t, err, loadErr)
}

func TestS3Store_PutError(t *testing.T) {
	putErr := errors.New("access denied")
	s := &S3Store{client: &fakeS3{err: putErr}, bucket: "b"}
	_, err := s.Put(context.Background(), "k", nil, "")
	assert.ErrorIs(t, err, putErr)
}
