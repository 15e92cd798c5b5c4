package imagehost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// DefaultPresignExpiry is used when no public base URL is configured.
const DefaultPresignExpiry = 7 * 24 * time.Hour

// ObjectStore is the subset of *minio.Client used by Minio.
type ObjectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

// MinioConfig holds the connection settings for NewMinioClient.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// NewMinioClient dials an S3 compatible endpoint.
func NewMinioClient(cfg MinioConfig) (*minio.Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("imagehost: minio endpoint is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("imagehost: minio client: %w", err)
	}
	return client, nil
}

// MinioOption configures a Minio uploader.
type MinioOption func(*Minio)

// WithPublicBaseURL makes links plain "<base>/<key>" instead of presigned.
func WithPublicBaseURL(base string) MinioOption {
	return func(m *Minio) {
		m.publicBase = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithPresignExpiry sets the lifetime of presigned links.
func WithPresignExpiry(expiry time.Duration) MinioOption {
	return func(m *Minio) {
		if expiry > 0 {
			m.expiry = expiry
		}
	}
}

// WithKeyPrefix prefixes every object key.
func WithKeyPrefix(prefix string) MinioOption {
	return func(m *Minio) {
		m.prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	}
}

// WithKeyFunc overrides object key generation.
func WithKeyFunc(fn func(File) string) MinioOption {
	return func(m *Minio) {
		if fn != nil {
			m.key = fn
		}
	}
}

// WithMinioLogger sets the logger.
func WithMinioLogger(logger *zap.Logger) MinioOption {
	return func(m *Minio) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Minio stores images in a bucket.
type Minio struct {
	store      ObjectStore
	bucket     string
	publicBase string
	prefix     string
	expiry     time.Duration
	key        func(File) string
	logger     *zap.Logger
}

// NewMinio constructs an uploader writing into bucket.
func NewMinio(store ObjectStore, bucket string, options ...MinioOption) (*Minio, error) {
	if store == nil {
		return nil, errors.New("imagehost: object store is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("imagehost: bucket is required")
	}
	m := &Minio{
		store:  store,
		bucket: bucket,
		expiry: DefaultPresignExpiry,
		key:    objectKey,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (m *Minio) EnsureBucket(ctx context.Context) error {
	found, err := m.store.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("imagehost: bucket %q: %w", m.bucket, err)
	}
	if found {
		return nil
	}
	if err := m.store.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("imagehost: make bucket %q: %w", m.bucket, err)
	}
	return nil
}

// Upload implements Uploader.
func (m *Minio) Upload(ctx context.Context, file File) (Result, error) {
	file, err := validate(file)
	if err != nil {
		return Result{}, err
	}

	key := m.key(file)
	if m.prefix != "" {
		key = m.prefix + "/" + key
	}

	size := file.Size
	if size <= 0 {
		size = -1
	}
	if _, err := m.store.PutObject(ctx, m.bucket, key, file.Reader, size, minio.PutObjectOptions{
		ContentType: file.ContentType,
	}); err != nil {
		return Result{}, fmt.Errorf("imagehost: put %q: %w", key, err)
	}

	link, err := m.link(ctx, key)
	if err != nil {
		return Result{}, err
	}

	m.logger.Info("image uploaded",
		zap.String("provider", "minio"),
		zap.String("bucket", m.bucket),
		zap.String("key", key),
		zap.String("file", file.Name))

	return Result{Link: link, Key: key}, nil
}

func (m *Minio) link(ctx context.Context, key string) (string, error) {
	if m.publicBase != "" {
		return m.publicBase + "/" + m.bucket + "/" + key, nil
	}
	u, err := m.store.PresignedGetObject(ctx, m.bucket, key, m.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("imagehost: presign %q: %w", key, err)
	}
	return u.String(), nil
}

func objectKey(file File) string {
	return uuid.NewString() + strings.ToLower(path.Ext(file.Name))
}
