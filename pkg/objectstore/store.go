package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Skotchmaster/bubba_express/pkg/config"
)

var ErrUnsupportedType = errors.New("unsupported content type")

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, prefix, contentType string, r io.Reader, size int64) (string, error)
}

type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func New(ctx context.Context, cfg config.ObjectStoreConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("object store endpoint is empty")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket: %w", err)
		}
	}

	public := cfg.PublicURL
	if public == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		public = scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket
	}

	return &MinioStore{client: client, bucket: cfg.Bucket, publicURL: strings.TrimRight(public, "/")}, nil
}

func (s *MinioStore) Upload(ctx context.Context, prefix, contentType string, r io.Reader, size int64) (string, error) {
	key, err := ObjectKey(prefix, contentType)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.publicURL + "/" + key, nil
}

// ObjectKey builds "<prefix>/<uuid><ext>" for an allowed image type.
func ObjectKey(prefix, contentType string) (string, error) {
	ext, ok := allowedTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return path.Join(prefix, uuid.NewString()+ext), nil
}

// Memory is an in-process Uploader for tests and local runs without an object store.
type Memory struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func (m *Memory) Upload(_ context.Context, prefix, contentType string, r io.Reader, _ int64) (string, error) {
	key, err := ObjectKey(prefix, contentType)
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Objects == nil {
		m.Objects = map[string][]byte{}
	}
	m.Objects[key] = b
	return "/images/" + key, nil
}
