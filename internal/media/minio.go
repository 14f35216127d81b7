package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"storefront/internal/config"
)

// MinioStore implements Store for MinIO/S3 compatible storage. The delete
// handle is the object key inside the configured bucket.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStore connects to the media host and ensures the bucket exists.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &MinioStore{
		client:  client,
		bucket:  cfg.MinioBucket,
		baseURL: strings.TrimRight(cfg.MediaBaseURL, "/"),
	}, nil
}

// Upload stores the file under a fresh key and returns its public URL plus
// the key as the deletion handle.
func (m *MinioStore) Upload(ctx context.Context, folder, filename string, r io.Reader, size int64) (*Asset, error) {
	key := ObjectKey(folder, filename)
	opts := minio.PutObjectOptions{ContentType: ContentTypeFor(filename)}
	if _, err := m.client.PutObject(ctx, m.bucket, key, r, size, opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return &Asset{
		URL:    m.baseURL + "/" + m.bucket + "/" + key,
		Handle: key,
	}, nil
}

func (m *MinioStore) Delete(ctx context.Context, handle string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, handle, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

// ObjectKey builds a collision-free key, keeping the original extension.
func ObjectKey(folder, filename string) string {
	return folder + "/" + uuid.New().String() + strings.ToLower(path.Ext(filename))
}

func ContentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
