package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps backups in a Cloud Storage bucket. Paths are gs://<bucket>/<key>.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore connects to Cloud Storage. A non-empty endpoint targets an emulator
// and disables authentication.
func NewGCSStore(ctx context.Context, bucket, endpoint string) (*GCSStore, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("backup bucket is required for the gcs store")
	}
	var opts []option.ClientOption
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (g *GCSStore) Upload(ctx context.Context, tenantID, key string, data []byte) (string, error) {
	if strings.TrimSpace(tenantID) == "" {
		return "", fmt.Errorf("tenant id is required for upload")
	}
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/gzip"
	w.Metadata = map[string]string{"tenant_id": tenantID}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object %s: %w", key, err)
	}
	return g.path(key), nil
}

func (g *GCSStore) Download(ctx context.Context, storagePath string) ([]byte, error) {
	key, err := g.keyOf(storagePath)
	if err != nil {
		return nil, err
	}
	r, err := g.client.Bucket(g.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", key, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (g *GCSStore) Delete(ctx context.Context, key string) error {
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (g *GCSStore) Close() error {
	return g.client.Close()
}

func (g *GCSStore) String() string {
	return fmt.Sprintf("GCSStore(bucket=%s)", g.bucket)
}

func (g *GCSStore) path(key string) string {
	return "gs://" + g.bucket + "/" + key
}

func (g *GCSStore) keyOf(storagePath string) (string, error) {
	prefix := "gs://" + g.bucket + "/"
	if !strings.HasPrefix(storagePath, prefix) {
		return "", fmt.Errorf("storage path %q is not in bucket %s", storagePath, g.bucket)
	}
	return strings.TrimPrefix(storagePath, prefix), nil
}
