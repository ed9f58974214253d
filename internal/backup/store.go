package backup

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by stores for keys they do not hold.
var ErrObjectNotFound = errors.New("backup object not found")

// Store is the content store backups are uploaded to.
type Store interface {
	// Upload writes data under key and returns the storage path recorded on the backup.
	Upload(ctx context.Context, tenantID, key string, data []byte) (string, error)
	Download(ctx context.Context, storagePath string) ([]byte, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
