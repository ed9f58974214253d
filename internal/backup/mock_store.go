package backup

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const mockScheme = "mock://"

// MockStore keeps objects in memory. Paths are deterministic: mock://<key>.
type MockStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	owners  map[string]string
}

func NewMockStore() *MockStore {
	return &MockStore{
		objects: map[string][]byte{},
		owners:  map[string]string{},
	}
}

func (m *MockStore) Upload(ctx context.Context, tenantID, key string, data []byte) (string, error) {
	if strings.TrimSpace(tenantID) == "" {
		return "", fmt.Errorf("tenant id is required for upload")
	}
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("object key is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	m.owners[key] = tenantID
	return mockScheme + key, nil
}

func (m *MockStore) Download(ctx context.Context, storagePath string) ([]byte, error) {
	key := strings.TrimPrefix(storagePath, mockScheme)
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.owners, key)
	return nil
}

// Keys lists stored keys. Used by tests and the CLI.
func (m *MockStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}

func (m *MockStore) String() string {
	return "MockStore"
}
