// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/structdraw/backend/internal/models"
	"github.com/structdraw/backend/internal/storage"
)

// MockStorage implements storage.Store in memory
type MockStorage struct {
	assets  map[string]*models.Asset
	data    map[string][]byte
	deleted []string
	mu      sync.RWMutex
	SaveErr error // returned by Save when set
	OpenErr error // returned by Open when set
}

// NewMockStorage creates a new empty mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		assets: make(map[string]*models.Asset),
		data:   make(map[string][]byte),
	}
}

func (m *MockStorage) Save(name, mimeType string, r io.Reader) (*models.Asset, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return m.SaveBytes(name, mimeType, data)
}

func (m *MockStorage) SaveBytes(name, mimeType string, data []byte) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := generateTestID()
	asset := &models.Asset{
		ID:         id,
		Name:       name,
		Size:       int64(len(data)),
		MIMEType:   mimeType,
		Ref:        id,
		UploadedAt: time.Now(),
	}

	m.assets[id] = asset
	m.data[id] = append([]byte(nil), data...)
	return asset, nil
}

func (m *MockStorage) Get(id string) (*models.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	asset, ok := m.assets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return asset, nil
}

func (m *MockStorage) Open(id string) (io.ReadCloser, error) {
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockStorage) List(limit int) ([]*models.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	assets := make([]*models.Asset, 0, len(m.assets))
	for _, a := range m.assets {
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].UploadedAt.After(assets[j].UploadedAt) })
	if limit > 0 && len(assets) > limit {
		assets = assets[:limit]
	}
	return assets, nil
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.assets[id]; !exists {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}

	delete(m.assets, id)
	delete(m.data, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// Test Helper Methods

// AddAsset adds an asset directly to the mock
func (m *MockStorage) AddAsset(id, name, mimeType string, data []byte) *models.Asset {
	m.mu.Lock()
	defer m.mu.Unlock()

	asset := &models.Asset{
		ID:         id,
		Name:       name,
		Size:       int64(len(data)),
		MIMEType:   mimeType,
		Ref:        id,
		UploadedAt: time.Now(),
	}
	m.assets[id] = asset
	m.data[id] = data
	return asset
}

// Has reports whether bytes for id are still stored
func (m *MockStorage) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[id]
	return ok
}

// Count returns the number of stored assets
func (m *MockStorage) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assets)
}

// Deleted returns the ids removed so far, in order
func (m *MockStorage) Deleted() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.deleted...)
}

var (
	testIDCounter int
	testIDMutex   sync.Mutex
)

func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%d", testIDCounter)
}
