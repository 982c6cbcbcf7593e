// Package storage keeps the bytes of uploaded drawings on the local filesystem.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/structdraw/backend/internal/models"
)

var (
	// ErrNotFound is returned for unknown asset ids.
	ErrNotFound = errors.New("asset not found")
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("asset exceeds maximum size")
)

// Store defines the interface for asset byte storage.
type Store interface {
	Save(name, mimeType string, r io.Reader) (*models.Asset, error)
	SaveBytes(name, mimeType string, data []byte) (*models.Asset, error)
	Get(id string) (*models.Asset, error)
	Open(id string) (io.ReadCloser, error)
	List(limit int) ([]*models.Asset, error)
	Delete(id string) error
}

// LocalStore implements Store using the local filesystem.
type LocalStore struct {
	mu        sync.RWMutex
	uploadDir string
	maxSize   int64 // 0 means unlimited
	assets    map[string]*models.Asset
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(uploadDir string, maxSize int64) (*LocalStore, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	return &LocalStore{
		uploadDir: uploadDir,
		maxSize:   maxSize,
		assets:    make(map[string]*models.Asset),
	}, nil
}

// Save writes the bytes of an uploaded drawing and registers its metadata.
func (s *LocalStore) Save(name, mimeType string, r io.Reader) (*models.Asset, error) {
	id := uuid.New().String()
	path := filepath.Join(s.uploadDir, id)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}

	size, err := io.Copy(f, src)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}
	if s.maxSize > 0 && size > s.maxSize {
		os.Remove(path)
		return nil, fmt.Errorf("%w: limit %d bytes", ErrTooLarge, s.maxSize)
	}

	asset := &models.Asset{
		ID:         id,
		Name:       name,
		Size:       size,
		MIMEType:   mimeType,
		Ref:        id,
		UploadedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[id] = asset

	return asset, nil
}

// SaveBytes saves an in-memory upload.
func (s *LocalStore) SaveBytes(name, mimeType string, data []byte) (*models.Asset, error) {
	return s.Save(name, mimeType, bytes.NewReader(data))
}

// Get retrieves asset metadata by ID.
func (s *LocalStore) Get(id string) (*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	asset, ok := s.assets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return asset, nil
}

// Open returns a reader over the stored bytes.
func (s *LocalStore) Open(id string) (io.ReadCloser, error) {
	s.mu.RLock()
	_, ok := s.assets[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	f, err := os.Open(filepath.Join(s.uploadDir, id))
	if err != nil {
		return nil, fmt.Errorf("opening asset: %w", err)
	}
	return f, nil
}

// List returns the most recent assets.
func (s *LocalStore) List(limit int) ([]*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.Asset, 0, len(s.assets))
	for _, asset := range s.assets {
		list = append(list, asset)
	}

	// Sort by UploadedAt desc
	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// Delete releases an asset: the bytes are removed and the id forgotten.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	path := filepath.Join(s.uploadDir, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}

	delete(s.assets, id)
	return nil
}
