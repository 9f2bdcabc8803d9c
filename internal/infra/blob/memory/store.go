// Package memory implements an in-memory blob Store for tests.
package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"rankcore/internal/blob/core"
)

type blobEntry struct {
	info core.Info
	data []byte
}

// Store implements core.Store backed by process memory. The read contract
// has no write path, so fixtures enter through Seed.
type Store struct {
	mu   sync.RWMutex
	objs map[string]blobEntry
}

var _ core.Store = (*Store)(nil)

// New returns an in-memory blob store.
func New() *Store { return &Store{objs: make(map[string]blobEntry)} }

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Seed installs or replaces a blob. It sits outside the Store interface;
// only test and bootstrap code mutates the fixture set.
func (s *Store) Seed(key, contentType string, data []byte) core.Info {
	b := make([]byte, len(data))
	copy(b, data)
	info := core.Info{
		Key:          key,
		Size:         int64(len(b)),
		ContentType:  contentType,
		LastModified: time.Now().UTC(),
	}

	s.mu.Lock()
	s.objs[key] = blobEntry{info: info, data: b}
	s.mu.Unlock()
	return info
}

// Get returns blob metadata and a read closer to its content.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objs[key]
	s.mu.RUnlock()
	if !ok {
		return core.Info{}, nil, core.NotFoundError{Key: key}
	}
	dataCopy := make([]byte, len(obj.data))
	copy(dataCopy, obj.data)
	return obj.info, io.NopCloser(bytes.NewReader(dataCopy)), nil
}

// Head returns blob metadata only.
func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	s.mu.RLock()
	obj, ok := s.objs[key]
	s.mu.RUnlock()
	if !ok {
		return core.Info{}, core.NotFoundError{Key: key}
	}
	return obj.info, nil
}

// List returns all blobs matching prefix sorted by key.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Info, 0, len(s.objs))
	for k, v := range s.objs {
		if prefix == "" || (len(k) >= len(prefix) && k[:len(prefix)] == prefix) {
			out = append(out, v.info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// PresignURL returns unsupported for the memory driver.
func (s *Store) PresignURL(_ context.Context, _ string, _ core.SignedURLOptions) (string, error) {
	return "", core.ErrUnsupported
}
