package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"marketplace-catalog/internal/storage"
)

var ErrInjected = errors.New("injected storage failure")

// MemoryStore is an ObjectStore kept in a map. Setting FailPutAfter to n
// makes every Put after the first n fail; FailDelete and FailList break the
// other writes and listings.
type MemoryStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	puts         int
	FailPutAfter int
	FailDelete   bool
	FailList     bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte), FailPutAfter: -1}
}

func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) (*storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPutAfter >= 0 && s.puts >= s.FailPutAfter {
		return nil, ErrInjected
	}
	s.puts++
	s.objects[key] = append([]byte(nil), data...)
	return &storage.ObjectInfo{Key: key, Size: uint64(len(data)), ContentType: contentType, ModTime: time.Now()}, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, *storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, nil, storage.ErrObjectNotFound
	}
	return data, &storage.ObjectInfo{Key: key, Size: uint64(len(data)), ContentType: "image/png"}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete {
		return ErrInjected
	}
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) ([]*storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailList {
		return nil, ErrInjected
	}
	var out []*storage.ObjectInfo
	for key, data := range s.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, &storage.ObjectInfo{Key: key, Size: uint64(len(data))})
		}
	}
	return out, nil
}

func (s *MemoryStore) URL(key string) string {
	return "/uploads/" + key
}

// Keys lists stored keys under prefix in sorted order.
func (s *MemoryStore) Keys(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Seed writes an object directly, bypassing failure injection.
func (s *MemoryStore) Seed(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
}

// PNG is the smallest byte string the content sniffer accepts as image/png.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
