package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/code-payments/moderation-gateway/spool"
)

type store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewInMemory() spool.Store {
	return &store{
		data: make(map[string][]byte),
	}
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string][]byte)
}

// Len returns the number of artifacts that have not been released.
func (s *store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

func (s *store) Put(ctx context.Context, ext string, data []byte) (spool.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Store a copy of the data to prevent external modifications
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	name := spool.GenerateName(ext)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = dataCopy

	return &artifact{store: s, name: name}, nil
}

func (s *store) open(name string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.data[name]
	if !exists {
		return nil, spool.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *store) remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, name)
}

type artifact struct {
	store *store
	name  string
	once  sync.Once
}

func (a *artifact) Name() string { return a.name }

func (a *artifact) Open() (io.ReadCloser, error) {
	return a.store.open(a.name)
}

func (a *artifact) Release() error {
	a.once.Do(func() {
		a.store.remove(a.name)
	})
	return nil
}
