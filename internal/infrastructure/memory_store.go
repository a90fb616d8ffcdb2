package infrastructure

import (
	"context"
	"sort"
	"sync"

	"marketingops/internal/domain"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"
)

// memoryBackend keeps documents in process memory.
type memoryBackend struct {
	data   map[string]map[string][]byte
	mutex  sync.RWMutex
	logger *logger.Logger
}

// NewMemoryStore creates a store that lives as long as the process.
func NewMemoryStore(logger *logger.Logger, m *metrics.Metrics) *DocumentStore {
	return newDocumentStore(&memoryBackend{
		data:   make(map[string]map[string][]byte),
		logger: logger,
	}, m)
}

func (b *memoryBackend) name() string { return "memory" }

func (b *memoryBackend) list(ctx context.Context, collection string) ([][]byte, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	docs := b.data[collection]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([][]byte, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(docs[id]))
	}
	return out, nil
}

func (b *memoryBackend) get(ctx context.Context, collection, id string) ([]byte, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	data, exists := b.data[collection][id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return clone(data), nil
}

func (b *memoryBackend) put(ctx context.Context, collection, id string, data []byte, mode putMode) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	docs, ok := b.data[collection]
	if !ok {
		docs = make(map[string][]byte)
		b.data[collection] = docs
	}

	_, exists := docs[id]
	switch {
	case mode == putCreate && exists:
		return domain.ErrAlreadyExists
	case mode == putUpdate && !exists:
		return domain.ErrNotFound
	}

	docs[id] = clone(data)

	b.logger.WithContext(ctx).WithFields(map[string]any{
		"collection": collection,
		"id":         id,
	}).Debug("Stored document in memory")
	return nil
}

func (b *memoryBackend) delete(ctx context.Context, collection, id string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if _, exists := b.data[collection][id]; !exists {
		return domain.ErrNotFound
	}
	delete(b.data[collection], id)
	return nil
}

func clone(data []byte) []byte {
	return append([]byte(nil), data...)
}
