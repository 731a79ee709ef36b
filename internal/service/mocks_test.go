package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"PortfolioCMS/internal/model"
	"PortfolioCMS/pkg/cache"
)

// memCache - кеш в памяти; запоминает инвалидированные ключи и префиксы
type memCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	invalidated []string
	prefixes    []string
	setErr      error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m *memCache) Invalidate(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, key)
	delete(m.data, key)
	return nil
}

func (m *memCache) InvalidatePrefix(ctx context.Context, prefix string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefixes = append(m.prefixes, prefix)
	var n int64
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

// mockPublisher собирает опубликованные события
type mockPublisher struct {
	mu     sync.Mutex
	events [][]byte
	err    error
}

func (m *mockPublisher) PublishJSON(event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	m.events = append(m.events, data)
	return nil
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *mockPublisher) entity(i int) model.EntityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var e model.EntityEvent
	_ = json.Unmarshal(m.events[i], &e)
	return e
}

func intPtr(i int) *int {
	return &i
}

func strPtr(s string) *string {
	return &s
}
