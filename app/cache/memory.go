package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Memory is an in-process cache backed by ristretto.
type Memory struct {
	c *ristretto.Cache[string, []byte]
}

// NewMemory returns an in-process cache holding up to 64MB.
func NewMemory() (*Memory, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e5,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: create ristretto: %w", err)
	}
	return &Memory{c: c}, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.SetWithTTL(key, value, int64(len(value)), ttl)
	// Make the write visible to the next Get.
	m.c.Wait()
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.c.Del(k)
	}
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.c.Clear()
	return nil
}

func (m *Memory) Close() error {
	m.c.Close()
	return nil
}
