// Package mock implements an in-memory jdb store with the same operation
// semantics as the real server: get, put, delete, compare-and-set and append.
// It backs the client's mock runtime mode and the local sandbox server.
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/JDrit/jdb-jepsen/internal/devseed"
)

// Mock is an in-memory jdb store. It is safe for concurrent use.
type Mock struct {
	mu    sync.RWMutex
	items map[string]string
}

// New creates an empty store.
func New() *Mock {
	return &Mock{items: make(map[string]string)}
}

// Seed loads initial pairs, typically decoded via devseed.Load. Existing
// values under seeded keys are overwritten.
func (m *Mock) Seed(entries []devseed.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		if strings.TrimSpace(e.Key) == "" {
			return fmt.Errorf("mock jdb: seed entry missing key")
		}
		m.items[e.Key] = e.Value
	}
	return nil
}

// Get returns the value under key and whether the key exists.
func (m *Mock) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.items[key]
	return value, ok, nil
}

// Put stores value under key, creating or overwriting it.
func (m *Mock) Put(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("mock jdb: key is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = value
	return nil
}

// Delete removes key and reports whether it existed.
func (m *Mock) Delete(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.items[key]
	delete(m.items, key)
	return ok, nil
}

// CAS replaces the value under key with next when the stored value equals
// current, reporting whether the swap happened. A missing key never matches,
// and a failed comparison leaves the stored value untouched.
func (m *Mock) CAS(ctx context.Context, key, current, next string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.items[key]
	if !ok || stored != current {
		return false, nil
	}
	m.items[key] = next
	return true, nil
}

// Append concatenates value onto the value under key, creating the key if
// absent.
func (m *Mock) Append(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("mock jdb: key is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = m.items[key] + value
	return nil
}

// Keys returns all stored keys in sorted order.
func (m *Mock) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.items))
	for key := range m.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Len reports the number of stored keys.
func (m *Mock) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
