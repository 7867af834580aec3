// Package store persists a plugin's key-value data.
//
// Values are JSON documents. Three backends implement Store:
//
//   - HostStore:   the host's own plugin store, over store.* requests.
//   - EtcdStore:   an etcd v3 cluster, for data shared between servers.
//   - MemoryStore: process memory, for tests and offline runs.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"omegga-rpc/config"
	"sort"
	"sync"

	"go.uber.org/zap"
)

var ErrClosed = errors.New("store: closed")

type Store interface {
	// Get decodes the value for key into v. found is false when the key is unset.
	Get(ctx context.Context, key string, v any) (found bool, err error)
	Set(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
	// Keys returns every key in ascending order.
	Keys(ctx context.Context) ([]string, error)
	Wipe(ctx context.Context) error
	Close() error
}

// Open builds the backend selected by cfg. host is only used by the host backend.
func Open(cfg config.StoreConfig, plugin string, host HostAPI, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendHost:
		if host == nil {
			return nil, fmt.Errorf("store: host backend needs a host connection")
		}
		return NewHostStore(host), nil
	case config.BackendEtcd:
		return NewEtcdStore(EtcdConfig{
			Endpoints:   cfg.Endpoints,
			DialTimeout: cfg.DialTimeout.Std(),
			TTL:         cfg.TTL.Std(),
			Plugin:      plugin,
		}, logger)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}

// MemoryStore keeps values in a map. Stored values are JSON-encoded copies, so later
// changes to the caller's value do not leak into the store.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, key string, v any) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, ErrClosed
	}
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (m *MemoryStore) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[key] = raw
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Wipe(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data = make(map[string][]byte)
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
