package store

import (
	"context"
	"sort"
)

// HostAPI is the host's store.* surface. *client.Client implements it.
type HostAPI interface {
	StoreGet(ctx context.Context, key string, v any) (bool, error)
	StoreSet(ctx context.Context, key string, v any) error
	StoreDelete(ctx context.Context, key string) error
	StoreKeys(ctx context.Context) ([]string, error)
	StoreWipe(ctx context.Context) error
}

// HostStore keeps data in the host's per-plugin store, which survives plugin restarts.
type HostStore struct {
	host HostAPI
}

func NewHostStore(host HostAPI) *HostStore {
	return &HostStore{host: host}
}

func (s *HostStore) Get(ctx context.Context, key string, v any) (bool, error) {
	return s.host.StoreGet(ctx, key, v)
}

func (s *HostStore) Set(ctx context.Context, key string, v any) error {
	return s.host.StoreSet(ctx, key, v)
}

func (s *HostStore) Delete(ctx context.Context, key string) error {
	return s.host.StoreDelete(ctx, key)
}

func (s *HostStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.host.StoreKeys(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *HostStore) Wipe(ctx context.Context) error {
	return s.host.StoreWipe(ctx)
}

// Close does nothing; the connection belongs to the plugin.
func (s *HostStore) Close() error { return nil }
