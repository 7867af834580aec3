package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.etcd.io/etcd/api/v3/v3rpc/rpctypes"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// EtcdConfig selects the cluster and the key space of one plugin.
type EtcdConfig struct {
	Endpoints   []string
	DialTimeout time.Duration
	// TTL, when positive, attaches every key to a lease kept alive while the store is
	// open. Keys disappear TTL after the plugin stops.
	TTL    time.Duration
	Plugin string
}

// EtcdStore implements Store on etcd v3.
//
//	Key:   /omegga/{plugin}/{key}
//	Value: JSON document
type EtcdStore struct {
	client *clientv3.Client // thread-safe, shared by every call
	prefix string
	ttl    time.Duration
	logger *zap.Logger

	leaseMu sync.Mutex
	lease   clientv3.LeaseID // 0 until the first Set with a TTL
	cancel  context.CancelFunc
	renewWg sync.WaitGroup // keep-alive drain goroutines
}

func NewEtcdStore(cfg EtcdConfig, logger *zap.Logger) (*EtcdStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Logger:      logger.Named("etcd"),
	})
	if err != nil {
		return nil, fmt.Errorf("store: connect etcd: %w", err)
	}
	return &EtcdStore{
		client: c,
		prefix: "/omegga/" + cfg.Plugin + "/",
		ttl:    cfg.TTL,
		logger: logger,
	}, nil
}

func (s *EtcdStore) key(k string) string { return s.prefix + k }

func (s *EtcdStore) Get(ctx context.Context, key string, v any) (bool, error) {
	resp, err := s.client.Get(ctx, s.key(key))
	if err != nil {
		return false, err
	}
	if len(resp.Kvs) == 0 {
		return false, nil
	}
	return true, json.Unmarshal(resp.Kvs[0].Value, v)
}

func (s *EtcdStore) Set(ctx context.Context, key string, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", key, err)
	}

	if s.ttl <= 0 {
		_, err = s.client.Put(ctx, s.key(key), string(val))
		return err
	}

	lease, err := s.ensureLease(ctx)
	if err != nil {
		return err
	}
	_, err = s.client.Put(ctx, s.key(key), string(val), clientv3.WithLease(lease))
	if !errors.Is(err, rpctypes.ErrLeaseNotFound) {
		return err
	}

	// The lease expired before its keep-alive noticed; grant a new one and retry once.
	s.dropLease(lease)
	if lease, err = s.ensureLease(ctx); err != nil {
		return err
	}
	_, err = s.client.Put(ctx, s.key(key), string(val), clientv3.WithLease(lease))
	return err
}

// ensureLease grants the session lease on first use and starts renewing it.
func (s *EtcdStore) ensureLease(ctx context.Context) (clientv3.LeaseID, error) {
	s.leaseMu.Lock()
	defer s.leaseMu.Unlock()
	if s.lease != 0 {
		return s.lease, nil
	}

	seconds := int64(s.ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	grant, err := s.client.Grant(ctx, seconds)
	if err != nil {
		return 0, fmt.Errorf("store: grant lease: %w", err)
	}

	// The keep-alive outlives the Set call that created it.
	kaCtx, cancel := context.WithCancel(context.Background())
	ch, err := s.client.KeepAlive(kaCtx, grant.ID)
	if err != nil {
		cancel()
		return 0, fmt.Errorf("store: keep lease alive: %w", err)
	}
	// Drain responses so the channel never fills up. The channel closes when the lease
	// expires or is revoked, after which the next Set grants a fresh one.
	s.renewWg.Add(1)
	go func() {
		defer s.renewWg.Done()
		for range ch {
		}
		s.logger.Debug("etcd lease keep-alive stopped", zap.Int64("lease", int64(grant.ID)))
		s.dropLease(grant.ID)
	}()

	s.lease = grant.ID
	s.cancel = cancel
	return s.lease, nil
}

// dropLease forgets id if it is still the cached lease and stops renewing it.
func (s *EtcdStore) dropLease(id clientv3.LeaseID) {
	s.leaseMu.Lock()
	defer s.leaseMu.Unlock()
	if s.lease != id {
		return
	}
	s.cancel()
	s.lease = 0
	s.cancel = nil
}

func (s *EtcdStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.Delete(ctx, s.key(key))
	return err
}

func (s *EtcdStore) Keys(ctx context.Context) ([]string, error) {
	resp, err := s.client.Get(ctx, s.prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		keys = append(keys, strings.TrimPrefix(string(kv.Key), s.prefix))
	}
	return keys, nil
}

func (s *EtcdStore) Wipe(ctx context.Context) error {
	_, err := s.client.Delete(ctx, s.prefix, clientv3.WithPrefix())
	return err
}

// Change is one update seen by Watch. Value is nil for deletions.
type Change struct {
	Key     string
	Value   json.RawMessage
	Deleted bool
}

// Watch streams changes to this plugin's keys, including ones made by other servers.
// The channel closes when ctx is done or the store is closed.
func (s *EtcdStore) Watch(ctx context.Context) <-chan Change {
	ch := make(chan Change, 16)
	go func() {
		defer close(ch)
		for resp := range s.client.Watch(ctx, s.prefix, clientv3.WithPrefix()) {
			if err := resp.Err(); err != nil {
				s.logger.Warn("etcd watch failed", zap.Error(err))
				return
			}
			for _, ev := range resp.Events {
				c := Change{Key: strings.TrimPrefix(string(ev.Kv.Key), s.prefix)}
				if ev.Type == clientv3.EventTypeDelete {
					c.Deleted = true
				} else {
					c.Value = json.RawMessage(ev.Kv.Value)
				}
				select {
				case ch <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}

// Close stops renewing the lease and disconnects. Keys with a TTL expire afterwards.
func (s *EtcdStore) Close() error {
	s.leaseMu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.leaseMu.Unlock()
	s.renewWg.Wait()
	return s.client.Close()
}
