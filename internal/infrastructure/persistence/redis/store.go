// Package redis implements the Redis garment snapshot store.
//
// Layout:
//   - garments:{owner} - string holding the owner's collection as a JSON array
//   - garments:owners  - set of owners that have a snapshot
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	Host     string
	Port     int
	Password string

	// DB is the Redis database number (0-15).
	DB int

	PoolSize     int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// KeyPrefix namespaces every key, e.g. "underliv:". Empty means no prefix.
	KeyPrefix string
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// KEYS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// PrefixGarments is the prefix of per-owner snapshot keys.
	PrefixGarments = "garments:"

	// KeyOwners is the set of owners with a snapshot.
	KeyOwners = "garments:owners"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Compile-time check that Store implements garment.SnapshotStore.
var _ garment.SnapshotStore = (*Store)(nil)

// Store implements garment.SnapshotStore on Redis.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, shared.WrapError("store", "Connect", shared.ErrStoreUnavailable, "redis unavailable", err)
	}

	return NewStoreFromClient(client, cfg.KeyPrefix), nil
}

// NewStoreFromClient wraps an existing client.
func NewStoreFromClient(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// SnapshotKey returns the key that holds owner's collection.
func (s *Store) SnapshotKey(owner garment.OwnerID) string {
	return s.prefix + PrefixGarments + string(owner)
}

// OwnersKey returns the key of the owner set.
func (s *Store) OwnersKey() string {
	return s.prefix + KeyOwners
}

// Load implements garment.Store.
func (s *Store) Load(ctx context.Context, owner garment.OwnerID) ([]garment.Garment, error) {
	data, err := s.client.Get(ctx, s.SnapshotKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []garment.Garment{}, nil
		}
		return nil, s.wrap("Load", err)
	}
	return garment.DecodeSnapshot(data)
}

// Save implements garment.Store. Snapshot and owner set are written in one MULTI.
func (s *Store) Save(ctx context.Context, owner garment.OwnerID, garments []garment.Garment) error {
	data, err := garment.EncodeSnapshot(garments)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.SnapshotKey(owner), data, 0)
		pipe.SAdd(ctx, s.OwnersKey(), string(owner))
		return nil
	})
	if err != nil {
		return s.wrap("Save", err)
	}
	return nil
}

// Owners implements garment.OwnerLister. Owners are returned sorted.
func (s *Store) Owners(ctx context.Context) ([]garment.OwnerID, error) {
	members, err := s.client.SMembers(ctx, s.OwnersKey()).Result()
	if err != nil {
		return nil, s.wrap("Owners", err)
	}
	sort.Strings(members)

	owners := make([]garment.OwnerID, len(members))
	for i, m := range members {
		owners[i] = garment.OwnerID(m)
	}
	return owners, nil
}

// Ping checks if Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) wrap(op string, err error) error {
	return shared.WrapError("store", op, shared.ErrStoreUnavailable, "redis request failed", err)
}
