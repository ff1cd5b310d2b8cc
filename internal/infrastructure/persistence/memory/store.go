// Package memory provides an in-process garment snapshot store.
// Snapshots are kept as encoded JSON so reads behave like every other backend:
// callers always receive fresh copies, and corrupted payloads can be injected in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
)

// Store keeps one encoded snapshot per owner.
type Store struct {
	mu        sync.RWMutex
	snapshots map[garment.OwnerID][]byte
}

// New creates an empty Store.
func New() *Store {
	return &Store{snapshots: make(map[garment.OwnerID][]byte)}
}

// Load implements garment.Store.
func (s *Store) Load(ctx context.Context, owner garment.OwnerID) ([]garment.Garment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, ok := s.snapshots[owner]
	s.mu.RUnlock()

	if !ok {
		return []garment.Garment{}, nil
	}
	return garment.DecodeSnapshot(data)
}

// Save implements garment.Store.
func (s *Store) Save(ctx context.Context, owner garment.OwnerID, garments []garment.Garment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := garment.EncodeSnapshot(garments)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.snapshots[owner] = data
	s.mu.Unlock()
	return nil
}

// Owners implements garment.OwnerLister. Owners are returned sorted.
func (s *Store) Owners(ctx context.Context) ([]garment.OwnerID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	owners := make([]garment.OwnerID, 0, len(s.snapshots))
	for o := range s.snapshots {
		owners = append(owners, o)
	}
	s.mu.RUnlock()

	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	return owners, nil
}

// PutRaw stores a raw payload for owner, bypassing encoding.
func (s *Store) PutRaw(owner garment.OwnerID, payload []byte) {
	s.mu.Lock()
	s.snapshots[owner] = append([]byte(nil), payload...)
	s.mu.Unlock()
}

// Ping reports the store as always available.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
