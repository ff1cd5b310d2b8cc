package postgres

import (
	"context"
	"fmt"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/internal/domain/shared"
)

// Compile-time check that GarmentStore implements garment.SnapshotStore.
var _ garment.SnapshotStore = (*GarmentStore)(nil)

// GarmentStore implements garment.SnapshotStore on garment_snapshots.
type GarmentStore struct {
	conn *Connection
}

// NewGarmentStore creates a new PostgreSQL garment store.
func NewGarmentStore(conn *Connection) *GarmentStore {
	return &GarmentStore{conn: conn}
}

// Load implements garment.Store.
func (s *GarmentStore) Load(ctx context.Context, owner garment.OwnerID) ([]garment.Garment, error) {
	var payload []byte
	err := s.conn.QueryRow(ctx,
		`SELECT payload FROM garment_snapshots WHERE owner_id = $1`,
		string(owner),
	).Scan(&payload)
	if err != nil {
		if IsNoRows(err) {
			return []garment.Garment{}, nil
		}
		return nil, s.wrap("Load", err)
	}
	return garment.DecodeSnapshot(payload)
}

// Save implements garment.Store.
func (s *GarmentStore) Save(ctx context.Context, owner garment.OwnerID, garments []garment.Garment) error {
	payload, err := garment.EncodeSnapshot(garments)
	if err != nil {
		return err
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO garment_snapshots (owner_id, payload, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (owner_id) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`, string(owner), string(payload))
	if err != nil {
		return s.wrap("Save", err)
	}
	return nil
}

// Owners implements garment.OwnerLister.
func (s *GarmentStore) Owners(ctx context.Context) ([]garment.OwnerID, error) {
	rows, err := s.conn.Query(ctx, `SELECT owner_id FROM garment_snapshots ORDER BY owner_id`)
	if err != nil {
		return nil, s.wrap("Owners", err)
	}
	defer rows.Close()

	var owners []garment.OwnerID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan owner: %w", err)
		}
		owners = append(owners, garment.OwnerID(id))
	}
	return owners, rows.Err()
}

// Ping implements a readiness probe.
func (s *GarmentStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close releases the pool.
func (s *GarmentStore) Close() error {
	s.conn.Close()
	return nil
}

func (s *GarmentStore) wrap(op string, err error) error {
	if IsConnectionError(err) {
		return shared.WrapError("store", op, shared.ErrStoreUnavailable, "postgres unavailable", err)
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}
