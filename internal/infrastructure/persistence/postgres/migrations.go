package postgres

// Migrations returns all embedded migrations in version order.
func Migrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_garment_snapshots",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: GARMENT SNAPSHOTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- One row per owner; payload is the whole collection as a JSON array.
CREATE TABLE IF NOT EXISTS garment_snapshots (
    owner_id   TEXT PRIMARY KEY,
    payload    JSONB NOT NULL DEFAULT '[]'::jsonb,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT payload_is_array CHECK (jsonb_typeof(payload) = 'array')
);

CREATE INDEX IF NOT EXISTS idx_garment_snapshots_updated_at ON garment_snapshots(updated_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS garment_snapshots;
`
