package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore keeps the snapshot as a JSONB column keyed by user ID.
// The upsert replaces the whole document in one statement, so the
// atomic-field-group contract holds here too.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a SnapshotStore over a pgx connection pool.
// The billing_snapshots table is created by the bundled goose migration.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	if pool == nil {
		panic("billing: pgx pool is required")
	}
	return &PgStore{pool: pool}
}

func (s *PgStore) Get(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	var snap Snapshot
	err := s.pool.QueryRow(ctx,
		`SELECT snapshot FROM billing_snapshots WHERE user_id = $1`,
		userID,
	).Scan(&snap)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *PgStore) FindByCustomerID(ctx context.Context, customerID string) (uuid.UUID, Snapshot, error) {
	if customerID == "" {
		return uuid.Nil, Snapshot{}, ErrSnapshotNotFound
	}

	var (
		userID uuid.UUID
		snap   Snapshot
	)
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, snapshot FROM billing_snapshots WHERE snapshot->>'customer_id' = $1`,
		customerID,
	).Scan(&userID, &snap)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return uuid.Nil, Snapshot{}, err
	}
	return userID, snap, nil
}

func (s *PgStore) Save(ctx context.Context, userID uuid.UUID, snapshot Snapshot) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO billing_snapshots (user_id, snapshot, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = now()`,
		userID, snapshot,
	)
	return err
}
