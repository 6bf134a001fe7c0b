package billing

import (
	"context"

	"github.com/google/uuid"
)

// SnapshotStore persists the billing snapshot embedded in a user record.
//
// Save must replace the whole snapshot atomically. Partial field updates
// would race between a webhook handler and a concurrent user action;
// last-write-wins over the full field group is safe because every write
// is derived from a fresh provider object.
type SnapshotStore interface {
	// Get retrieves the snapshot of a user.
	// Returns ErrSnapshotNotFound when the user has no snapshot yet.
	Get(ctx context.Context, userID uuid.UUID) (Snapshot, error)

	// FindByCustomerID resolves the user linked to a provider customer.
	// Returns ErrSnapshotNotFound when no user is linked; webhook handlers
	// treat that as a silent drop, not an error.
	FindByCustomerID(ctx context.Context, customerID string) (uuid.UUID, Snapshot, error)

	// Save creates or replaces the snapshot of a user.
	Save(ctx context.Context, userID uuid.UUID, snapshot Snapshot) error
}
