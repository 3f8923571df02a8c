// Package uploads implements the upload authorization and object-ACL transfer
// workflow: short-lived single-use upload grants, redeemed exactly once to
// attach a permanent ownership/visibility policy to the uploaded object.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PendingUpload is an outstanding, unredeemed upload grant. Rows are created
// at issuance and deleted on redemption or expiry, never mutated in place.
type PendingUpload struct {
	ObjectID  string
	OwnerID   string
	ExpiresAt time.Time
}

// Expired reports whether the grant's deadline has passed at now. The
// timestamp is authoritative; physical presence of the row is not (a sweep
// may simply not have run yet).
func (p *PendingUpload) Expired(now time.Time) bool {
	return p.ExpiresAt.Before(now)
}

// Registry is the reservation table for pending uploads.
type Registry interface {
	// Create inserts a pending upload. At most one live row exists per objectID.
	Create(ctx context.Context, objectID, ownerID string, expiresAt time.Time) error
	// Get returns the pending upload for objectID, or (nil, nil) when absent.
	Get(ctx context.Context, objectID string) (*PendingUpload, error)
	// Delete removes the pending upload for objectID. Deleting an absent row is not an error.
	Delete(ctx context.Context, objectID string) error
	// DeleteExpired removes every row whose deadline precedes now and returns the count.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Repository is the Postgres-backed Registry.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a pending upload row.
func (r *Repository) Create(ctx context.Context, objectID, ownerID string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO pending_uploads (object_id, owner_id, expires_at)
		 VALUES ($1, $2, $3)`,
		objectID, ownerID, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("create pending upload: %w", err)
	}
	return nil
}

// Get fetches the pending upload for objectID, or (nil, nil) when absent.
func (r *Repository) Get(ctx context.Context, objectID string) (*PendingUpload, error) {
	p := &PendingUpload{}
	err := r.db.QueryRow(ctx,
		`SELECT object_id, owner_id, expires_at
		 FROM pending_uploads WHERE object_id = $1`,
		objectID,
	).Scan(&p.ObjectID, &p.OwnerID, &p.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending upload: %w", err)
	}
	return p, nil
}

// Delete removes the pending upload for objectID.
func (r *Repository) Delete(ctx context.Context, objectID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM pending_uploads WHERE object_id = $1`, objectID)
	if err != nil {
		return fmt.Errorf("delete pending upload: %w", err)
	}
	return nil
}

// DeleteExpired removes every pending upload whose deadline precedes now.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM pending_uploads WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired pending uploads: %w", err)
	}
	return tag.RowsAffected(), nil
}
