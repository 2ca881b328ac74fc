package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"sanctuary-live/internal/domain"
)

// IdentityRepository stores the profile's single identity record
type IdentityRepository struct {
	db *DB
}

// NewIdentityRepository creates a new IdentityRepository
func NewIdentityRepository(db *DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Load retrieves the stored identity. Returns nil with no error when no
// identity has been established yet.
func (r *IdentityRepository) Load(ctx context.Context) (*domain.Identity, error) {
	var identity domain.Identity
	var kind string

	err := r.db.QueryRowContext(ctx, `
		SELECT profile_id, kind, name, email, phone, location, token, created_at
		FROM identity
		LIMIT 1
	`).Scan(
		&identity.ProfileID,
		&kind,
		&identity.Name,
		&identity.Email,
		&identity.Phone,
		&identity.Location,
		&identity.Token,
		&identity.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query identity: %w", err)
	}

	identity.Kind = domain.IdentityKind(kind)
	return &identity, nil
}

// Save stores the identity, replacing any previous record. The table holds
// at most one row; the identity choice is per-profile, not per-session.
func (r *IdentityRepository) Save(ctx context.Context, identity *domain.Identity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM identity"); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear identity: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO identity (profile_id, kind, name, email, phone, location, token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		identity.ProfileID,
		string(identity.Kind),
		identity.Name,
		identity.Email,
		identity.Phone,
		identity.Location,
		identity.Token,
		identity.CreatedAt,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit identity: %w", err)
	}
	return nil
}
