package postgres

import (
	"context"
	"fmt"

	"notification-feed/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

type entitlementRepository struct {
	db *pgxpool.Pool
}

// NewEntitlementRepository creates a new PostgreSQL entitlement repository
func NewEntitlementRepository(db *pgxpool.Pool) repository.EntitlementRepository {
	return &entitlementRepository{db: db}
}

func (r *entitlementRepository) HasFeature(ctx context.Context, recipientID, feature string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM recipient_entitlements
			WHERE recipient_id = $1
			  AND feature = $2
			  AND (expires_at IS NULL OR expires_at > NOW())
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, recipientID, feature).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check entitlement: %w", err)
	}

	return exists, nil
}
