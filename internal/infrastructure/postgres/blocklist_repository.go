package postgres

import (
	"context"
	"fmt"

	"notification-feed/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

type blocklistRepository struct {
	db *pgxpool.Pool
}

// NewBlocklistRepository creates a new PostgreSQL moderation block-list repository
func NewBlocklistRepository(db *pgxpool.Pool) repository.BlocklistRepository {
	return &blocklistRepository{db: db}
}

func (r *blocklistRepository) ListBlocked(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT recipient_id FROM moderation_blocklist`)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked recipients: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan blocked recipient: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blocked recipients: %w", err)
	}

	return ids, nil
}
