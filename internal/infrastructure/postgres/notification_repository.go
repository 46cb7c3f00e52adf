package postgres

import (
	"context"
	"fmt"
	"time"

	"notification-feed/internal/domain/entity"
	"notification-feed/internal/domain/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type notificationRepository struct {
	db *pgxpool.Pool
}

// NewNotificationRepository creates a new PostgreSQL notification repository
func NewNotificationRepository(db *pgxpool.Pool) repository.NotificationRepository {
	return &notificationRepository{
		db: db,
	}
}

func (r *notificationRepository) ListBefore(ctx context.Context, recipientID string, before *time.Time, beforeID string, limit int) ([]*entity.NotificationRecord, error) {
	query := `
		SELECT id, recipient_id, post_reference, author_id, type, payload, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1
		  AND created_at IS NOT NULL
		  AND ($2::timestamptz IS NULL
		       OR created_at < $2::timestamptz
		       OR (created_at = $2::timestamptz AND id < $3))
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`

	rows, err := r.db.Query(ctx, query, recipientID, before, beforeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipientID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		UPDATE notifications
		SET is_read = TRUE
		WHERE recipient_id = $1 AND id = ANY($2) AND is_read = FALSE
		RETURNING id
	`

	rows, err := r.db.Query(ctx, query, recipientID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	marked, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return marked, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE recipient_id = $1 AND is_read = FALSE AND created_at IS NOT NULL
	`

	var count int
	if err := r.db.QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

func scanRecords(rows pgx.Rows) ([]*entity.NotificationRecord, error) {
	var records []*entity.NotificationRecord
	for rows.Next() {
		var (
			record  entity.NotificationRecord
			payload []byte
		)
		if err := rows.Scan(
			&record.ID,
			&record.RecipientID,
			&record.PostReference,
			&record.AuthorID,
			&record.Type,
			&payload,
			&record.IsRead,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		record.Payload = payload
		if record.CreatedAt != nil {
			utc := record.CreatedAt.UTC()
			record.CreatedAt = &utc
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return records, nil
}
