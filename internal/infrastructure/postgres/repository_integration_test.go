package postgres

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"notification-feed/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("FEED_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("set FEED_TEST_DATABASE_URL to run Postgres integration tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "001_init.sql"))
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return pool
}

// seedNotification inserts a record the way the ingestion pipeline would
func seedNotification(t *testing.T, pool *pgxpool.Pool, id, recipientID string, createdAt time.Time) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO notifications (id, recipient_id, post_reference, author_id, type, payload, created_at)
		VALUES ($1, $2, '0xpost', '42', 'watched_reply', '{"author":{"fid":42}}', $3)
	`, id, recipientID, createdAt)
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestNotificationRepositoryIntegration(t *testing.T) {
	pool := testPool(t)
	repo := NewNotificationRepository(pool)
	ctx := context.Background()
	recipient := "it-" + uuid.New().String()
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM notifications WHERE recipient_id = $1`, recipient)
	})

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		id := uuid.New().String()
		seedNotification(t, pool, id, recipient, base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, id)
	}
	if _, err := pool.Exec(ctx, `INSERT INTO notifications (id, recipient_id, type) VALUES ($1, $2, 'pending')`, uuid.New().String(), recipient); err != nil {
		t.Fatalf("insert pending: %v", err)
	}

	all, err := repo.ListBefore(ctx, recipient, nil, "", 10)
	if err != nil {
		t.Fatalf("ListBefore: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("got %d records, want 5 (row without created_at excluded)", len(all))
	}
	if !all[0].CreatedAt.Equal(base.Add(4 * time.Minute)) {
		t.Fatalf("newest first violated: %v", all[0].CreatedAt)
	}
	if string(all[0].Payload) == "" {
		t.Fatalf("payload not loaded")
	}

	boundary := base.Add(2 * time.Minute)
	older, err := repo.ListBefore(ctx, recipient, &boundary, "", 10)
	if err != nil {
		t.Fatalf("ListBefore boundary: %v", err)
	}
	if len(older) != 2 {
		t.Fatalf("got %d records before boundary, want 2", len(older))
	}

	count, err := repo.CountUnread(ctx, recipient)
	if err != nil || count != 5 {
		t.Fatalf("CountUnread = %d, %v; want 5", count, err)
	}

	marked, err := repo.MarkRead(ctx, recipient, ids[:2])
	if err != nil || len(marked) != 2 {
		t.Fatalf("MarkRead = %v, %v; want 2 ids", marked, err)
	}
	marked, err = repo.MarkRead(ctx, recipient, ids[:3])
	if err != nil || len(marked) != 1 || marked[0] != ids[2] {
		t.Fatalf("second MarkRead = %v, %v; want only %s", marked, err, ids[2])
	}
	marked, err = repo.MarkRead(ctx, "someone-else", ids)
	if err != nil || len(marked) != 0 {
		t.Fatalf("foreign MarkRead = %v, %v; want none", marked, err)
	}

	if count, _ := repo.CountUnread(ctx, recipient); count != 2 {
		t.Fatalf("CountUnread after mark = %d, want 2", count)
	}
}

func TestNotificationRepositoryTiedBoundaryIntegration(t *testing.T) {
	pool := testPool(t)
	repo := NewNotificationRepository(pool)
	ctx := context.Background()
	recipient := "it-" + uuid.New().String()
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM notifications WHERE recipient_id = $1`, recipient)
	})

	tied := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{recipient + "-a", recipient + "-b", recipient + "-c"} {
		seedNotification(t, pool, id, recipient, tied)
	}
	seedNotification(t, pool, recipient+"-old", recipient, tied.Add(-time.Minute))

	rest, err := repo.ListBefore(ctx, recipient, &tied, recipient+"-b", 10)
	if err != nil {
		t.Fatalf("ListBefore: %v", err)
	}
	if len(rest) != 2 || rest[0].ID != recipient+"-a" || rest[1].ID != recipient+"-old" {
		t.Fatalf("records after tied boundary = %v", recordIDs(rest))
	}

	strict, err := repo.ListBefore(ctx, recipient, &tied, "", 10)
	if err != nil {
		t.Fatalf("ListBefore strict: %v", err)
	}
	if len(strict) != 1 || strict[0].ID != recipient+"-old" {
		t.Fatalf("records strictly before boundary = %v", recordIDs(strict))
	}
}

func recordIDs(records []*entity.NotificationRecord) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestEntitlementAndBlocklistRepositoriesIntegration(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	recipient := "it-" + uuid.New().String()
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM recipient_entitlements WHERE recipient_id = $1`, recipient)
		pool.Exec(context.Background(), `DELETE FROM moderation_blocklist WHERE recipient_id = $1`, recipient)
	})

	entitlements := NewEntitlementRepository(pool)
	if ok, err := entitlements.HasFeature(ctx, recipient, "external_notifications"); err != nil || ok {
		t.Fatalf("HasFeature before grant = %v, %v", ok, err)
	}
	if _, err := pool.Exec(ctx, `INSERT INTO recipient_entitlements (recipient_id, feature) VALUES ($1, 'external_notifications')`, recipient); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if ok, err := entitlements.HasFeature(ctx, recipient, "external_notifications"); err != nil || !ok {
		t.Fatalf("HasFeature after grant = %v, %v", ok, err)
	}
	if _, err := pool.Exec(ctx, `UPDATE recipient_entitlements SET expires_at = NOW() - INTERVAL '1 hour' WHERE recipient_id = $1`, recipient); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if ok, _ := entitlements.HasFeature(ctx, recipient, "external_notifications"); ok {
		t.Fatalf("expired grant still honored")
	}

	if _, err := pool.Exec(ctx, `INSERT INTO moderation_blocklist (recipient_id, reason) VALUES ($1, 'spam')`, recipient); err != nil {
		t.Fatalf("block: %v", err)
	}
	blocked, err := NewBlocklistRepository(pool).ListBlocked(ctx)
	if err != nil {
		t.Fatalf("ListBlocked: %v", err)
	}
	found := false
	for _, id := range blocked {
		if id == recipient {
			found = true
		}
	}
	if !found {
		t.Fatalf("blocked recipient missing from %v", blocked)
	}
}
