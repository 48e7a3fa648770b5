package repository

import (
	"context"
	"time"

	"github.com/pantrywatch/expiry-notifier/internal/domain"
)

// QueueRepository defines all persistence operations on the notification queue.
// The pgx implementation is in pg_queue_repo.go.
// Tests use a hand-written mock (mock_queue_repo.go).
type QueueRepository interface {
	// UpsertBatch inserts entries, ignoring any that collide with the
	// (item_id, days_until_expiry) uniqueness key. Returns the number of
	// rows actually written.
	UpsertBatch(ctx context.Context, entries []*domain.QueueEntry) (int, error)

	// FetchPending returns pending entries ordered by priority (urgent
	// first), then scheduled_at (oldest first), capped at limit.
	FetchPending(ctx context.Context, limit int) ([]*domain.QueueEntry, error)

	// ClaimProcessing atomically moves a pending entry to processing.
	// Returns false if the entry was no longer pending (claimed by an
	// overlapping run, or already resolved).
	ClaimProcessing(ctx context.Context, id string) (bool, error)

	MarkSent(ctx context.Context, id string, processedAt time.Time) error
	MarkFailed(ctx context.Context, id string) error

	// DeleteCreatedBefore removes entries staged before cutoff; the
	// retention sweep run ahead of each population pass.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	GetByID(ctx context.Context, id string) (*domain.QueueEntry, error)
	List(ctx context.Context, filter domain.ListFilter) ([]*domain.QueueEntry, int, error)
	CountByStatus(ctx context.Context) (domain.StatusCounts, error)
}
