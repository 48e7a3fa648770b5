package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pantrywatch/expiry-notifier/internal/domain"
)

// priorityRank must stay in sync with domain.Priority.Rank.
const priorityRank = `CASE priority WHEN 'urgent' THEN 3 WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0 END`

const entryColumns = `id, item_id, user_id, chat_id, item_name, quantity, unit, category,
	       expiry_date, days_until_expiry, priority, status,
	       scheduled_at, processed_at, created_at, updated_at`

type pgQueueRepository struct {
	pool *pgxpool.Pool
}

// NewPgQueueRepository returns a QueueRepository backed by PostgreSQL.
func NewPgQueueRepository(pool *pgxpool.Pool) QueueRepository {
	return &pgQueueRepository{pool: pool}
}

func (r *pgQueueRepository) UpsertBatch(ctx context.Context, entries []*domain.QueueEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	written := 0
	for _, e := range entries {
		ct, err := tx.Exec(ctx, `
			INSERT INTO notification_queue
				(id, item_id, user_id, chat_id, item_name, quantity, unit, category,
				 expiry_date, days_until_expiry, priority, status,
				 scheduled_at, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
			ON CONFLICT (item_id, days_until_expiry) DO NOTHING`,
			e.ID, e.ItemID, e.UserID, e.ChatID, e.ItemName, e.Quantity, e.Unit, e.Category,
			e.ExpiryDate, e.DaysUntilExpiry, e.Priority, e.Status,
			e.ScheduledAt, e.CreatedAt, e.UpdatedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert queue entry: %w", err)
		}
		written += int(ct.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit upsert batch: %w", err)
	}
	return written, nil
}

func (r *pgQueueRepository) FetchPending(ctx context.Context, limit int) ([]*domain.QueueEntry, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM notification_queue
		WHERE status = 'pending'
		ORDER BY %s DESC, scheduled_at ASC
		LIMIT $1`, entryColumns, priorityRank), limit)
	if err != nil {
		return nil, fmt.Errorf("fetch pending entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *pgQueueRepository) ClaimProcessing(ctx context.Context, id string) (bool, error) {
	// Conditional update + affected-row check: an overlapping drain that
	// already claimed this row leaves nothing for us to update.
	ct, err := r.pool.Exec(ctx, `
		UPDATE notification_queue
		SET status = 'processing', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, fmt.Errorf("claim entry: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *pgQueueRepository) MarkSent(ctx context.Context, id string, processedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_queue
		SET status = 'sent', processed_at = $1, updated_at = NOW()
		WHERE id = $2`, processedAt, id)
	return err
}

func (r *pgQueueRepository) MarkFailed(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_queue
		SET status = 'failed', updated_at = NOW()
		WHERE id = $1`, id)
	return err
}

func (r *pgQueueRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM notification_queue WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old entries: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *pgQueueRepository) GetByID(ctx context.Context, id string) (*domain.QueueEntry, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM notification_queue WHERE id = $1`, entryColumns), id)

	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return e, err
}

func (r *pgQueueRepository) List(ctx context.Context, f domain.ListFilter) ([]*domain.QueueEntry, int, error) {
	where, args := buildListWhere(f)
	offset := (f.Page - 1) * f.Limit

	// Count total matching rows for pagination metadata.
	var total int
	countQuery := "SELECT COUNT(*) FROM notification_queue" + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count queue entries: %w", err)
	}

	// Append pagination args after the WHERE args.
	args = append(args, f.Limit, offset)
	limitPlaceholder := fmt.Sprintf("$%d", len(args)-1)
	offsetPlaceholder := fmt.Sprintf("$%d", len(args))

	query := fmt.Sprintf(`
		SELECT %s
		FROM notification_queue%s
		ORDER BY created_at DESC
		LIMIT %s OFFSET %s`, entryColumns, where, limitPlaceholder, offsetPlaceholder)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list queue entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	return entries, total, err
}

func (r *pgQueueRepository) CountByStatus(ctx context.Context) (domain.StatusCounts, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM notification_queue GROUP BY status`)
	if err != nil {
		return domain.StatusCounts{}, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	var counts domain.StatusCounts
	for rows.Next() {
		var status domain.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return domain.StatusCounts{}, err
		}
		switch status {
		case domain.StatusPending:
			counts.Pending = n
		case domain.StatusProcessing:
			counts.Processing = n
		case domain.StatusSent:
			counts.Sent = n
		case domain.StatusFailed:
			counts.Failed = n
		}
	}
	return counts, rows.Err()
}

// ---- helpers ----

// scanEntry reads a single queue entry row from any pgx row type.
func scanEntry(row pgx.Row) (*domain.QueueEntry, error) {
	var e domain.QueueEntry
	err := row.Scan(
		&e.ID, &e.ItemID, &e.UserID, &e.ChatID,
		&e.ItemName, &e.Quantity, &e.Unit, &e.Category,
		&e.ExpiryDate, &e.DaysUntilExpiry, &e.Priority, &e.Status,
		&e.ScheduledAt, &e.ProcessedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEntries(rows pgx.Rows) ([]*domain.QueueEntry, error) {
	var result []*domain.QueueEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// buildListWhere builds a parameterised WHERE clause from a ListFilter.
func buildListWhere(f domain.ListFilter) (string, []any) {
	var conditions []string
	var args []any

	add := func(condition string, val any) {
		args = append(args, val)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.Priority != nil {
		add("priority = $%d", *f.Priority)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
