package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore returns a Store backed by the shared PostgreSQL database.
func NewPgStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) FindByExpiryDate(ctx context.Context, date time.Time) ([]Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT i.id, i.user_id, i.name, i.quantity,
		       COALESCE(u.name, ''), COALESCE(c.name, ''), i.expiry_date
		FROM items i
		LEFT JOIN units u ON u.id = i.unit_id
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE i.expiry_date = $1::date`, date)
	if err != nil {
		return nil, fmt.Errorf("find items by expiry date: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.Name, &it.Quantity,
			&it.Unit, &it.Category, &it.ExpiryDate); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *pgStore) ResolveChatIDs(ctx context.Context, userIDs []int64) (map[int64]int64, error) {
	if len(userIDs) == 0 {
		return map[int64]int64{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, chat_id FROM users
		WHERE id = ANY($1) AND chat_id IS NOT NULL`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve chat ids: %w", err)
	}
	defer rows.Close()

	chatIDs := make(map[int64]int64, len(userIDs))
	for rows.Next() {
		var userID, chatID int64
		if err := rows.Scan(&userID, &chatID); err != nil {
			return nil, err
		}
		chatIDs[userID] = chatID
	}
	return chatIDs, rows.Err()
}
