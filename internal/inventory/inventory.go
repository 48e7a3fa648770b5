package inventory

import (
	"context"
	"time"
)

// Item is the read-only projection of an inventory record needed for
// staging a reminder. The CRUD side of the items table lives elsewhere;
// this package only ever reads.
type Item struct {
	ID         string
	UserID     int64
	Name       string
	Quantity   float64
	Unit       string
	Category   string
	ExpiryDate time.Time
}

// Store exposes the inventory reads the staging job depends on.
type Store interface {
	// FindByExpiryDate returns every item whose expiration date equals
	// exactly the given calendar date (time component ignored).
	FindByExpiryDate(ctx context.Context, date time.Time) ([]Item, error)

	// ResolveChatIDs returns owner id → chat id for the owners that have
	// a destination configured. Owners without one are simply absent
	// from the result; that is not an error.
	ResolveChatIDs(ctx context.Context, userIDs []int64) (map[int64]int64, error)
}
