package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Priority orders queue drainage. Urgent is processed first.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank maps a priority to a sortable integer, higher = more urgent.
// The SQL ORDER BY in the repository uses the same numbers; keep them in sync
// with the CASE expression there.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// PriorityFor derives the priority tier from days-until-expiry.
// Both the Populator (staging time) and any ordering logic must go through
// this single function so the two can never drift apart.
func PriorityFor(days int) Priority {
	switch {
	case days <= 0:
		return PriorityUrgent
	case days <= 2:
		return PriorityHigh
	case days <= 6:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Status tracks the delivery lifecycle of a queue entry.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusSent, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave this status.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

// CanTransition enforces the lifecycle pending → processing → sent|failed.
// No transition skips processing and nothing leaves a terminal state.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusSent || to == StatusFailed
	}
	return false
}

// QueueEntry is one staged reminder for one (item, days-until-expiry) pair.
// The item fields are a snapshot taken at staging time: later edits to the
// source item do not change a message that is already queued.
type QueueEntry struct {
	ID     string `json:"id"`
	ItemID string `json:"item_id"`
	UserID int64  `json:"user_id"`
	ChatID int64  `json:"chat_id"`

	ItemName   string    `json:"item_name"`
	Quantity   float64   `json:"quantity"`
	Unit       string    `json:"unit"`
	Category   string    `json:"category"`
	ExpiryDate time.Time `json:"expiry_date"`

	DaysUntilExpiry int      `json:"days_until_expiry"`
	Priority        Priority `json:"priority"`

	Status      Status     `json:"status"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Message renders the outbound reminder text from the entry's snapshot.
// The wording is keyed off days-until-expiry, which is also what the
// priority tier is derived from.
func (e *QueueEntry) Message() string {
	qty := strconv.FormatFloat(e.Quantity, 'f', -1, 64)
	switch {
	case e.DaysUntilExpiry <= 0:
		return fmt.Sprintf("🚨 ALERT: Your %s %s of %s expires TODAY!\n📂 Category: %s",
			qty, e.Unit, e.ItemName, e.Category)
	case e.DaysUntilExpiry == 1:
		return fmt.Sprintf("⚠️ WARNING: Your %s %s of %s expires TOMORROW!\n📂 Category: %s",
			qty, e.Unit, e.ItemName, e.Category)
	default:
		return fmt.Sprintf("📅 REMINDER: Your %s %s of %s expires in %d days.\n📂 Category: %s",
			qty, e.Unit, e.ItemName, e.DaysUntilExpiry, e.Category)
	}
}

// ListFilter holds query parameters for paginated queue listing.
type ListFilter struct {
	Status   *Status
	Priority *Priority
	Page     int
	Limit    int
}

// StatusCounts is the per-status row tally served by the stats endpoint.
type StatusCounts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
}

func (c StatusCounts) Total() int {
	return c.Pending + c.Processing + c.Sent + c.Failed
}
