package domain_test

import (
	"testing"
	"time"

	"github.com/pantrywatch/expiry-notifier/internal/domain"
)

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		days int
		want domain.Priority
	}{
		{-1, domain.PriorityUrgent},
		{0, domain.PriorityUrgent},
		{1, domain.PriorityHigh},
		{2, domain.PriorityHigh},
		{3, domain.PriorityMedium},
		{6, domain.PriorityMedium},
		{7, domain.PriorityLow},
		{100, domain.PriorityLow},
	}

	for _, tc := range tests {
		if got := domain.PriorityFor(tc.days); got != tc.want {
			t.Errorf("PriorityFor(%d) = %s, want %s", tc.days, got, tc.want)
		}
	}
}

func TestPriority_RankOrdering(t *testing.T) {
	order := []domain.Priority{
		domain.PriorityLow, domain.PriorityMedium,
		domain.PriorityHigh, domain.PriorityUrgent,
	}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Fatalf("expected %s to rank above %s", order[i], order[i-1])
		}
	}
}

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from domain.Status
		to   domain.Status
		want bool
	}{
		{"pending to processing", domain.StatusPending, domain.StatusProcessing, true},
		{"processing to sent", domain.StatusProcessing, domain.StatusSent, true},
		{"processing to failed", domain.StatusProcessing, domain.StatusFailed, true},
		{"pending skips processing", domain.StatusPending, domain.StatusSent, false},
		{"sent is terminal", domain.StatusSent, domain.StatusPending, false},
		{"failed is terminal", domain.StatusFailed, domain.StatusPending, false},
		{"processing cannot revert", domain.StatusProcessing, domain.StatusPending, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.CanTransition(tc.to); got != tc.want {
				t.Fatalf("CanTransition(%s → %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range []domain.Status{domain.StatusSent, domain.StatusFailed} {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []domain.Status{domain.StatusPending, domain.StatusProcessing} {
		if s.Terminal() {
			t.Errorf("expected %s not to be terminal", s)
		}
	}
}

func entryWithDays(days int) *domain.QueueEntry {
	return &domain.QueueEntry{
		ItemName:        "Milk",
		Quantity:        1,
		Unit:            "liter",
		Category:        "dairy",
		ExpiryDate:      time.Now().AddDate(0, 0, days),
		DaysUntilExpiry: days,
		Priority:        domain.PriorityFor(days),
	}
}

func TestQueueEntry_Message(t *testing.T) {
	tests := []struct {
		name string
		days int
		want string
	}{
		{
			"expires today",
			0,
			"🚨 ALERT: Your 1 liter of Milk expires TODAY!\n📂 Category: dairy",
		},
		{
			"expires tomorrow",
			1,
			"⚠️ WARNING: Your 1 liter of Milk expires TOMORROW!\n📂 Category: dairy",
		},
		{
			"expires in five days",
			5,
			"📅 REMINDER: Your 1 liter of Milk expires in 5 days.\n📂 Category: dairy",
		},
		{
			"already expired reads as today",
			-1,
			"🚨 ALERT: Your 1 liter of Milk expires TODAY!\n📂 Category: dairy",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := entryWithDays(tc.days).Message(); got != tc.want {
				t.Fatalf("Message() = %q, want %q", got, tc.want)
			}
		})
	}
}

// Fractional quantities render without trailing zeros.
func TestQueueEntry_Message_FractionalQuantity(t *testing.T) {
	e := entryWithDays(1)
	e.Quantity = 0.5
	e.Unit = "kg"
	e.ItemName = "Cheese"

	want := "⚠️ WARNING: Your 0.5 kg of Cheese expires TOMORROW!\n📂 Category: dairy"
	if got := e.Message(); got != want {
		t.Fatalf("Message() = %q, want %q", got, want)
	}
}
