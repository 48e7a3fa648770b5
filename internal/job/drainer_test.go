package job_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pantrywatch/expiry-notifier/internal/domain"
	"github.com/pantrywatch/expiry-notifier/internal/job"
	"github.com/pantrywatch/expiry-notifier/internal/ratelimiter"
	"github.com/pantrywatch/expiry-notifier/internal/repository"
)

// fakeSender records outbound messages and can be told to reject
// specific destinations.
type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]error
}

type sentMessage struct {
	chatID int64
	text   string
}

func (f *fakeSender) Send(_ context.Context, chatID int64, text, _ string) error {
	if err := f.failFor[chatID]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func newDrainer(repo repository.QueueRepository, sender *fakeSender) *job.Drainer {
	return job.NewDrainer(
		repo, sender, ratelimiter.New(6000),
		testConfig(), zap.NewNop(), job.DrainerHooks{},
	)
}

func pendingEntry(name string, days int, chatID int64, scheduledAt time.Time) *domain.QueueEntry {
	return &domain.QueueEntry{
		ID:              uuid.New().String(),
		ItemID:          uuid.New().String(),
		UserID:          42,
		ChatID:          chatID,
		ItemName:        name,
		Quantity:        1,
		Unit:            "liter",
		Category:        "dairy",
		ExpiryDate:      time.Now().UTC().AddDate(0, 0, days),
		DaysUntilExpiry: days,
		Priority:        domain.PriorityFor(days),
		Status:          domain.StatusPending,
		ScheduledAt:     scheduledAt,
		CreatedAt:       scheduledAt,
		UpdatedAt:       scheduledAt,
	}
}

func stage(t *testing.T, repo *repository.MockQueueRepository, entries ...*domain.QueueEntry) {
	t.Helper()
	if _, err := repo.UpsertBatch(context.Background(), entries); err != nil {
		t.Fatal(err)
	}
}

func TestDrainer_DeliversPendingEntry(t *testing.T) {
	repo := repository.NewMockQueueRepository()
	sender := &fakeSender{}
	e := pendingEntry("Milk", 1, 111, time.Now().UTC())
	stage(t, repo, e)

	result := newDrainer(repo, sender).Run(context.Background())

	if !result.Success {
		t.Fatal("expected success=true")
	}
	if result.Processed != 1 || result.Sent != 1 || result.Failed != 0 {
		t.Fatalf("unexpected counts: processed=%d sent=%d failed=%d",
			result.Processed, result.Sent, result.Failed)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 outbound message, got %d", len(sender.sent))
	}
	want := "⚠️ WARNING: Your 1 liter of Milk expires TOMORROW!\n📂 Category: dairy"
	if sender.sent[0].text != want {
		t.Errorf("message = %q, want %q", sender.sent[0].text, want)
	}
	if sender.sent[0].chatID != 111 {
		t.Errorf("chat_id = %d, want 111", sender.sent[0].chatID)
	}

	got, err := repo.GetByID(context.Background(), e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusSent {
		t.Errorf("expected status=sent, got %s", got.Status)
	}
	if got.ProcessedAt == nil {
		t.Error("expected processed_at to be set after delivery")
	}
}

func TestDrainer_RecordsFailureOnRow(t *testing.T) {
	repo := repository.NewMockQueueRepository()
	sender := &fakeSender{failFor: map[int64]error{111: errors.New("chat not found")}}
	e := pendingEntry("Milk", 1, 111, time.Now().UTC())
	stage(t, repo, e)

	result := newDrainer(repo, sender).Run(context.Background())

	if !result.Success {
		t.Fatal("per-row failure must not fail the run")
	}
	if result.Processed != 1 || result.Sent != 0 || result.Failed != 1 {
		t.Fatalf("unexpected counts: processed=%d sent=%d failed=%d",
			result.Processed, result.Sent, result.Failed)
	}

	got, _ := repo.GetByID(context.Background(), e.ID)
	if got.Status != domain.StatusFailed {
		t.Errorf("expected status=failed, got %s", got.Status)
	}
	if got.ProcessedAt != nil {
		t.Error("expected processed_at to stay null on failure")
	}
}

func TestDrainer_ContinuesAfterRowFailure(t *testing.T) {
	repo := repository.NewMockQueueRepository()
	sender := &fakeSender{failFor: map[int64]error{111: errors.New("blocked by user")}}
	now := time.Now().UTC()
	stage(t, repo,
		pendingEntry("Milk", 0, 111, now),
		pendingEntry("Eggs", 1, 222, now),
	)

	result := newDrainer(repo, sender).Run(context.Background())

	if result.Sent != 1 || result.Failed != 1 {
		t.Fatalf("unexpected counts: sent=%d failed=%d", result.Sent, result.Failed)
	}
	if len(sender.sent) != 1 || sender.sent[0].chatID != 222 {
		t.Fatal("expected the second entry to still be delivered")
	}
}

// Urgent drains before medium before low regardless of staging order.
func TestDrainer_PriorityOrdering(t *testing.T) {
	repo := repository.NewMockQueueRepository()
	sender := &fakeSender{}
	now := time.Now().UTC()
	stage(t, repo,
		pendingEntry("Flour", 10, 301, now), // low
		pendingEntry("Milk", 0, 302, now),   // urgent
		pendingEntry("Yogurt", 4, 303, now), // medium
	)

	newDrainer(repo, sender).Run(context.Background())

	if len(sender.sent) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(sender.sent))
	}
	wantOrder := []int64{302, 303, 301}
	for i, want := range wantOrder {
		if sender.sent[i].chatID != want {
			t.Fatalf("send %d went to %d, want %d", i, sender.sent[i].chatID, want)
		}
	}
}

// Within one priority band, older scheduled_at drains first.
func TestDrainer_OldestFirstWithinBand(t *testing.T) {
	repo := repository.NewMockQueueRepository()
	sender := &fakeSender{}
	now := time.Now().UTC()
	stage(t, repo,
		pendingEntry("Milk", 1, 401, now),
		pendingEntry("Cream", 1, 402, now.Add(-time.Hour)),
	)

	newDrainer(repo, sender).Run(context.Background())

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sender.sent))
	}
	if sender.sent[0].chatID != 402 {
		t.Fatalf("expected older entry first, got chat %d", sender.sent[0].chatID)
	}
}

func TestDrainer_FetchFailureAbortsRun(t *testing.T) {
	repo := repository.NewMockQueueRepository()
	repo.FetchPendingErr = errors.New("connection refused")
	sender := &fakeSender{}

	result := newDrainer(repo, sender).Run(context.Background())

	if result.Success {
		t.Fatal("expected success=false when the fetch fails")
	}
	if result.Error == "" {
		t.Fatal("expected the fetch error in the result")
	}
	if len(sender.sent) != 0 {
		t.Fatal("nothing should be sent after a failed fetch")
	}
}

// staleFetchRepo returns entries another run already claimed, simulating
// overlapping drain invocations.
type staleFetchRepo struct {
	*repository.MockQueueRepository
	stale []*domain.QueueEntry
}

func (r *staleFetchRepo) FetchPending(context.Context, int) ([]*domain.QueueEntry, error) {
	return r.stale, nil
}

func TestDrainer_SkipsEntriesClaimedElsewhere(t *testing.T) {
	inner := repository.NewMockQueueRepository()
	e := pendingEntry("Milk", 1, 111, time.Now().UTC())
	stage(t, inner, e)

	// Flip the stored row to processing, as an overlapping run would.
	if claimed, err := inner.ClaimProcessing(context.Background(), e.ID); err != nil || !claimed {
		t.Fatalf("setup claim failed: claimed=%v err=%v", claimed, err)
	}

	repo := &staleFetchRepo{MockQueueRepository: inner, stale: []*domain.QueueEntry{e}}
	sender := &fakeSender{}

	result := newDrainer(repo, sender).Run(context.Background())

	if result.Processed != 0 || result.Sent != 0 || result.Failed != 0 {
		t.Fatalf("a lost claim race must touch no counter: %+v", result)
	}
	if len(sender.sent) != 0 {
		t.Fatal("a claimed entry must not be sent again")
	}
}

func TestDrainer_EmptyQueue(t *testing.T) {
	repo := repository.NewMockQueueRepository()
	sender := &fakeSender{}

	result := newDrainer(repo, sender).Run(context.Background())

	if !result.Success || result.Processed != 0 {
		t.Fatalf("unexpected result on empty queue: %+v", result)
	}
}
