package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pantrywatch/expiry-notifier/internal/domain"
)

// MockQueueRepository is a hand-written, in-memory implementation of
// QueueRepository used in unit tests. No mock-generation library needed.
type MockQueueRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.QueueEntry

	// Optional error overrides — set in tests to simulate failure paths.
	UpsertErr       error
	FetchPendingErr error
	ClaimErr        error
	DeleteErr       error
}

func NewMockQueueRepository() *MockQueueRepository {
	return &MockQueueRepository{entries: make(map[string]*domain.QueueEntry)}
}

func (m *MockQueueRepository) UpsertBatch(_ context.Context, entries []*domain.QueueEntry) (int, error) {
	if m.UpsertErr != nil {
		return 0, m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	written := 0
	for _, e := range entries {
		if m.hasConflict(e.ItemID, e.DaysUntilExpiry) {
			continue
		}
		clone := *e
		m.entries[e.ID] = &clone
		written++
	}
	return written, nil
}

func (m *MockQueueRepository) hasConflict(itemID string, days int) bool {
	for _, existing := range m.entries {
		if existing.ItemID == itemID && existing.DaysUntilExpiry == days {
			return true
		}
	}
	return false
}

func (m *MockQueueRepository) FetchPending(_ context.Context, limit int) ([]*domain.QueueEntry, error) {
	if m.FetchPendingErr != nil {
		return nil, m.FetchPendingErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.QueueEntry
	for _, e := range m.entries {
		if e.Status == domain.StatusPending {
			clone := *e
			result = append(result, &clone)
		}
	}
	// Same ordering as the SQL implementation: priority rank descending,
	// then scheduled_at ascending.
	sort.SliceStable(result, func(i, j int) bool {
		ri, rj := result[i].Priority.Rank(), result[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return result[i].ScheduledAt.Before(result[j].ScheduledAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockQueueRepository) ClaimProcessing(_ context.Context, id string) (bool, error) {
	if m.ClaimErr != nil {
		return false, m.ClaimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.Status != domain.StatusPending {
		return false, nil
	}
	e.Status = domain.StatusProcessing
	e.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MockQueueRepository) MarkSent(_ context.Context, id string, processedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.Status = domain.StatusSent
		e.ProcessedAt = &processedAt
		e.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *MockQueueRepository) MarkFailed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.Status = domain.StatusFailed
		e.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *MockQueueRepository) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteErr != nil {
		return 0, m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, e := range m.entries {
		if e.CreatedAt.Before(cutoff) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MockQueueRepository) GetByID(_ context.Context, id string) (*domain.QueueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *e
	return &clone, nil
}

func (m *MockQueueRepository) List(_ context.Context, f domain.ListFilter) ([]*domain.QueueEntry, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.QueueEntry
	for _, e := range m.entries {
		if f.Status != nil && e.Status != *f.Status {
			continue
		}
		if f.Priority != nil && e.Priority != *f.Priority {
			continue
		}
		clone := *e
		result = append(result, &clone)
	}
	return result, len(result), nil
}

func (m *MockQueueRepository) CountByStatus(_ context.Context) (domain.StatusCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var counts domain.StatusCounts
	for _, e := range m.entries {
		switch e.Status {
		case domain.StatusPending:
			counts.Pending++
		case domain.StatusProcessing:
			counts.Processing++
		case domain.StatusSent:
			counts.Sent++
		case domain.StatusFailed:
			counts.Failed++
		}
	}
	return counts, nil
}

// Count returns the total number of stored entries regardless of status.
func (m *MockQueueRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
