package inventory

import (
	"context"
	"sync"
	"time"
)

// MockStore is an in-memory Store for unit tests.
type MockStore struct {
	mu    sync.RWMutex
	items []Item
	chats map[int64]int64

	// FindErrFor makes FindByExpiryDate fail for specific dates
	// (keyed by YYYY-MM-DD) to exercise partial-failure paths.
	FindErrFor map[string]error
	ResolveErr error
}

func NewMockStore() *MockStore {
	return &MockStore{chats: make(map[int64]int64)}
}

func (m *MockStore) AddItem(it Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, it)
}

// SetChatID registers a destination for a user.
func (m *MockStore) SetChatID(userID, chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats[userID] = chatID
}

func (m *MockStore) FindByExpiryDate(_ context.Context, date time.Time) ([]Item, error) {
	if err := m.FindErrFor[date.Format("2006-01-02")]; err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []Item
	for _, it := range m.items {
		if sameDate(it.ExpiryDate, date) {
			result = append(result, it)
		}
	}
	return result, nil
}

func (m *MockStore) ResolveChatIDs(_ context.Context, userIDs []int64) (map[int64]int64, error) {
	if m.ResolveErr != nil {
		return nil, m.ResolveErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[int64]int64)
	for _, id := range userIDs {
		if chatID, ok := m.chats[id]; ok {
			result[id] = chatID
		}
	}
	return result, nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
