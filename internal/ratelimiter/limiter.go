package ratelimiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// DestinationLimiters holds one token bucket limiter per destination chat.
// Limiters are created lazily on first use; the map lives for the process
// lifetime.
//
// An in-process map does not coordinate across concurrently running
// instances; with a single deployment per bot token that is acceptable.
type DestinationLimiters struct {
	mu        sync.Mutex
	limiters  map[int64]*rate.Limiter
	perMinute int
}

// New creates a DestinationLimiters allowing perMinute sends per rolling
// minute to any single destination.
func New(perMinute int) *DestinationLimiters {
	return &DestinationLimiters{
		limiters:  make(map[int64]*rate.Limiter),
		perMinute: perMinute,
	}
}

func (dl *DestinationLimiters) limiter(chatID int64) *rate.Limiter {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	l, ok := dl.limiters[chatID]
	if !ok {
		// burst == budget: a fresh destination may receive a full
		// minute's quota at once but never exceed it within the window.
		l = rate.NewLimiter(rate.Limit(float64(dl.perMinute)/60.0), dl.perMinute)
		dl.limiters[chatID] = l
	}
	return l
}

// Wait blocks until the destination's limiter grants a token.
// Called immediately before each outbound send.
// Returns a non-nil error only if ctx expires while waiting.
func (dl *DestinationLimiters) Wait(ctx context.Context, chatID int64) error {
	return dl.limiter(chatID).Wait(ctx)
}
