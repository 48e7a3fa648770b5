package ratelimiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/pantrywatch/expiry-notifier/internal/ratelimiter"
)

func TestWait_DestinationsAreIndependent(t *testing.T) {
	// One token per minute: a destination's single burst token is gone
	// after the first send, but other destinations are unaffected.
	dl := ratelimiter.New(1)
	ctx := context.Background()

	for chat := int64(1); chat <= 3; chat++ {
		done := make(chan error, 1)
		go func() { done <- dl.Wait(ctx, chat) }()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("first wait for chat %d: %v", chat, err)
			}
		case <-time.After(time.Second):
			t.Fatalf("first wait for chat %d blocked", chat)
		}
	}
}

func TestWait_ExhaustedBudgetBlocksUntilCancel(t *testing.T) {
	dl := ratelimiter.New(1)
	ctx := context.Background()

	if err := dl.Wait(ctx, 42); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- dl.Wait(cancelCtx, 42) }()

	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error after context cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("wait did not return after cancellation")
	}
}
