package channel_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pantrywatch/expiry-notifier/internal/channel"
)

func TestTelegramSender_Send(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	s := channel.NewTelegramSender(srv.URL, "test-token", 5*time.Second)
	err := s.Send(context.Background(), 111, "hello", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/bottest-token/sendMessage" {
		t.Errorf("path = %q, want /bottest-token/sendMessage", gotPath)
	}
	if gotBody["chat_id"] != float64(111) {
		t.Errorf("chat_id = %v, want 111", gotBody["chat_id"])
	}
	if gotBody["text"] != "hello" {
		t.Errorf("text = %v, want hello", gotBody["text"])
	}
	if _, present := gotBody["parse_mode"]; present {
		t.Error("empty parse_mode must be omitted from the request body")
	}
}

func TestTelegramSender_Rejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"error_code":  429,
			"description": "Too Many Requests: retry after 7",
		})
	}))
	defer srv.Close()

	s := channel.NewTelegramSender(srv.URL, "test-token", 5*time.Second)
	err := s.Send(context.Background(), 111, "hello", "")
	if err == nil {
		t.Fatal("expected an error for a rejected message")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error %q should carry the rejection code", err)
	}
}

func TestTelegramSender_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	s := channel.NewTelegramSender(srv.URL, "test-token", time.Second)
	if err := s.Send(context.Background(), 111, "hello", ""); err == nil {
		t.Fatal("expected a transport error")
	}
}
