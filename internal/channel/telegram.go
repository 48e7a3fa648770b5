package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// sendMessageRequest is the JSON body posted to the Bot API sendMessage method.
type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// sendMessageResponse maps the Bot API response envelope.
type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
}

// TelegramSender delivers messages through the Telegram Bot API.
// The base URL is injected from config so tests can point to a local mock.
type TelegramSender struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewTelegramSender(baseURL, token string, timeout time.Duration) *TelegramSender {
	return &TelegramSender{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send posts to <baseURL>/bot<token>/sendMessage and treats any non-OK
// envelope as a failure. Telegram signals rate limiting with error_code 429,
// which surfaces here like any other rejection.
func (s *TelegramSender) Send(ctx context.Context, chatID int64, text, parseMode string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseMode,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var apiResp sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram rejected message (code %d): %s", apiResp.ErrorCode, apiResp.Description)
	}

	return nil
}

// compile-time check that TelegramSender implements Sender
var _ Sender = (*TelegramSender)(nil)
