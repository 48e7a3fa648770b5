package channel

import "context"

// Sender abstracts the outbound chat channel.
// Mocking this interface in tests gives full control over channel behaviour
// without making real HTTP calls.
type Sender interface {
	// Send delivers text to the destination chat. A non-nil error covers
	// transport failures and channel-side rejections alike (including
	// rate-limit rejections); the caller records it per row.
	Send(ctx context.Context, chatID int64, text, parseMode string) error
}
