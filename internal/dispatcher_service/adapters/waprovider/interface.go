package waprovider

import (
	"context"
	"encoding/json"
	"fmt"

	coredomain "github.com/nexcommerce/whatsapp-gateway/internal/core_whatsapp/domain"
)

// Sender is the outbound boundary every WhatsApp backend adapter implements.
// Send performs one synchronous round trip per call: no batching, no retry,
// no idempotency. A duplicate call produces a duplicate message.
type Sender interface {
	// Send delivers one reply and returns the provider-assigned message ID.
	Send(ctx context.Context, reply coredomain.OutboundReply) (string, error)
	// MarkAsRead flags an inbound message as read. Callers treat failure as
	// best-effort.
	MarkAsRead(ctx context.Context, messageID string) error
	// GetName returns the adapter name (e.g. "cloud", "twilio", "mock").
	GetName() string
}

// MediaSender is implemented by adapters that can deliver hosted media.
type MediaSender interface {
	SendMedia(ctx context.Context, to, mediaType, link, caption, filename string) (string, error)
}

// TemplateSender is implemented by adapters that can deliver pre-approved
// template messages.
type TemplateSender interface {
	SendTemplate(ctx context.Context, to, templateName, languageCode string, bodyParams []string) (string, error)
}

// ProviderError carries a provider rejection so callers can surface the
// provider's payload verbatim.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Payload    json.RawMessage
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}
