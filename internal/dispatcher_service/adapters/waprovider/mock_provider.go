package waprovider

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	coredomain "github.com/nexcommerce/whatsapp-gateway/internal/core_whatsapp/domain"
)

// MockProvider is a test implementation of Sender. It records every call
// and can be told to fail all sends or only sends addressed to specific
// recipients.
type MockProvider struct {
	logger *slog.Logger

	mu sync.Mutex
	// FailSend makes every Send return an error.
	FailSend bool
	// FailRecipients makes Send fail only for these recipients.
	FailRecipients map[string]bool
	// FailMarkAsRead makes MarkAsRead return an error.
	FailMarkAsRead bool

	SentReplies []coredomain.OutboundReply
	ReadIDs     []string
}

func NewMockProvider(logger *slog.Logger) *MockProvider {
	return &MockProvider{
		logger:         logger.With("provider", "mock"),
		FailRecipients: make(map[string]bool),
	}
}

func (p *MockProvider) Send(ctx context.Context, reply coredomain.OutboundReply) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailSend || p.FailRecipients[reply.Recipient] {
		p.logger.WarnContext(ctx, "MockProvider: simulated send failure", "recipient", reply.Recipient)
		return "", errors.New("mock provider simulated send failure")
	}

	p.SentReplies = append(p.SentReplies, reply)
	providerMsgID := "mock-" + uuid.NewString()
	p.logger.InfoContext(ctx, "MockProvider: reply sent (simulated)",
		"recipient", reply.Recipient, "kind", reply.Kind, "provider_message_id", providerMsgID)
	return providerMsgID, nil
}

func (p *MockProvider) SendMedia(ctx context.Context, to, mediaType, link, caption, filename string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailSend || p.FailRecipients[to] {
		return "", errors.New("mock provider simulated send failure")
	}
	return "mock-" + uuid.NewString(), nil
}

func (p *MockProvider) SendTemplate(ctx context.Context, to, templateName, languageCode string, bodyParams []string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailSend || p.FailRecipients[to] {
		return "", errors.New("mock provider simulated send failure")
	}
	return "mock-" + uuid.NewString(), nil
}

func (p *MockProvider) MarkAsRead(ctx context.Context, messageID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailMarkAsRead {
		return errors.New("mock provider simulated mark-as-read failure")
	}
	p.ReadIDs = append(p.ReadIDs, messageID)
	return nil
}

func (p *MockProvider) GetName() string {
	return "mock"
}
