package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReplyLog records the dispatch outcome for one inbound message: what
// arrived, which rule fired (if any) and what the provider said about the
// reply. Purely observational; the dispatcher never reads it back.
type ReplyLog struct {
	ID                uuid.UUID `json:"id"`
	ProviderMessageID string    `json:"provider_message_id"` // Inbound message ID from the provider
	From              string    `json:"from"`
	MessageType       string    `json:"message_type"`
	MatchedRule       string    `json:"matched_rule,omitempty"`
	ReplyKind         string    `json:"reply_kind,omitempty"`
	ReplyMessageID    string    `json:"reply_message_id,omitempty"` // Provider ID of the sent reply
	SendError         string    `json:"send_error,omitempty"`
	DispatchedAt      time.Time `json:"dispatched_at"`
}

// NewReplyLog creates a ReplyLog stamped with the current time.
func NewReplyLog(providerMessageID, from, messageType string) *ReplyLog {
	return &ReplyLog{
		ID:                uuid.New(),
		ProviderMessageID: providerMessageID,
		From:              from,
		MessageType:       messageType,
		DispatchedAt:      time.Now().UTC(),
	}
}
