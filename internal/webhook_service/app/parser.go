package app

import (
	"encoding/json"
	"fmt"
	"strconv"

	coredomain "github.com/nexcommerce/whatsapp-gateway/internal/core_whatsapp/domain"
)

// ParseIncoming extracts normalized messages, statuses and contacts from a
// raw webhook envelope. Only changes with field "messages" contribute.
// Absence of any field yields an empty slice, never an error; an error is
// returned only for malformed JSON.
func ParseIncoming(raw []byte) (*coredomain.InboundBatchEvent, error) {
	var envelope coredomain.WebhookEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode webhook envelope: %w", err)
	}

	event := &coredomain.InboundBatchEvent{}
	if envelope.Object != "whatsapp_business_account" {
		return event, nil
	}
	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, msg := range change.Value.Messages {
				event.Messages = append(event.Messages, normalizeMessage(msg))
			}
			for _, st := range change.Value.Statuses {
				event.Statuses = append(event.Statuses, coredomain.StatusUpdate{
					ID:          st.ID,
					RecipientID: st.RecipientID,
					Status:      st.Status,
					Timestamp:   parseEpoch(st.Timestamp),
				})
			}
			for _, c := range change.Value.Contacts {
				contact := coredomain.Contact{WaID: c.WaID}
				if c.Profile != nil {
					contact.DisplayName = c.Profile.Name
				}
				event.Contacts = append(event.Contacts, contact)
			}
		}
	}
	return event, nil
}

func normalizeMessage(msg coredomain.WebhookMessage) coredomain.InboundMessage {
	out := coredomain.InboundMessage{
		ID:        msg.ID,
		From:      msg.From,
		Timestamp: parseEpoch(msg.Timestamp),
	}

	switch msg.Type {
	case "text":
		out.Type = coredomain.MessageTypeText
		if msg.Text != nil {
			out.TextBody = msg.Text.Body
		}
	case "image":
		out.Type = coredomain.MessageTypeImage
		out.Media = mediaRef(msg.Image)
	case "document":
		out.Type = coredomain.MessageTypeDocument
		out.Media = mediaRef(msg.Document)
	case "audio":
		out.Type = coredomain.MessageTypeAudio
		out.Media = mediaRef(msg.Audio)
	case "video":
		out.Type = coredomain.MessageTypeVideo
		out.Media = mediaRef(msg.Video)
	case "interactive":
		out.Type = coredomain.MessageTypeInteractive
		out.Interactive = interactivePayload(msg.Interactive)
	default:
		out.Type = coredomain.MessageTypeUnknown
	}
	return out
}

func mediaRef(m *coredomain.WebhookMedia) *coredomain.MediaRef {
	if m == nil {
		return nil
	}
	return &coredomain.MediaRef{ID: m.ID, MimeType: m.MimeType, Filename: m.Filename}
}

func interactivePayload(i *coredomain.WebhookInteractive) *coredomain.InteractivePayload {
	if i == nil {
		return nil
	}
	switch i.Type {
	case "button_reply":
		if i.ButtonReply == nil {
			return nil
		}
		return &coredomain.InteractivePayload{
			Kind:  coredomain.InteractiveButtonReply,
			ID:    i.ButtonReply.ID,
			Title: i.ButtonReply.Title,
		}
	case "list_reply":
		if i.ListReply == nil {
			return nil
		}
		return &coredomain.InteractivePayload{
			Kind:  coredomain.InteractiveListReply,
			ID:    i.ListReply.ID,
			Title: i.ListReply.Title,
		}
	}
	return nil
}

func parseEpoch(s string) int64 {
	if s == "" {
		return 0
	}
	// Provider timestamps are epoch seconds as strings; skew is not validated.
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
