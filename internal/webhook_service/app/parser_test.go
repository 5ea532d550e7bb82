package app

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coredomain "github.com/nexcommerce/whatsapp-gateway/internal/core_whatsapp/domain"
)

func envelopeWithMessage(messageJSON string) []byte {
	return []byte(fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "entry-1",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"contacts": [{"wa_id": "15551234567", "profile": {"name": "Alice"}}],
					"messages": [%s]
				}
			}]
		}]
	}`, messageJSON))
}

func TestParseIncoming_TextMessage(t *testing.T) {
	raw := envelopeWithMessage(`{
		"id": "wamid.abc123",
		"from": "15551234567",
		"timestamp": "1717171717",
		"type": "text",
		"text": {"body": "hello"}
	}`)

	event, err := ParseIncoming(raw)
	require.NoError(t, err)
	require.Len(t, event.Messages, 1)

	msg := event.Messages[0]
	assert.Equal(t, "wamid.abc123", msg.ID)
	assert.Equal(t, "15551234567", msg.From)
	assert.Equal(t, int64(1717171717), msg.Timestamp)
	assert.Equal(t, coredomain.MessageTypeText, msg.Type)
	assert.Equal(t, "hello", msg.TextBody)

	require.Len(t, event.Contacts, 1)
	assert.Equal(t, "15551234567", event.Contacts[0].WaID)
	assert.Equal(t, "Alice", event.Contacts[0].DisplayName)
}

func TestParseIncoming_DocumentMessage(t *testing.T) {
	raw := envelopeWithMessage(`{
		"id": "wamid.doc1",
		"from": "15551234567",
		"timestamp": "1717171717",
		"type": "document",
		"document": {"id": "media-9", "mime_type": "application/pdf", "filename": "invoice.pdf"}
	}`)

	event, err := ParseIncoming(raw)
	require.NoError(t, err)
	require.Len(t, event.Messages, 1)

	msg := event.Messages[0]
	assert.Equal(t, coredomain.MessageTypeDocument, msg.Type)
	require.NotNil(t, msg.Media)
	assert.Equal(t, "media-9", msg.Media.ID)
	assert.Equal(t, "application/pdf", msg.Media.MimeType)
	assert.Equal(t, "invoice.pdf", msg.Media.Filename)
}

func TestParseIncoming_InteractiveButtonReply(t *testing.T) {
	raw := envelopeWithMessage(`{
		"id": "wamid.btn1",
		"from": "15551234567",
		"timestamp": "1717171717",
		"type": "interactive",
		"interactive": {
			"type": "button_reply",
			"button_reply": {"id": "button_1", "title": "Support"}
		}
	}`)

	event, err := ParseIncoming(raw)
	require.NoError(t, err)
	require.Len(t, event.Messages, 1)

	msg := event.Messages[0]
	assert.Equal(t, coredomain.MessageTypeInteractive, msg.Type)
	require.NotNil(t, msg.Interactive)
	assert.Equal(t, coredomain.InteractiveButtonReply, msg.Interactive.Kind)
	assert.Equal(t, "button_1", msg.Interactive.ID)
	assert.Equal(t, "Support", msg.Interactive.Title)
}

func TestParseIncoming_InteractiveListReply(t *testing.T) {
	raw := envelopeWithMessage(`{
		"id": "wamid.list1",
		"from": "15551234567",
		"timestamp": "1717171717",
		"type": "interactive",
		"interactive": {
			"type": "list_reply",
			"list_reply": {"id": "product_1", "title": "Product 1", "description": "Description of product 1"}
		}
	}`)

	event, err := ParseIncoming(raw)
	require.NoError(t, err)
	require.Len(t, event.Messages, 1)

	msg := event.Messages[0]
	require.NotNil(t, msg.Interactive)
	assert.Equal(t, coredomain.InteractiveListReply, msg.Interactive.Kind)
	assert.Equal(t, "Product 1", msg.Interactive.Title)
}

func TestParseIncoming_UnknownTypePreserved(t *testing.T) {
	raw := envelopeWithMessage(`{
		"id": "wamid.sticker1",
		"from": "15551234567",
		"timestamp": "1717171717",
		"type": "sticker"
	}`)

	event, err := ParseIncoming(raw)
	require.NoError(t, err)
	require.Len(t, event.Messages, 1)
	assert.Equal(t, coredomain.MessageTypeUnknown, event.Messages[0].Type)
}

func TestParseIncoming_Statuses(t *testing.T) {
	raw := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"changes": [{
				"field": "messages",
				"value": {
					"statuses": [
						{"id": "wamid.s1", "recipient_id": "15551234567", "status": "delivered", "timestamp": "1717171800"},
						{"id": "wamid.s2", "recipient_id": "15551234567", "status": "read", "timestamp": "1717171900"}
					]
				}
			}]
		}]
	}`)

	event, err := ParseIncoming(raw)
	require.NoError(t, err)
	assert.Empty(t, event.Messages)
	require.Len(t, event.Statuses, 2)
	assert.Equal(t, "delivered", event.Statuses[0].Status)
	assert.Equal(t, int64(1717171900), event.Statuses[1].Timestamp)
}

func TestParseIncoming_IgnoresForeignObject(t *testing.T) {
	raw := []byte(`{"object": "page", "entry": [{"changes": [{"field": "messages", "value": {"messages": [{"id": "x", "type": "text"}]}}]}]}`)

	event, err := ParseIncoming(raw)
	require.NoError(t, err)
	assert.Empty(t, event.Messages)
	assert.Empty(t, event.Statuses)
}

func TestParseIncoming_IgnoresNonMessageChanges(t *testing.T) {
	raw := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"changes": [{
				"field": "account_update",
				"value": {"messages": [{"id": "x", "type": "text", "text": {"body": "hi"}}]}
			}]
		}]
	}`)

	event, err := ParseIncoming(raw)
	require.NoError(t, err)
	assert.Empty(t, event.Messages)
}

func TestParseIncoming_EmptyEnvelope(t *testing.T) {
	event, err := ParseIncoming([]byte(`{"object": "whatsapp_business_account", "entry": []}`))
	require.NoError(t, err)
	assert.Empty(t, event.Messages)
	assert.Empty(t, event.Statuses)
	assert.Empty(t, event.Contacts)
}

func TestParseIncoming_MalformedJSON(t *testing.T) {
	event, err := ParseIncoming([]byte(`{"object":`))
	require.Error(t, err)
	assert.Nil(t, event)
}

func TestParseIncoming_BadTimestampDefaultsToZero(t *testing.T) {
	raw := envelopeWithMessage(`{
		"id": "wamid.t1",
		"from": "15551234567",
		"timestamp": "not-a-number",
		"type": "text",
		"text": {"body": "hello"}
	}`)

	event, err := ParseIncoming(raw)
	require.NoError(t, err)
	require.Len(t, event.Messages, 1)
	assert.Equal(t, int64(0), event.Messages[0].Timestamp)
}
