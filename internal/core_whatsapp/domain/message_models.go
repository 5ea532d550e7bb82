package domain

// MessageType classifies an inbound WhatsApp message. The set is closed:
// anything the webhook parser does not recognize maps to MessageTypeUnknown
// and is dropped by the dispatcher without a reply.
type MessageType string

const (
	MessageTypeText        MessageType = "text"
	MessageTypeImage       MessageType = "image"
	MessageTypeDocument    MessageType = "document"
	MessageTypeAudio       MessageType = "audio"
	MessageTypeVideo       MessageType = "video"
	MessageTypeInteractive MessageType = "interactive"
	MessageTypeUnknown     MessageType = "unknown"
)

// InteractiveKind distinguishes the two interactive reply payloads the
// Cloud API delivers.
type InteractiveKind string

const (
	InteractiveButtonReply InteractiveKind = "button_reply"
	InteractiveListReply   InteractiveKind = "list_reply"
)

// InteractivePayload carries the selected button or list row of an
// interactive inbound message.
type InteractivePayload struct {
	Kind  InteractiveKind `json:"kind"`
	ID    string          `json:"id"`
	Title string          `json:"title"`
}

// MediaRef is an opaque reference to provider-hosted media. Only the
// document filename is interpreted by the dispatcher; everything else is
// carried through untouched.
type MediaRef struct {
	ID       string `json:"id,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// InboundMessage is the normalized record of a single message delivered to
// the webhook. It is immutable once parsed and discarded after dispatch;
// no conversation state survives it.
type InboundMessage struct {
	// ID is the provider-assigned message ID, unique per delivery.
	ID   string `json:"id"`
	From string `json:"from"`
	// Timestamp is provider-supplied epoch seconds, not validated for skew.
	Timestamp   int64               `json:"timestamp"`
	Type        MessageType         `json:"type"`
	TextBody    string              `json:"text_body,omitempty"`
	Interactive *InteractivePayload `json:"interactive,omitempty"`
	Media       *MediaRef           `json:"media,omitempty"`
}

// Contact maps a WhatsApp ID to a display name. Contacts arrive alongside a
// message batch and are not persisted across deliveries.
type Contact struct {
	WaID        string `json:"wa_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// StatusUpdate reports a delivery-state change (sent, delivered, read,
// failed) for a previously sent message.
type StatusUpdate struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipient_id,omitempty"`
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp,omitempty"`
}
