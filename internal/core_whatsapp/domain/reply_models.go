package domain

// ReplyKind is the closed set of outbound reply shapes the dispatcher emits.
type ReplyKind string

const (
	ReplyKindText    ReplyKind = "text"
	ReplyKindButtons ReplyKind = "buttons"
	ReplyKindList    ReplyKind = "list"
)

// ListRow is one selectable row inside a list reply section.
type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListSection groups rows under a section title.
type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows"`
}

// OutboundReply is a single reply to be sent once. The dispatcher never
// retries it; a duplicate Send produces a duplicate message on the provider
// side.
type OutboundReply struct {
	Recipient string    `json:"recipient"`
	Kind      ReplyKind `json:"kind"`
	Body      string    `json:"body"`
	// Buttons holds the labels for Kind == ReplyKindButtons.
	Buttons []string `json:"buttons,omitempty"`
	// ListButton is the list-open button label for Kind == ReplyKindList.
	ListButton string        `json:"list_button,omitempty"`
	Sections   []ListSection `json:"sections,omitempty"`
}

// NewTextReply builds a plain text reply.
func NewTextReply(recipient, body string) OutboundReply {
	return OutboundReply{Recipient: recipient, Kind: ReplyKindText, Body: body}
}

// NewButtonsReply builds an interactive reply with up to three quick-reply
// buttons (the Cloud API maximum).
func NewButtonsReply(recipient, body string, buttons []string) OutboundReply {
	return OutboundReply{Recipient: recipient, Kind: ReplyKindButtons, Body: body, Buttons: buttons}
}

// NewListReply builds an interactive list reply.
func NewListReply(recipient, body, listButton string, sections []ListSection) OutboundReply {
	return OutboundReply{
		Recipient:  recipient,
		Kind:       ReplyKindList,
		Body:       body,
		ListButton: listButton,
		Sections:   sections,
	}
}
