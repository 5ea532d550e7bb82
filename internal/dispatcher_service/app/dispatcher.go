package app

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coredomain "github.com/nexcommerce/whatsapp-gateway/internal/core_whatsapp/domain"
	"github.com/nexcommerce/whatsapp-gateway/internal/dispatcher_service/adapters/waprovider"
	"github.com/nexcommerce/whatsapp-gateway/internal/dispatcher_service/domain"
)

// Reply content. Every auto-reply is deterministic and stateless: built
// purely from the current message, with no memory of prior turns.
const (
	greetingReplyFmt = "Hello %s! Welcome to our WhatsApp Business. How can I help you today?"
	helpPrompt       = "How can I assist you today?"
	menuPrompt       = "Please choose from our menu:"
	menuButton       = "View Options"
	fallbackReply    = `Thank you for your message! Our team will get back to you soon. Type "help" for quick assistance or "menu" to see our options.`

	imageAck       = "Thank you for sharing the image! Our team will review it and get back to you."
	documentAckFmt = `Thank you for sharing the document "%s". We'll review it and respond accordingly.`
	audioAck       = "Thank you for the voice message! Our team will listen to it and respond soon."
	videoAck       = "Thank you for sharing the video! We'll review it and get back to you."

	productInfoReply  = "Here's information about our products..."
	supportReply      = "Our support team will contact you shortly. You can also call us at +1234567890."
	contactSalesReply = "Our sales team will reach out to you within 24 hours. Thank you for your interest!"
	listSelectionFmt  = `Thank you for selecting "%s". We'll provide more information about this option shortly.`

	// unknownContactName is used when the sender has no contact entry.
	unknownContactName = "Unknown"
)

var helpButtons = []string{"Product Info", "Support", "Contact Sales"}

func menuSections() []coredomain.ListSection {
	return []coredomain.ListSection{
		{
			Title: "Products",
			Rows: []coredomain.ListRow{
				{ID: "product_1", Title: "Product 1", Description: "Description of product 1"},
				{ID: "product_2", Title: "Product 2", Description: "Description of product 2"},
			},
		},
		{
			Title: "Services",
			Rows: []coredomain.ListRow{
				{ID: "service_1", Title: "Service 1", Description: "Description of service 1"},
				{ID: "service_2", Title: "Service 2", Description: "Description of service 2"},
			},
		},
	}
}

// textRule pairs a keyword predicate with a reply builder. Rules are
// evaluated in slice order and only the first match fires.
type textRule struct {
	name  string
	match func(body string) bool
	build func(from, contactName string) coredomain.OutboundReply
}

func defaultTextRules() []textRule {
	contains := func(keywords ...string) func(string) bool {
		return func(body string) bool {
			for _, kw := range keywords {
				if strings.Contains(body, kw) {
					return true
				}
			}
			return false
		}
	}
	return []textRule{
		{
			name:  "greeting",
			match: contains("hello", "hi"),
			build: func(from, contactName string) coredomain.OutboundReply {
				return coredomain.NewTextReply(from, fmt.Sprintf(greetingReplyFmt, contactName))
			},
		},
		{
			name:  "help",
			match: contains("help"),
			build: func(from, _ string) coredomain.OutboundReply {
				return coredomain.NewButtonsReply(from, helpPrompt, helpButtons)
			},
		},
		{
			name:  "menu",
			match: contains("menu"),
			build: func(from, _ string) coredomain.OutboundReply {
				return coredomain.NewListReply(from, menuPrompt, menuButton, menuSections())
			},
		},
		{
			name:  "fallback",
			match: func(string) bool { return true },
			build: func(from, _ string) coredomain.OutboundReply {
				return coredomain.NewTextReply(from, fallbackReply)
			},
		},
	}
}

// StatusFunc handles a delivery status update. The default implementation
// only logs; consumers inject their own to extend status handling without
// modifying the dispatcher.
type StatusFunc func(ctx context.Context, status coredomain.StatusUpdate)

// Dispatcher classifies inbound messages and sends canned or menu-driven
// auto-replies through the configured provider. It is explicitly
// constructed and holds no global state.
type Dispatcher struct {
	sender   waprovider.Sender
	replyLog domain.ReplyLogRepository // optional; nil disables persistence
	statusFn StatusFunc
	rules    []textRule
	logger   *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithReplyLog enables persistence of dispatch outcomes.
func WithReplyLog(repo domain.ReplyLogRepository) Option {
	return func(d *Dispatcher) { d.replyLog = repo }
}

// WithStatusFunc replaces the default log-only status handler.
func WithStatusFunc(fn StatusFunc) Option {
	return func(d *Dispatcher) { d.statusFn = fn }
}

// NewDispatcher creates a Dispatcher sending through the given provider.
func NewDispatcher(sender waprovider.Sender, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		rules:  defaultTextRules(),
		logger: logger.With("component", "dispatcher"),
	}
	d.statusFn = func(ctx context.Context, status coredomain.StatusUpdate) {
		d.logger.InfoContext(ctx, "Message status update", "message_id", status.ID, "status", status.Status)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DispatchMessages processes a webhook batch in order. A failure on one
// message is logged and the remainder of the batch still runs; nothing
// propagates to the caller.
func (d *Dispatcher) DispatchMessages(ctx context.Context, messages []coredomain.InboundMessage, contacts []coredomain.Contact) {
	names := make(map[string]string, len(contacts))
	for _, c := range contacts {
		if c.DisplayName != "" {
			names[c.WaID] = c.DisplayName
		}
	}

	for _, msg := range messages {
		contactName, ok := names[msg.From]
		if !ok {
			contactName = unknownContactName
		}
		d.dispatchOne(ctx, msg, contactName)
	}
}

func (d *Dispatcher) dispatchOne(ctx context.Context, msg coredomain.InboundMessage, contactName string) {
	logger := d.logger.With("message_id", msg.ID, "from", msg.From, "type", msg.Type)
	logger.InfoContext(ctx, "Received message", "contact_name", contactName)

	// A panicking Sender must not take the rest of the batch (or the worker
	// goroutine) down with it.
	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(ctx, "Panic while dispatching message",
				"panic", rec, "stack", string(debug.Stack()))
			messagesDispatchedCounter.WithLabelValues(string(msg.Type), outcomePanicked).Inc()
		}
	}()

	timer := prometheus.NewTimer(dispatchDurationHist.WithLabelValues(string(msg.Type)))
	defer timer.ObserveDuration()

	// Best-effort read receipt; a failure never aborts dispatch.
	if err := d.sender.MarkAsRead(ctx, msg.ID); err != nil {
		logger.WarnContext(ctx, "Failed to mark message as read", "error", err)
	}

	entry := domain.NewReplyLog(msg.ID, msg.From, string(msg.Type))

	reply, matchedRule, ok := d.classify(msg, contactName)
	if !ok {
		// Deliberate silence: unhandled types and unmatched button titles
		// produce no reply and no error.
		logger.InfoContext(ctx, "No reply for message", "rule", matchedRule)
		messagesDispatchedCounter.WithLabelValues(string(msg.Type), outcomeSilent).Inc()
		entry.MatchedRule = matchedRule
		d.persist(ctx, entry)
		return
	}

	entry.MatchedRule = matchedRule
	entry.ReplyKind = string(reply.Kind)

	providerMsgID, err := d.sender.Send(ctx, reply)
	if err != nil {
		// Swallowed: the webhook response is already committed and the batch
		// must continue.
		logger.ErrorContext(ctx, "Failed to send auto-reply", "recipient", reply.Recipient, "error", err)
		repliesSentCounter.WithLabelValues(string(reply.Kind), statusError).Inc()
		messagesDispatchedCounter.WithLabelValues(string(msg.Type), outcomeSendFailed).Inc()
		entry.SendError = err.Error()
		d.persist(ctx, entry)
		return
	}

	logger.InfoContext(ctx, "Auto-reply sent", "rule", matchedRule, "kind", reply.Kind, "provider_message_id", providerMsgID)
	repliesSentCounter.WithLabelValues(string(reply.Kind), statusSuccess).Inc()
	messagesDispatchedCounter.WithLabelValues(string(msg.Type), outcomeReplied).Inc()
	entry.ReplyMessageID = providerMsgID
	d.persist(ctx, entry)
}

// classify maps one message to at most one reply. It is pure: running the
// same message through twice yields the same result.
func (d *Dispatcher) classify(msg coredomain.InboundMessage, contactName string) (coredomain.OutboundReply, string, bool) {
	switch msg.Type {
	case coredomain.MessageTypeText:
		body := strings.ToLower(msg.TextBody)
		for _, rule := range d.rules {
			if rule.match(body) {
				return rule.build(msg.From, contactName), rule.name, true
			}
		}
		// Unreachable with the default rule set; the fallback matches all.
		return coredomain.OutboundReply{}, "none", false

	case coredomain.MessageTypeImage:
		return coredomain.NewTextReply(msg.From, imageAck), "image_ack", true

	case coredomain.MessageTypeDocument:
		filename := ""
		if msg.Media != nil {
			filename = msg.Media.Filename
		}
		return coredomain.NewTextReply(msg.From, fmt.Sprintf(documentAckFmt, filename)), "document_ack", true

	case coredomain.MessageTypeAudio:
		return coredomain.NewTextReply(msg.From, audioAck), "audio_ack", true

	case coredomain.MessageTypeVideo:
		return coredomain.NewTextReply(msg.From, videoAck), "video_ack", true

	case coredomain.MessageTypeInteractive:
		return d.classifyInteractive(msg)

	case coredomain.MessageTypeUnknown:
		return coredomain.OutboundReply{}, "unsupported_type", false
	}
	return coredomain.OutboundReply{}, "unsupported_type", false
}

func (d *Dispatcher) classifyInteractive(msg coredomain.InboundMessage) (coredomain.OutboundReply, string, bool) {
	if msg.Interactive == nil {
		return coredomain.OutboundReply{}, "interactive_empty", false
	}

	switch msg.Interactive.Kind {
	case coredomain.InteractiveButtonReply:
		// Branch on the button title, not its ID. Unknown titles stay silent.
		switch msg.Interactive.Title {
		case "Product Info":
			return coredomain.NewTextReply(msg.From, productInfoReply), "button_product_info", true
		case "Support":
			return coredomain.NewTextReply(msg.From, supportReply), "button_support", true
		case "Contact Sales":
			return coredomain.NewTextReply(msg.From, contactSalesReply), "button_contact_sales", true
		}
		return coredomain.OutboundReply{}, "button_unmatched", false

	case coredomain.InteractiveListReply:
		body := fmt.Sprintf(listSelectionFmt, msg.Interactive.Title)
		return coredomain.NewTextReply(msg.From, body), "list_selection", true
	}
	return coredomain.OutboundReply{}, "interactive_unmatched", false
}

// DispatchStatuses handles delivery status updates. Observability only: no
// reply, no retry, no persistence beyond what statusFn does.
func (d *Dispatcher) DispatchStatuses(ctx context.Context, statuses []coredomain.StatusUpdate) {
	for _, status := range statuses {
		statusUpdatesCounter.WithLabelValues(status.Status).Inc()
		d.statusFn(ctx, status)
	}
}

func (d *Dispatcher) persist(ctx context.Context, entry *domain.ReplyLog) {
	if d.replyLog == nil {
		return
	}
	persistCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := d.replyLog.Create(persistCtx, entry); err != nil {
		d.logger.WarnContext(ctx, "Failed to persist reply log", "message_id", entry.ProviderMessageID, "error", err)
	}
}
