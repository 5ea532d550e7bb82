package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	chi_middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nexcommerce/whatsapp-gateway/internal/platform/messagebroker"
	"github.com/nexcommerce/whatsapp-gateway/internal/webhook_service/app"
)

const MaxWebhookBodySize = 1 << 20 // 1 MB

// SubjectInboundEvents is the NATS subject carrying normalized webhook
// batches to the dispatcher service.
const SubjectInboundEvents = "whatsapp.inbound.events"

// WebhookHandler terminates the provider's webhook callbacks: the GET
// verification handshake and the POST message delivery.
type WebhookHandler struct {
	natsClient    messagebroker.NATSClient
	logger        *slog.Logger
	verifyToken   string
	webhookSecret string
}

func NewWebhookHandler(nc messagebroker.NATSClient, logger *slog.Logger, verifyToken, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		natsClient:    nc,
		logger:        logger.With("handler", "webhook"),
		verifyToken:   verifyToken,
		webhookSecret: webhookSecret,
	}
}

// HandleVerification implements the hub.challenge handshake.
// 200 + challenge on success, 403 on mismatch, 400 when mode/token absent.
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode == "" || token == "" {
		logger.WarnContext(ctx, "Webhook verification request missing mode or token")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	echoed, err := app.VerifyChallenge(mode, token, challenge, h.verifyToken)
	if err != nil {
		logger.WarnContext(ctx, "Webhook verification failed", "mode", mode)
		w.WriteHeader(http.StatusForbidden)
		return
	}

	logger.InfoContext(ctx, "Webhook verified successfully")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(echoed))
}

// HandleDelivery receives message/status callbacks. A well-formed envelope
// always gets a 200, whether or not anything was found in it; only internal
// failures surface as 500.
func (h *WebhookHandler) HandleDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	r.Body = http.MaxBytesReader(w, r.Body, MaxWebhookBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read webhook request body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if !app.VerifySignature(body, r.Header.Get("x-hub-signature-256"), h.webhookSecret) {
		logger.WarnContext(ctx, "Invalid webhook signature", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusForbidden)
		return
	}

	event, err := app.ParseIncoming(body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to parse webhook envelope", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if len(event.Messages) == 0 && len(event.Statuses) == 0 {
		logger.DebugContext(ctx, "Webhook delivery contained no messages or statuses")
		w.WriteHeader(http.StatusOK)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to marshal inbound batch event", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := h.natsClient.Publish(ctx, SubjectInboundEvents, data); err != nil {
		logger.ErrorContext(ctx, "Failed to publish inbound batch event", "error", err, "subject", SubjectInboundEvents)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	logger.InfoContext(ctx, "Webhook delivery queued for dispatch",
		"messages", len(event.Messages), "statuses", len(event.Statuses), "contacts", len(event.Contacts))
	w.WriteHeader(http.StatusOK)
}
