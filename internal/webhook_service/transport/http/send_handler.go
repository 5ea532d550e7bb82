package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	coredomain "github.com/nexcommerce/whatsapp-gateway/internal/core_whatsapp/domain"
	"github.com/nexcommerce/whatsapp-gateway/internal/dispatcher_service/adapters/waprovider"
)

// SendHandler is the authenticated pass-through send API: it validates the
// request, forwards it to the provider adapter and reshapes the response.
type SendHandler struct {
	sender   waprovider.Sender
	logger   *slog.Logger
	validate *validator.Validate
}

func NewSendHandler(sender waprovider.Sender, logger *slog.Logger, validate *validator.Validate) *SendHandler {
	return &SendHandler{
		sender:   sender,
		logger:   logger.With("handler", "send"),
		validate: validate,
	}
}

// RegisterRoutes mounts the send endpoints on r.
func (h *SendHandler) RegisterRoutes(r chi.Router) {
	r.Post("/send/text", h.HandleSendText)
	r.Post("/send/media", h.HandleSendMedia)
	r.Post("/send/template", h.HandleSendTemplate)
	r.Post("/send/buttons", h.HandleSendButtons)
	r.Post("/send/list", h.HandleSendList)
}

func (h *SendHandler) HandleSendText(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req SendTextRequest
	if !h.decodeAndValidate(w, r, logger, &req) {
		return
	}

	messageID, err := h.sender.Send(ctx, coredomain.NewTextReply(req.To, req.Text))
	h.respondSendResult(w, logger, messageID, err)
}

func (h *SendHandler) HandleSendMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req SendMediaRequest
	if !h.decodeAndValidate(w, r, logger, &req) {
		return
	}

	mediaSender, ok := h.sender.(waprovider.MediaSender)
	if !ok {
		respondError(w, http.StatusBadRequest, "configured provider does not support media messages")
		return
	}

	messageID, err := mediaSender.SendMedia(ctx, req.To, req.MediaType, req.MediaURL, req.Caption, req.Filename)
	h.respondSendResult(w, logger, messageID, err)
}

func (h *SendHandler) HandleSendTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req SendTemplateRequest
	if !h.decodeAndValidate(w, r, logger, &req) {
		return
	}

	templateSender, ok := h.sender.(waprovider.TemplateSender)
	if !ok {
		respondError(w, http.StatusBadRequest, "configured provider does not support template messages")
		return
	}

	language := req.LanguageCode
	if language == "" {
		language = "en"
	}

	messageID, err := templateSender.SendTemplate(ctx, req.To, req.TemplateName, language, req.BodyParams)
	h.respondSendResult(w, logger, messageID, err)
}

func (h *SendHandler) HandleSendButtons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req SendButtonsRequest
	if !h.decodeAndValidate(w, r, logger, &req) {
		return
	}

	messageID, err := h.sender.Send(ctx, coredomain.NewButtonsReply(req.To, req.Body, req.Buttons))
	h.respondSendResult(w, logger, messageID, err)
}

func (h *SendHandler) HandleSendList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req SendListRequest
	if !h.decodeAndValidate(w, r, logger, &req) {
		return
	}

	sections := make([]coredomain.ListSection, 0, len(req.Sections))
	for _, s := range req.Sections {
		rows := make([]coredomain.ListRow, 0, len(s.Rows))
		for _, row := range s.Rows {
			rows = append(rows, coredomain.ListRow{ID: row.ID, Title: row.Title, Description: row.Description})
		}
		sections = append(sections, coredomain.ListSection{Title: s.Title, Rows: rows})
	}

	messageID, err := h.sender.Send(ctx, coredomain.NewListReply(req.To, req.Body, req.ButtonText, sections))
	h.respondSendResult(w, logger, messageID, err)
}

func (h *SendHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		logger.WarnContext(r.Context(), "Failed to decode send request", "error", err)
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := h.validate.StructCtx(r.Context(), req); err != nil {
		logger.WarnContext(r.Context(), "Send request failed validation", "error", err)
		respondError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return false
	}
	return true
}

func (h *SendHandler) respondSendResult(w http.ResponseWriter, logger *slog.Logger, messageID string, err error) {
	if err != nil {
		var provErr *waprovider.ProviderError
		if errors.As(err, &provErr) {
			// Surface the provider's rejection payload verbatim.
			logger.Warn("Provider rejected send", "provider", provErr.Provider, "status_code", provErr.StatusCode)
			respondJSON(w, http.StatusBadRequest, APIResponse{
				Success:       false,
				Error:         provErr.Message,
				ProviderError: provErr.Payload,
			})
			return
		}
		logger.Error("Failed to reach provider", "error", err)
		respondError(w, http.StatusBadGateway, "failed to send message: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, APIResponse{Success: true, MessageID: messageID})
}
