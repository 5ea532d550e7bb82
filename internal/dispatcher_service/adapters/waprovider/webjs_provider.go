package waprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	coredomain "github.com/nexcommerce/whatsapp-gateway/internal/core_whatsapp/domain"
)

// WebJSProvider sends messages through a local whatsapp-web.js bridge: an
// unofficial browser-automation client exposing POST {baseURL}/api/send-message
// with a JSON body of {number, message}. The bridge itself normalizes numbers
// to chat IDs. It only speaks plain text, so buttons and lists degrade to text
// with the options rendered into the body, and read receipts are not exposed;
// MarkAsRead is a no-op.
type WebJSProvider struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
}

func NewWebJSProvider(logger *slog.Logger, baseURL string, httpClient *http.Client) *WebJSProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebJSProvider{
		logger:     logger.With("provider", "webjs"),
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

type webjsSendRequest struct {
	Number  string `json:"number"`
	Message string `json:"message"`
}

type webjsSendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// MessageID is a bare string or the client's serialized ID object,
	// depending on the bridge version.
	MessageID json.RawMessage `json:"messageId"`
}

type webjsErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (p *WebJSProvider) Send(ctx context.Context, reply coredomain.OutboundReply) (string, error) {
	body := reply.Body
	switch reply.Kind {
	case coredomain.ReplyKindButtons:
		var b strings.Builder
		b.WriteString(reply.Body)
		for i, label := range reply.Buttons {
			fmt.Fprintf(&b, "\n%d. %s", i+1, label)
		}
		body = b.String()
	case coredomain.ReplyKindList:
		var b strings.Builder
		b.WriteString(reply.Body)
		for _, section := range reply.Sections {
			fmt.Fprintf(&b, "\n\n*%s*", section.Title)
			for _, row := range section.Rows {
				fmt.Fprintf(&b, "\n- %s", row.Title)
			}
		}
		body = b.String()
	}

	reqBytes, err := json.Marshal(webjsSendRequest{Number: reply.Recipient, Message: body})
	if err != nil {
		return "", fmt.Errorf("failed to marshal bridge request: %w", err)
	}

	endpoint := p.baseURL + "/api/send-message"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create bridge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request to whatsapp-web bridge: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read bridge response (status %d): %w", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		var errResp webjsErrorResponse
		msg := fmt.Sprintf("status %d", httpResp.StatusCode)
		if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		p.logger.WarnContext(ctx, "Bridge rejected send", "status_code", httpResp.StatusCode, "message", msg)
		return "", &ProviderError{
			Provider:   p.GetName(),
			StatusCode: httpResp.StatusCode,
			Message:    msg,
			Payload:    json.RawMessage(respBody),
		}
	}

	var sendResp webjsSendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		p.logger.WarnContext(ctx, "Sent via bridge but failed to parse response body", "status_code", httpResp.StatusCode, "error", err)
		return "", nil
	}

	messageID := webjsMessageID(sendResp.MessageID)
	p.logger.InfoContext(ctx, "Message sent via whatsapp-web bridge", "provider_message_id", messageID)
	return messageID, nil
}

// MarkAsRead is a no-op: the bridge exposes no read-receipt endpoint.
func (p *WebJSProvider) MarkAsRead(ctx context.Context, messageID string) error {
	return nil
}

func (p *WebJSProvider) GetName() string {
	return "webjs"
}

// webjsMessageID extracts a usable ID from the bridge's messageId field,
// which is either a plain string or whatsapp-web.js's ID object.
func webjsMessageID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Serialized string `json:"_serialized"`
		ID         string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Serialized != "" {
			return obj.Serialized
		}
		return obj.ID
	}
	return ""
}
