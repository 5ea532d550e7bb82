package waprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	coredomain "github.com/nexcommerce/whatsapp-gateway/internal/core_whatsapp/domain"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioProvider sends messages through Twilio's WhatsApp channel:
// form-encoded POST to the Messages endpoint with basic auth, recipients
// prefixed "whatsapp:". Twilio's REST API has no native button or list
// payload on this endpoint, so interactive replies degrade to text with the
// options rendered into the body. Read receipts are not supported either;
// MarkAsRead is a no-op.
type TwilioProvider struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiBase    string
	accountSID string
	authToken  string
	fromNumber string
}

func NewTwilioProvider(logger *slog.Logger, accountSID, authToken, fromNumber string, httpClient *http.Client) *TwilioProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TwilioProvider{
		logger:     logger.With("provider", "twilio"),
		httpClient: httpClient,
		apiBase:    twilioAPIBase,
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
	}
}

type twilioMessageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (p *TwilioProvider) Send(ctx context.Context, reply coredomain.OutboundReply) (string, error) {
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
	return p.createMessage(ctx, reply.Recipient, body, "")
}

// SendMedia delivers hosted media by URL; the caption becomes the body.
func (p *TwilioProvider) SendMedia(ctx context.Context, to, mediaType, link, caption, filename string) (string, error) {
	return p.createMessage(ctx, to, caption, link)
}

// MarkAsRead is a no-op: Twilio's Messages API has no read-receipt call.
func (p *TwilioProvider) MarkAsRead(ctx context.Context, messageID string) error {
	return nil
}

func (p *TwilioProvider) GetName() string {
	return "twilio"
}

func (p *TwilioProvider) createMessage(ctx context.Context, to, body, mediaURL string) (string, error) {
	form := url.Values{}
	form.Set("From", whatsappAddress(p.fromNumber))
	form.Set("To", whatsappAddress(to))
	if body != "" {
		form.Set("Body", body)
	}
	if mediaURL != "" {
		form.Set("MediaUrl", mediaURL)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", p.apiBase, p.accountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create Twilio request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(p.accountSID, p.authToken)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request to Twilio: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read Twilio response (status %d): %w", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		var errResp twilioErrorResponse
		msg := fmt.Sprintf("status %d", httpResp.StatusCode)
		if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr == nil && errResp.Message != "" {
			msg = errResp.Message
		}
		p.logger.WarnContext(ctx, "Twilio rejected send", "status_code", httpResp.StatusCode, "message", msg)
		return "", &ProviderError{
			Provider:   p.GetName(),
			StatusCode: httpResp.StatusCode,
			Message:    msg,
			Payload:    json.RawMessage(respBody),
		}
	}

	var msgResp twilioMessageResponse
	if err := json.Unmarshal(respBody, &msgResp); err != nil {
		p.logger.WarnContext(ctx, "Sent via Twilio but failed to parse response body", "status_code", httpResp.StatusCode, "error", err)
		return "", nil
	}

	p.logger.InfoContext(ctx, "Message sent via Twilio", "sid", msgResp.SID, "status", msgResp.Status)
	return msgResp.SID, nil
}

func whatsappAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
