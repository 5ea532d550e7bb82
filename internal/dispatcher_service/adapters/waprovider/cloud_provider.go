package waprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	coredomain "github.com/nexcommerce/whatsapp-gateway/internal/core_whatsapp/domain"
)

// CloudProvider sends messages through the Meta WhatsApp Business (Graph)
// API: POST {baseURL}/{phoneNumberID}/messages with a Bearer token.
type CloudProvider struct {
	logger        *slog.Logger
	httpClient    *http.Client
	baseURL       string
	phoneNumberID string
	accessToken   string
}

func NewCloudProvider(logger *slog.Logger, baseURL, phoneNumberID, accessToken string, httpClient *http.Client) *CloudProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &CloudProvider{
		logger:        logger.With("provider", "cloud"),
		httpClient:    httpClient,
		baseURL:       baseURL,
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
	}
}

// Graph API request/response shapes. Only the fields the gateway uses are
// modelled.

type cloudTextBody struct {
	Body string `json:"body"`
}

type cloudInteractiveBody struct {
	Type   string           `json:"type"`
	Body   *cloudTextBody   `json:"body,omitempty"`
	Action *cloudActionBody `json:"action,omitempty"`
}

type cloudActionBody struct {
	Buttons  []cloudButton      `json:"buttons,omitempty"`
	Button   string             `json:"button,omitempty"`
	Sections []cloudListSection `json:"sections,omitempty"`
}

type cloudButton struct {
	Type  string           `json:"type"`
	Reply cloudButtonReply `json:"reply"`
}

type cloudButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type cloudListSection struct {
	Title string         `json:"title"`
	Rows  []cloudListRow `json:"rows"`
}

type cloudListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type cloudMediaBody struct {
	Link     string `json:"link"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type cloudTemplateBody struct {
	Name       string                   `json:"name"`
	Language   cloudTemplateLanguage    `json:"language"`
	Components []cloudTemplateComponent `json:"components,omitempty"`
}

type cloudTemplateLanguage struct {
	Code string `json:"code"`
}

type cloudTemplateComponent struct {
	Type       string                   `json:"type"`
	Parameters []cloudTemplateParameter `json:"parameters,omitempty"`
}

type cloudTemplateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type cloudSendRequest struct {
	MessagingProduct string                `json:"messaging_product"`
	To               string                `json:"to,omitempty"`
	Type             string                `json:"type,omitempty"`
	Text             *cloudTextBody        `json:"text,omitempty"`
	Interactive      *cloudInteractiveBody `json:"interactive,omitempty"`
	Image            *cloudMediaBody       `json:"image,omitempty"`
	Document         *cloudMediaBody       `json:"document,omitempty"`
	Audio            *cloudMediaBody       `json:"audio,omitempty"`
	Video            *cloudMediaBody       `json:"video,omitempty"`
	Template         *cloudTemplateBody    `json:"template,omitempty"`
	Status           string                `json:"status,omitempty"`
	MessageID        string                `json:"message_id,omitempty"`
}

type cloudSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type cloudErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (p *CloudProvider) Send(ctx context.Context, reply coredomain.OutboundReply) (string, error) {
	req := cloudSendRequest{
		MessagingProduct: "whatsapp",
		To:               reply.Recipient,
	}

	switch reply.Kind {
	case coredomain.ReplyKindText:
		req.Type = "text"
		req.Text = &cloudTextBody{Body: reply.Body}
	case coredomain.ReplyKindButtons:
		buttons := make([]cloudButton, 0, len(reply.Buttons))
		for i, label := range reply.Buttons {
			buttons = append(buttons, cloudButton{
				Type:  "reply",
				Reply: cloudButtonReply{ID: fmt.Sprintf("button_%d", i), Title: label},
			})
		}
		req.Type = "interactive"
		req.Interactive = &cloudInteractiveBody{
			Type:   "button",
			Body:   &cloudTextBody{Body: reply.Body},
			Action: &cloudActionBody{Buttons: buttons},
		}
	case coredomain.ReplyKindList:
		sections := make([]cloudListSection, 0, len(reply.Sections))
		for _, s := range reply.Sections {
			rows := make([]cloudListRow, 0, len(s.Rows))
			for _, r := range s.Rows {
				rows = append(rows, cloudListRow{ID: r.ID, Title: r.Title, Description: r.Description})
			}
			sections = append(sections, cloudListSection{Title: s.Title, Rows: rows})
		}
		req.Type = "interactive"
		req.Interactive = &cloudInteractiveBody{
			Type:   "list",
			Body:   &cloudTextBody{Body: reply.Body},
			Action: &cloudActionBody{Button: reply.ListButton, Sections: sections},
		}
	default:
		return "", fmt.Errorf("unsupported reply kind: %s", reply.Kind)
	}

	return p.post(ctx, req)
}

// SendMedia delivers a hosted image, document, audio or video by URL.
func (p *CloudProvider) SendMedia(ctx context.Context, to, mediaType, link, caption, filename string) (string, error) {
	req := cloudSendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             mediaType,
	}
	media := &cloudMediaBody{Link: link, Caption: caption}
	switch mediaType {
	case "image":
		req.Image = media
	case "document":
		media.Filename = filename
		req.Document = media
	case "audio":
		req.Audio = &cloudMediaBody{Link: link}
	case "video":
		req.Video = media
	default:
		return "", fmt.Errorf("unsupported media type: %s", mediaType)
	}
	return p.post(ctx, req)
}

// SendTemplate delivers a pre-approved template with optional body parameters.
func (p *CloudProvider) SendTemplate(ctx context.Context, to, templateName, languageCode string, bodyParams []string) (string, error) {
	tmpl := &cloudTemplateBody{
		Name:     templateName,
		Language: cloudTemplateLanguage{Code: languageCode},
	}
	if len(bodyParams) > 0 {
		params := make([]cloudTemplateParameter, 0, len(bodyParams))
		for _, v := range bodyParams {
			params = append(params, cloudTemplateParameter{Type: "text", Text: v})
		}
		tmpl.Components = []cloudTemplateComponent{{Type: "body", Parameters: params}}
	}
	return p.post(ctx, cloudSendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template:         tmpl,
	})
}

// MarkAsRead flags an inbound message as read.
func (p *CloudProvider) MarkAsRead(ctx context.Context, messageID string) error {
	_, err := p.post(ctx, cloudSendRequest{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
	})
	return err
}

func (p *CloudProvider) GetName() string {
	return "cloud"
}

func (p *CloudProvider) post(ctx context.Context, payload cloudSendRequest) (string, error) {
	reqBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal Graph API request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", p.baseURL, p.phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create Graph API request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.accessToken)

	p.logger.DebugContext(ctx, "Sending request to Graph API", "url", url, "body", string(reqBytes))

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request to Graph API: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read Graph API response (status %d): %w", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		var errResp cloudErrorResponse
		msg := fmt.Sprintf("status %d", httpResp.StatusCode)
		if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		p.logger.WarnContext(ctx, "Graph API rejected send", "status_code", httpResp.StatusCode, "message", msg)
		return "", &ProviderError{
			Provider:   p.GetName(),
			StatusCode: httpResp.StatusCode,
			Message:    msg,
			Payload:    json.RawMessage(respBody),
		}
	}

	var sendResp cloudSendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		// HTTP success with an unparseable body: report success without an ID.
		p.logger.WarnContext(ctx, "Sent via Graph API but failed to parse response body", "status_code", httpResp.StatusCode, "error", err)
		return "", nil
	}

	messageID := ""
	if len(sendResp.Messages) > 0 {
		messageID = sendResp.Messages[0].ID
	}
	p.logger.InfoContext(ctx, "Message sent via Graph API", "provider_message_id", messageID)
	return messageID, nil
}
