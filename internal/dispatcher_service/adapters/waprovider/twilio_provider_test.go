package waprovider

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coredomain "github.com/nexcommerce/whatsapp-gateway/internal/core_whatsapp/domain"
)

type capturedTwilioRequest struct {
	path     string
	username string
	password string
	form     url.Values
}

func newTwilioStub(t *testing.T, statusCode int, responseBody string) (*httptest.Server, *capturedTwilioRequest) {
	t.Helper()
	captured := &capturedTwilioRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.username, captured.password, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		captured.form = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(responseBody))
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func newTwilioProviderForTest(serverURL string) *TwilioProvider {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := NewTwilioProvider(logger, "AC123", "auth-token", "+15550001111", nil)
	provider.apiBase = serverURL
	return provider
}

func TestTwilioProvider_SendText(t *testing.T) {
	server, captured := newTwilioStub(t, http.StatusCreated, `{"sid": "SM123", "status": "queued"}`)
	provider := newTwilioProviderForTest(server.URL)

	sid, err := provider.Send(context.Background(), coredomain.NewTextReply("15551234567", "hello back"))

	require.NoError(t, err)
	assert.Equal(t, "SM123", sid)
	assert.Equal(t, "/Accounts/AC123/Messages.json", captured.path)
	assert.Equal(t, "AC123", captured.username)
	assert.Equal(t, "auth-token", captured.password)
	assert.Equal(t, "whatsapp:+15550001111", captured.form.Get("From"))
	assert.Equal(t, "whatsapp:15551234567", captured.form.Get("To"))
	assert.Equal(t, "hello back", captured.form.Get("Body"))
}

func TestTwilioProvider_ButtonsDegradeToNumberedText(t *testing.T) {
	server, captured := newTwilioStub(t, http.StatusCreated, `{"sid": "SM124", "status": "queued"}`)
	provider := newTwilioProviderForTest(server.URL)

	reply := coredomain.NewButtonsReply("15551234567", "How can I assist you today?",
		[]string{"Product Info", "Support"})
	_, err := provider.Send(context.Background(), reply)
	require.NoError(t, err)

	body := captured.form.Get("Body")
	assert.Contains(t, body, "How can I assist you today?")
	assert.Contains(t, body, "1. Product Info")
	assert.Contains(t, body, "2. Support")
}

func TestTwilioProvider_ListDegradesToSectionedText(t *testing.T) {
	server, captured := newTwilioStub(t, http.StatusCreated, `{"sid": "SM125", "status": "queued"}`)
	provider := newTwilioProviderForTest(server.URL)

	sections := []coredomain.ListSection{
		{Title: "Products", Rows: []coredomain.ListRow{{ID: "p1", Title: "Product 1"}}},
	}
	reply := coredomain.NewListReply("15551234567", "Please choose from our menu:", "View Options", sections)
	_, err := provider.Send(context.Background(), reply)
	require.NoError(t, err)

	body := captured.form.Get("Body")
	assert.Contains(t, body, "*Products*")
	assert.Contains(t, body, "- Product 1")
}

func TestTwilioProvider_SendMedia(t *testing.T) {
	server, captured := newTwilioStub(t, http.StatusCreated, `{"sid": "SM126", "status": "queued"}`)
	provider := newTwilioProviderForTest(server.URL)

	_, err := provider.SendMedia(context.Background(),
		"15551234567", "image", "https://example.com/a.jpg", "a photo", "")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/a.jpg", captured.form.Get("MediaUrl"))
	assert.Equal(t, "a photo", captured.form.Get("Body"))
}

func TestTwilioProvider_ErrorResponseBecomesProviderError(t *testing.T) {
	server, _ := newTwilioStub(t, http.StatusBadRequest, `{"code": 21211, "message": "Invalid 'To' phone number"}`)
	provider := newTwilioProviderForTest(server.URL)

	_, err := provider.Send(context.Background(), coredomain.NewTextReply("bad", "hi"))

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "twilio", provErr.Provider)
	assert.Contains(t, provErr.Message, "Invalid 'To' phone number")
}

func TestTwilioProvider_MarkAsReadIsNoOp(t *testing.T) {
	provider := newTwilioProviderForTest("http://unused.invalid")
	assert.NoError(t, provider.MarkAsRead(context.Background(), "SM123"))
}

func TestWhatsappAddress(t *testing.T) {
	assert.Equal(t, "whatsapp:+15551234567", whatsappAddress("+15551234567"))
	assert.Equal(t, "whatsapp:+15551234567", whatsappAddress("whatsapp:+15551234567"))
}
