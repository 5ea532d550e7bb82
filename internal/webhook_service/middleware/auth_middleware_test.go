package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPISecret = "test-api-secret"

func authProtectedHandler(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return APIKeyAuth(testAPISecret, logger)(next)
}

func signedToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "integration-client",
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAPIKeyAuth(t *testing.T) {
	testCases := []struct {
		name           string
		header         string
		value          string
		expectedStatus int
	}{
		{"valid X-Api-Key", "X-Api-Key", testAPISecret, http.StatusOK},
		{"wrong X-Api-Key", "X-Api-Key", "wrong-key", http.StatusUnauthorized},
		{"raw Authorization key", "Authorization", testAPISecret, http.StatusOK},
		{"bearer static key", "Authorization", "Bearer " + testAPISecret, http.StatusOK},
		{"bearer garbage", "Authorization", "Bearer not-a-key-or-token", http.StatusUnauthorized},
		{"missing credential", "", "", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := authProtectedHandler(t)

			req := httptest.NewRequest(http.MethodPost, "/api/whatsapp/send/text", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedStatus == http.StatusUnauthorized {
				assert.JSONEq(t, `{"success": false, "error": "`+expectedAuthError(tc.value)+`"}`, rr.Body.String())
			}
		})
	}
}

func expectedAuthError(credential string) string {
	if credential == "" {
		return "API key is required"
	}
	return "Invalid API key"
}

func TestAPIKeyAuth_JWT(t *testing.T) {
	t.Run("valid HS256 token accepted", func(t *testing.T) {
		handler := authProtectedHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/whatsapp/send/text", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, testAPISecret, time.Now().Add(time.Hour)))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("token signed with wrong secret rejected", func(t *testing.T) {
		handler := authProtectedHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/whatsapp/send/text", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, "other-secret", time.Now().Add(time.Hour)))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		handler := authProtectedHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/whatsapp/send/text", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, testAPISecret, time.Now().Add(-time.Hour)))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
