package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// APIKeyAuth authenticates send-API callers. Two schemes are accepted:
//   - a static API key in the X-Api-Key header (or as a raw Authorization value)
//   - an HS256 bearer token signed with the same secret
//
// Anything else gets a 401 with the API's structured error body.
func APIKeyAuth(apiSecretKey string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := r.Header.Get("X-Api-Key")
			if credential == "" {
				credential = r.Header.Get("Authorization")
			}
			if credential == "" {
				unauthorized(w, "API key is required")
				return
			}

			if bearer, ok := strings.CutPrefix(credential, "Bearer "); ok {
				if apiKeyMatches(bearer, apiSecretKey) || validBearerToken(bearer, apiSecretKey) {
					next.ServeHTTP(w, r)
					return
				}
				logger.WarnContext(r.Context(), "Invalid bearer credential", "remote_addr", r.RemoteAddr)
				unauthorized(w, "Invalid API key")
				return
			}

			if !apiKeyMatches(credential, apiSecretKey) {
				logger.WarnContext(r.Context(), "Invalid API key attempt", "remote_addr", r.RemoteAddr)
				unauthorized(w, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func apiKeyMatches(provided, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

func validBearerToken(tokenString, secret string) bool {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	return err == nil && token.Valid
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
