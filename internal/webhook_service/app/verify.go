package app

import "errors"

// ErrVerificationFailed is returned when the subscription handshake does not
// match the configured verify token.
var ErrVerificationFailed = errors.New("webhook verification failed")

// VerifyChallenge implements the provider's GET verification handshake.
// It returns the challenge string only when mode is "subscribe" and token
// exactly equals verifyToken (case-sensitive, no normalization).
func VerifyChallenge(mode, token, challenge, verifyToken string) (string, error) {
	if mode == "subscribe" && token == verifyToken {
		return challenge, nil
	}
	return "", ErrVerificationFailed
}
