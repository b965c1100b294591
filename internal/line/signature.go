package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// ErrInvalidSignature rejects webhook deliveries whose signature does not
// match the channel secret.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// ValidateSignature checks the X-Line-Signature header: base64 of the
// HMAC-SHA256 digest of the raw request body keyed by the channel secret.
func ValidateSignature(channelSecret string, body []byte, signature string) error {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign computes the signature for a body. Tests use it to build valid
// webhook requests.
func Sign(channelSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
