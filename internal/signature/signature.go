package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Prefix marks the signature scheme version on the wire
const Prefix = "v1,"

// Compute generates the signature for a webhook delivery.
//
// The signed message is the literal concatenation
// "<deliveryID>.<timestamp>.<body>" and the result is the Prefix followed by
// the base64-encoded HMAC-SHA256 of that message, keyed by the raw bytes of
// the secret.
func Compute(deliveryID, timestamp, body, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(deliveryID))
	h.Write([]byte("."))
	h.Write([]byte(timestamp))
	h.Write([]byte("."))
	h.Write([]byte(body))

	return Prefix + base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Verify recomputes the signature and compares it against the candidate.
// The comparison is constant-time over the decoded MACs.
func Verify(deliveryID, timestamp, body, secret, candidate string) bool {
	encoded, ok := strings.CutPrefix(candidate, Prefix)
	if !ok {
		return false
	}

	provided, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(deliveryID))
	h.Write([]byte("."))
	h.Write([]byte(timestamp))
	h.Write([]byte("."))
	h.Write([]byte(body))

	return hmac.Equal(provided, h.Sum(nil))
}
