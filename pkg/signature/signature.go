package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Compute returns the hex-encoded HMAC-SHA256 of body keyed with secret.
// Exposed so callers (and tests) can sign outbound payloads the same way the
// provider does.
func Compute(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks that sig is the hex HMAC-SHA256 of the exact raw body bytes
// under secret. The comparison is constant-time. Returns false for an empty
// or malformed signature, an empty secret, or a digest mismatch; it never
// panics. Callers must pass the body exactly as received on the wire —
// hashing re-serialized JSON would not match what the provider signed.
func Verify(body []byte, sig, secret string) bool {
	if sig == "" || secret == "" {
		return false
	}
	provided, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
