package reference

import (
	"crypto/rand"
)

const (
	prefix  = "PO-"
	charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	length  = 10
)

// New mints a merchant reference of the form PO-XXXXXXXXXX (10 uppercase
// alphanumerics) from a cryptographic random source. Uniqueness is not
// guaranteed here; the database unique index on merchant_ref is the authority
// and callers retry on collision.
func New() string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process has no usable entropy source.
		panic("reference: crypto/rand unavailable: " + err.Error())
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = charset[int(b)%len(charset)]
	}
	return prefix + string(out)
}
