package cart

import (
	"crypto/rand"
	"encoding/hex"
)

// NewSessionID generates an opaque token identifying a guest cart.
func NewSessionID() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
