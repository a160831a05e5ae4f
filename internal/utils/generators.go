package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// NewID returns a UUID string for entity primary keys.
func NewID() string {
	return uuid.NewString()
}

// NewOrderNumber builds a human-facing order number: the last 8 digits of
// the current millisecond timestamp followed by a 4-digit random suffix.
// Uniqueness is enforced by the orders.order_number unique index; callers
// retry on collision.
func NewOrderNumber() string {
	ts := time.Now().UnixMilli() % 100000000
	n, _ := rand.Int(rand.Reader, big.NewInt(10000))
	return fmt.Sprintf("%08d%04d", ts, n.Int64())
}

// NewGiftCardCode returns a 16-hex-char uppercase gift card code.
func NewGiftCardCode() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%X", buf)
}
