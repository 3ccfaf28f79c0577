package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

const guestPrefix = "guest-"

// NewID returns a short best-effort unique identifier for games and challenges.
func NewID() string {
	return randomHex(6)
}

// GuestName returns a display name for an anonymous connection.
func GuestName() string {
	return guestPrefix + randomHex(3)
}

// IsGuestName reports whether name is reserved for anonymous connections.
func IsGuestName(name string) bool {
	return len(name) >= len(guestPrefix) && name[:len(guestPrefix)] == guestPrefix
}

func randomHex(size int) string {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}

	// Fallback to timestamp if crypto/rand is unavailable.
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}
