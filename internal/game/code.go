package game

import (
	"crypto/rand"
	"fmt"
	"time"
)

// joinCodeAlphabet skips easily confused characters (no I/O/0/1).
const joinCodeAlphabet = "ABCDEFGHJKLMNPRSTUVYZQWX23456789"

// NewJoinCode returns an 8-character room code.
func NewJoinCode() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "AAAAAAAA"
	}
	for i := range buf {
		buf[i] = joinCodeAlphabet[int(buf[i])%len(joinCodeAlphabet)]
	}
	return string(buf)
}

// NewAPIKey returns the credential handed to a user at registration.
func NewAPIKey() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("key-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", buf)
}
