package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

// GenerateTempPassword returns a random human-readable alphanumeric
// password. Ambiguous characters (0/O, 1/l/I) are excluded.
func GenerateTempPassword(length int) (string, error) {
	if length <= 0 {
		length = 12
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate temp password: %w", err)
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = tempPasswordAlphabet[int(b)%len(tempPasswordAlphabet)]
	}
	return string(out), nil
}

// GenerateResetToken returns a short uppercase hex code for the
// token-based reset flow.
func GenerateResetToken() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// MaskLoginID hides the middle of a login identifier, keeping the first
// two and last two characters when the id is long enough.
func MaskLoginID(id string) string {
	runes := []rune(id)
	switch {
	case len(runes) == 0:
		return ""
	case len(runes) <= 2:
		return string(runes[0]) + "*"
	default:
		masked := len(runes) - 4
		if masked < 2 {
			masked = 2
		}
		return string(runes[:2]) + strings.Repeat("*", masked) + string(runes[len(runes)-2:])
	}
}

// NormalizePhone strips every non-digit so stored and submitted phone
// numbers compare regardless of formatting.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
