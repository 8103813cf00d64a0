package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// ReferenceCodeAlphabet leaves out O, 0, I and 1.
const ReferenceCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const ReferenceCodeLength = 6

// GenerateReferenceCode returns a random store reference code. Uniqueness is
// enforced by the database; callers retry on collision.
func GenerateReferenceCode() (string, error) {
	var sb strings.Builder
	sb.Grow(ReferenceCodeLength)
	max := big.NewInt(int64(len(ReferenceCodeAlphabet)))
	for i := 0; i < ReferenceCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate reference code: %w", err)
		}
		sb.WriteByte(ReferenceCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// NormalizeReferenceCode upper-cases user input.
func NormalizeReferenceCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsReferenceCode reports whether code is well formed.
func IsReferenceCode(code string) bool {
	if len(code) != ReferenceCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(ReferenceCodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

// DefaultQRPayload derives a QR payload from a store name,
// e.g. "Mavi Atasehir" -> "MAVI_ATASEHIR_QR".
func DefaultQRPayload(storeName string) string {
	return strings.ToUpper(strings.Join(strings.Fields(storeName), "_")) + "_QR"
}
