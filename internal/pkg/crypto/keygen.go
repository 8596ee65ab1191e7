// Package crypto holds password hashing, random tokens and the digests of
// reset tokens and backup snapshots.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	// ResetTokenBytes is the entropy of a password reset token.
	ResetTokenBytes = 32

	// ReferralCodeLength is the length of a user's referral code.
	ReferralCodeLength = 8
)

// referralChars has 32 symbols, so a byte modulo its length is unbiased.
// It leaves out 0, O, 1 and I.
const referralChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateToken returns n random bytes as 2n hex characters.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func GenerateResetToken() (string, error) {
	return GenerateToken(ResetTokenBytes)
}

// GenerateReferralCode returns a code users can read aloud.
func GenerateReferralCode() (string, error) {
	code := make([]byte, ReferralCodeLength)
	if _, err := rand.Read(code); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	for i, b := range code {
		code[i] = referralChars[int(b)%len(referralChars)]
	}
	return string(code), nil
}
