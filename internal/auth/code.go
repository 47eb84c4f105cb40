package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const verificationCodeDigits = 6

var codeSpace = big.NewInt(1_000_000)

// generateVerificationCode returns a uniformly random 6-digit code. Leading
// zeros are kept.
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", verificationCodeDigits, n.Int64()), nil
}
