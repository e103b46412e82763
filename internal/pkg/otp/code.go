package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeGenerator defines the contract for producing random numeric codes.
type CodeGenerator interface {
	// Generate returns a fresh numeric code as a string.
	Generate() (string, error)
}

// NumericCode generates fixed-length numeric codes from a cryptographic
// random source. Codes never carry a leading zero, so every code in the
// range is equally likely.
type NumericCode struct {
	min *big.Int
	max *big.Int
}

// NewNumericCode constructs a NumericCode of the given length.
//
// If length is outside the 4..10 range, it falls back to 6 digits.
func NewNumericCode(length int) *NumericCode {
	if length < 4 || length > 10 {
		length = 6
	}

	min := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)

	return &NumericCode{min: min, max: new(big.Int).Sub(max, min)}
}

// Generate returns a fresh numeric code as a string.
func (n *NumericCode) Generate() (string, error) {
	v, err := rand.Int(rand.Reader, n.max)
	if err != nil {
		return "", fmt.Errorf("otp: generate numeric code: %w", err)
	}

	return new(big.Int).Add(v, n.min).String(), nil
}
