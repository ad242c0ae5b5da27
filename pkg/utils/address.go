package utils

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// ParseAddress decodes a base58 account address, naming field in the error
func ParseAddress(field, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, fmt.Errorf("%s is not configured", field)
	}
	decoded, err := base58.Decode(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s is not valid base58: %w", field, err)
	}
	if len(decoded) != solana.PublicKeyLength {
		return solana.PublicKey{}, fmt.Errorf("%s must decode to %d bytes, got %d", field, solana.PublicKeyLength, len(decoded))
	}
	return solana.PublicKeyFromBytes(decoded), nil
}

// ParseOptionalAddress is ParseAddress for settings that may be left empty
func ParseOptionalAddress(field, value string) (solana.PublicKey, bool, error) {
	if value == "" {
		return solana.PublicKey{}, false, nil
	}
	key, err := ParseAddress(field, value)
	return key, err == nil, err
}

// ShortAddress abbreviates an address for log lines
func ShortAddress(key solana.PublicKey) string {
	s := key.String()
	if len(s) <= 12 {
		return s
	}
	return s[:4] + ".." + s[len(s)-4:]
}
