package solana

import (
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned for strings that are not Solana public keys.
var ErrInvalidAddress = errors.New("invalid solana address")

// AddressInfo describes a validated public key.
type AddressInfo struct {
	Address string
	// OnCurve is false for program-derived addresses, which have no private key.
	OnCurve bool
}

// ValidateAddress checks that address is a base58 encoded 32-byte public key.
func ValidateAddress(address string) (AddressInfo, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return AddressInfo{}, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	raw, err := base58.Decode(address)
	if err != nil {
		return AddressInfo{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != 32 {
		return AddressInfo{}, fmt.Errorf("%w: decoded length %d, want 32", ErrInvalidAddress, len(raw))
	}

	return AddressInfo{Address: address, OnCurve: isOnCurve(raw)}, nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
