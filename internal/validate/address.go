package validate

import (
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/solclaim/solclaim/internal/config"
)

// WalletAddress decodes a base58 address and verifies it is exactly 32 bytes
// (ed25519 public key).
func WalletAddress(addr string) error {
	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %q: base58 decode failed: %v", config.ErrInvalidAddress, addr, err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("%w: %q: decoded to %d bytes, expected 32", config.ErrInvalidAddress, addr, len(decoded))
	}
	return nil
}
