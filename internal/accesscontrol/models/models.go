// Package models holds the administrative state of the credential engine:
// who owns it, whether it is paused, who may mint, which signer key is
// trusted, where forwarded value goes, and the metadata URI template.
package models

import (
	"encoding/hex"

	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
)

// State is the singleton administrative state. Minter membership lives in
// its own store operations; State carries the scalar fields.
type State struct {
	Owner    id.Address
	Paused   bool
	Signer   string // hex-encoded ed25519 public key; empty = no signer configured
	Treasury id.Address
	BaseURI  string
}

const ed25519PublicKeyLen = 32

// ParseSignerKey validates a hex-encoded ed25519 public key.
func ParseSignerKey(s string) (string, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "signer key cannot be empty")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "signer key must be hex-encoded")
	}
	if len(raw) != ed25519PublicKeyLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "signer key must be 32 bytes")
	}
	return s, nil
}
