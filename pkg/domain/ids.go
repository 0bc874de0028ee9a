// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strconv"
	"strings"

	dErrors "sigil/pkg/domain-errors"
)

// Address identifies a holder, minter, owner, or treasury. Canonical form is
// 0x-prefixed lowercase hex, 20 bytes. The compiler keeps it distinct from
// plain strings so an address is validated exactly once, at the trust boundary.
type Address string

// ZeroAddress is the null identity. Mints move balance from it, burns move
// balance to it; no other movement may touch it.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

const addressHexLen = 40

// ParseAddress validates and canonicalizes an address at a trust boundary.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address cannot be empty")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be 0x-prefixed")
	}
	hex := s[2:]
	if len(hex) != addressHexLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be 20 bytes of hex")
	}
	for _, r := range hex {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid address format")
		}
	}
	return Address("0x" + strings.ToLower(hex)), nil
}

func (a Address) String() string { return string(a) }

// IsZero reports whether the address is empty or the null identity.
func (a Address) IsZero() bool { return a == "" || a == ZeroAddress }

// CredentialTypeID is the dense sequential identifier assigned by the registry.
type CredentialTypeID uint64

// ParseCredentialTypeID parses a decimal type id from a path or query segment.
func ParseCredentialTypeID(s string) (CredentialTypeID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "credential type ID cannot be empty")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid credential type ID format")
	}
	return CredentialTypeID(n), nil
}

func (id CredentialTypeID) String() string { return strconv.FormatUint(uint64(id), 10) }
