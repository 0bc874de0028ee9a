// Package authz implements the signed mint authorization protocol: a
// canonical six-field message bound to one deployment, verified against the
// trusted signer, made single-use by a per-holder monotonic nonce.
package authz

import (
	"crypto/sha256"
	"encoding/binary"

	id "sigil/pkg/domain"
)

// DomainID derives the 32-byte deployment identifier that binds every
// authorization to one deployment, preventing cross-deployment replay.
func DomainID(domain string) [32]byte {
	return sha256.Sum256([]byte(domain))
}

// Message is the canonical content of a signed mint authorization. Price is
// the registered price of the credential type at verification time, so a
// signature implicitly pins the price the signer saw.
type Message struct {
	Recipient id.Address
	TypeID    id.CredentialTypeID
	Price     uint64
	Deadline  int64
	DomainID  [32]byte
	Nonce     uint64
}

// Encode produces the deterministic binary form: length-prefixed recipient
// bytes, then big-endian fixed-width fields in declaration order. Any change
// here invalidates all outstanding signatures.
func (m Message) Encode() []byte {
	recipient := []byte(m.Recipient.String())
	buf := make([]byte, 0, 2+len(recipient)+8*4+32)

	var n [8]byte
	binary.BigEndian.PutUint16(n[:2], uint16(len(recipient))) // #nosec G115 -- addresses are 42 bytes
	buf = append(buf, n[:2]...)
	buf = append(buf, recipient...)

	binary.BigEndian.PutUint64(n[:], uint64(m.TypeID))
	buf = append(buf, n[:]...)
	binary.BigEndian.PutUint64(n[:], m.Price)
	buf = append(buf, n[:]...)
	binary.BigEndian.PutUint64(n[:], uint64(m.Deadline)) // #nosec G115 -- deadlines are validated non-negative
	buf = append(buf, n[:]...)
	buf = append(buf, m.DomainID[:]...)
	binary.BigEndian.PutUint64(n[:], m.Nonce)
	buf = append(buf, n[:]...)

	return buf
}

// Digest returns the SHA-256 digest the signer signs.
func (m Message) Digest() [32]byte {
	return sha256.Sum256(m.Encode())
}
