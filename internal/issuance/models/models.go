// Package models defines the issuance engine's request and record types.
package models

import (
	id "sigil/pkg/domain"
)

// Authorization is an offline-produced signed mint authorization. Deadline
// is unix seconds; Nonce must equal the recipient's current counter;
// Signature is the hex ed25519 signature over the canonical message digest.
type Authorization struct {
	Deadline  int64  `json:"deadline"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

// MintRequest asks the engine to credit one unit of a credential type.
// Value is the attached amount, forwarded in full to the treasury.
// Authorization is required on the signature path and ignored on the role
// path.
type MintRequest struct {
	To            id.Address
	TypeID        id.CredentialTypeID
	Value         uint64
	Authorization *Authorization
}

// MintReceipt records a successful issuance.
type MintReceipt struct {
	To     id.Address          `json:"to"`
	TypeID id.CredentialTypeID `json:"type_id"`
	Value  uint64              `json:"value"`
	// Path names the authorization path that admitted the mint: "role" or
	// "signature".
	Path string `json:"path"`
}

// BurnEntry is one (type, quantity) pair in a batch burn.
type BurnEntry struct {
	TypeID   id.CredentialTypeID `json:"type_id"`
	Quantity uint64              `json:"quantity"`
}

// Balance is one holder's quantity of one credential type.
type Balance struct {
	TypeID   id.CredentialTypeID `json:"type_id"`
	Quantity uint64              `json:"quantity"`
}
