// Package ledger defines stable contract types for the multi-asset balance
// ledger boundary. The issuance engine consumes the ledger through these
// types; external ledger implementations publish them.
package ledger

// ContractVersion identifies the schema for ledger entries shared across services.
const ContractVersion = "v0.1.0"

// Entry is one (credential type, quantity) pair inside a batch move.
type Entry struct {
	TypeID   uint64 `json:"type_id"`
	Quantity uint64 `json:"quantity"`
}

// Movement describes a sanctioned balance mutation. From or To may be the
// zero address for mints and burns respectively.
type Movement struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Entries []Entry `json:"entries"`
}
