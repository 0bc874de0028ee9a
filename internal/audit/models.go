package audit

import (
	"time"

	id "sigil/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time            `json:"timestamp"`
	Actor     id.Address           `json:"actor"`
	Action    Action               `json:"action"`
	TypeID    *id.CredentialTypeID `json:"type_id,omitempty"`
	Holder    id.Address           `json:"holder,omitempty"`
	NewHolder id.Address           `json:"new_holder,omitempty"`
	Quantity  uint64               `json:"quantity,omitempty"`
	Value     uint64               `json:"value,omitempty"`
	// MovedTypeIDs names the exact credential types a recovery moved.
	MovedTypeIDs []id.CredentialTypeID `json:"moved_type_ids,omitempty"`
	RequestID    string                `json:"request_id,omitempty"`
	Detail       string                `json:"detail,omitempty"`
}

// Action labels the state transition an event records.
type Action string

const (
	ActionTypeCreated          Action = "credential_type_created"
	ActionMinted               Action = "credential_minted"
	ActionBurned               Action = "credential_burned"
	ActionRecovered            Action = "credentials_recovered"
	ActionMinterAdded          Action = "minter_added"
	ActionMinterRemoved        Action = "minter_removed"
	ActionSignerRotated        Action = "signer_rotated"
	ActionTreasuryRotated      Action = "treasury_rotated"
	ActionBaseURIChanged       Action = "base_uri_changed"
	ActionPaused               Action = "paused"
	ActionUnpaused             Action = "unpaused"
	ActionOwnershipTransferred Action = "ownership_transferred"
	ActionValueForwarded       Action = "value_forwarded"
	ActionApprovalChanged      Action = "approval_changed"
)
