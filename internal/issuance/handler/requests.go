package handler

// AuthorizationPayload carries a signed mint authorization.
type AuthorizationPayload struct {
	Deadline  int64  `json:"deadline" validate:"min=0"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature" validate:"required,notblank"`
}

// MintRequest credits one unit of a credential type to a recipient.
type MintRequest struct {
	To            string                `json:"to" validate:"required,hexaddr"`
	TypeID        string                `json:"type_id" validate:"required"`
	Value         uint64                `json:"value"`
	Authorization *AuthorizationPayload `json:"authorization,omitempty"`
}

// BurnRequest destroys units held by a holder. The authenticated caller must
// be the holder or an approved operator.
type BurnRequest struct {
	Holder   string `json:"holder" validate:"required,hexaddr"`
	TypeID   string `json:"type_id" validate:"required"`
	Quantity uint64 `json:"quantity" validate:"min=1"`
}

// BurnBatchRequest destroys several entries atomically.
type BurnBatchRequest struct {
	Holder  string           `json:"holder" validate:"required,hexaddr"`
	Entries []BurnEntryInput `json:"entries" validate:"required,min=1,dive"`
}

// BurnEntryInput is one entry of a batch burn.
type BurnEntryInput struct {
	TypeID   string `json:"type_id" validate:"required"`
	Quantity uint64 `json:"quantity" validate:"min=1"`
}

// ApprovalRequest grants or revokes an operator's right to burn on the
// caller's behalf.
type ApprovalRequest struct {
	Operator string `json:"operator" validate:"required,hexaddr"`
	Approved bool   `json:"approved"`
}

// RecoverRequest moves all of a holder's credentials to a new holder.
type RecoverRequest struct {
	OldHolder string `json:"old_holder" validate:"required,hexaddr"`
	NewHolder string `json:"new_holder" validate:"required,hexaddr"`
}
