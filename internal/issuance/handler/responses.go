package handler

import "sigil/internal/issuance/models"

// MintResponse acknowledges a successful issuance.
type MintResponse struct {
	To     string `json:"to"`
	TypeID string `json:"type_id"`
	Value  uint64 `json:"value"`
	Path   string `json:"path"`
}

// BalanceResponse is one holder's quantity of one credential type.
type BalanceResponse struct {
	Holder   string `json:"holder"`
	TypeID   string `json:"type_id"`
	Quantity uint64 `json:"quantity"`
}

// BalancesResponse lists a holder's non-zero balances.
type BalancesResponse struct {
	Holder   string           `json:"holder"`
	Balances []models.Balance `json:"balances"`
}

// NonceResponse carries a holder's current authorization counter.
type NonceResponse struct {
	Holder string `json:"holder"`
	Nonce  uint64 `json:"nonce"`
}

// RecoverResponse names the credential types a recovery moved.
type RecoverResponse struct {
	OldHolder  string   `json:"old_holder"`
	NewHolder  string   `json:"new_holder"`
	MovedTypes []string `json:"moved_types"`
}

// StatusResponse acknowledges an operation with no richer payload.
type StatusResponse struct {
	Status string `json:"status"`
}

func toMintResponse(receipt *models.MintReceipt) *MintResponse {
	return &MintResponse{
		To:     receipt.To.String(),
		TypeID: receipt.TypeID.String(),
		Value:  receipt.Value,
		Path:   receipt.Path,
	}
}
