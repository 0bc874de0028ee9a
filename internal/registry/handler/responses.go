package handler

import (
	"time"

	"sigil/internal/registry/models"
)

// CredentialTypeResponse is the public view of a registered type.
type CredentialTypeResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Creator      string    `json:"creator"`
	RegisteredAt time.Time `json:"registered_at"`
	StartTime    int64     `json:"start_time"`
	EndTime      int64     `json:"end_time"`
	Price        uint64    `json:"price"`
}

// MetadataURIResponse carries the resolved metadata URI for a type.
type MetadataURIResponse struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

func toCredentialTypeResponse(ct *models.CredentialType) *CredentialTypeResponse {
	return &CredentialTypeResponse{
		ID:           ct.ID.String(),
		Name:         ct.Name,
		Description:  ct.Description,
		Creator:      ct.Creator.String(),
		RegisteredAt: ct.RegisteredAt,
		StartTime:    ct.StartTime,
		EndTime:      ct.EndTime,
		Price:        ct.Price,
	}
}
