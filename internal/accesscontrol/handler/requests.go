package handler

// AddMinterRequest grants the minter role to an address.
type AddMinterRequest struct {
	Address string `json:"address" validate:"required,hexaddr"`
}

// RotateSignerRequest replaces the trusted signer public key.
type RotateSignerRequest struct {
	PublicKey string `json:"public_key" validate:"required,notblank"`
}

// RotateTreasuryRequest replaces the treasury address.
type RotateTreasuryRequest struct {
	Address string `json:"address" validate:"required,hexaddr"`
}

// SetBaseURIRequest replaces the metadata URI template. Empty disables
// metadata URIs.
type SetBaseURIRequest struct {
	BaseURI string `json:"base_uri"`
}

// TransferOwnershipRequest hands the engine to a new owner.
type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner" validate:"required,hexaddr"`
}
