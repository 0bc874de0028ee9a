package handler

// StateResponse is the administrative state snapshot. The signer key is
// public material; exposing it lets operators confirm rotations landed.
type StateResponse struct {
	Owner    string   `json:"owner"`
	Paused   bool     `json:"paused"`
	Signer   string   `json:"signer,omitempty"`
	Treasury string   `json:"treasury"`
	BaseURI  string   `json:"base_uri,omitempty"`
	Minters  []string `json:"minters"`
}

// StatusResponse acknowledges a state transition.
type StatusResponse struct {
	Status string `json:"status"`
}
