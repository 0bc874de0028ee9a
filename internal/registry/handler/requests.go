package handler

// CreateCredentialTypeRequest registers a new credential type. Window bounds
// are unix seconds; end_time 0 leaves the window open-ended. Price applies
// only to signed-authorization mints.
type CreateCredentialTypeRequest struct {
	Name        string `json:"name" validate:"required,notblank"`
	Description string `json:"description"`
	StartTime   int64  `json:"start_time" validate:"min=0"`
	EndTime     int64  `json:"end_time" validate:"min=0"`
	Price       uint64 `json:"price"`
}
