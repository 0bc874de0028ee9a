package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "sigil/pkg/domain-errors"
)

// DecodeJSON decodes a JSON request body into the target type.
// Returns the decoded value and true on success.
// On failure, writes an error response and returns nil, false.
//
// Usage:
//
//	req, ok := httputil.DecodeJSON[models.MintRequest](w, r, h.logger, ctx, requestID)
//	if !ok {
//	    return
//	}
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	return &req, true
}
