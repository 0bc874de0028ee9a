package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "sigil/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	// The response body may be incomplete, but headers are already sent.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
// It translates transport-agnostic domain errors into HTTP status codes and error responses.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		status := DomainCodeToHTTPStatus(domainErr.Code)
		response := map[string]string{
			"error": string(domainErr.Code),
		}
		if domainErr.Message != "" {
			response["error_description"] = domainErr.Message
		}
		WriteJSON(w, status, response)
		return
	}

	// Fallback for unexpected errors
	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": string(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
// Window and recovery preconditions map to 412: the request is well formed
// but a declared precondition does not currently hold.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeConflict, dErrors.CodeInvariantViolation, dErrors.CodeNonTransferable:
		return http.StatusConflict
	case dErrors.CodeUnauthorized, dErrors.CodeAuthorizationExpired:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeStatePaused:
		return http.StatusConflict
	case dErrors.CodeWindowNotStarted, dErrors.CodeWindowEnded, dErrors.CodeEmptyRecovery:
		return http.StatusPreconditionFailed
	case dErrors.CodeValueTooLow:
		return http.StatusPaymentRequired
	case dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
