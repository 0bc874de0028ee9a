package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "sigil/pkg/domain"
	"sigil/pkg/secrets"
)

// CallerValidator validates a bearer token and returns the caller address it names.
// Every service operation takes the caller explicitly; this middleware only
// resolves identity, never privilege. Privilege checks live in the services.
type CallerValidator interface {
	ValidateToken(tokenString string) (id.Address, error)
}

type contextKeyCaller struct{}

// ContextKeyCaller is exported for use in handlers and tests.
var ContextKeyCaller = contextKeyCaller{}

// GetCaller retrieves the authenticated caller address from the context.
func GetCaller(ctx context.Context) id.Address {
	if addr, ok := ctx.Value(ContextKeyCaller).(id.Address); ok {
		return addr
	}
	return ""
}

// WithCaller returns a context carrying the caller address. Used by tests and
// by the admin API-key path.
func WithCaller(ctx context.Context, caller id.Address) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, caller)
}

// RequireCaller authenticates the request and stores the caller address in context.
// Two paths are accepted:
//   - Authorization: Bearer <jwt> whose subject is the caller address;
//   - X-Admin-Key verified against the configured bcrypt hash, with the acting
//     address in X-Admin-Actor. The key authenticates, it does not authorize:
//     owner checks still happen against stored state in the services.
func RequireCaller(validator CallerValidator, adminKeyHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			if key := r.Header.Get("X-Admin-Key"); key != "" && adminKeyHash != "" {
				if err := secrets.Verify(key, adminKeyHash); err != nil {
					logger.WarnContext(ctx, "unauthorized access - admin key mismatch",
						"request_id", requestID,
					)
					writeUnauthorized(w, "invalid admin key")
					return
				}
				actor, err := id.ParseAddress(r.Header.Get("X-Admin-Actor"))
				if err != nil {
					writeUnauthorized(w, "X-Admin-Actor must be a valid address")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithCaller(ctx, actor)))
				return
			}

			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			caller, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(ctx, caller)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
