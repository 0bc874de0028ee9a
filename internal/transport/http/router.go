// Package httptransport wires the HTTP surface: public reads, authenticated
// minting and burning, and the owner-gated administrative routes. Handlers
// delegate to domain services; no business logic lives here.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	achandler "sigil/internal/accesscontrol/handler"
	isshandler "sigil/internal/issuance/handler"
	"sigil/internal/platform/health"
	"sigil/internal/platform/middleware"
	reghandler "sigil/internal/registry/handler"
)

// Deps carries the wired handlers and auth configuration for the router.
type Deps struct {
	Logger         *slog.Logger
	TokenValidator middleware.CallerValidator
	// AdminKeyHash is the bcrypt hash accepted on X-Admin-Key. Empty
	// disables the API-key path.
	AdminKeyHash string

	Health   *health.Handler
	Registry *reghandler.Handler
	Issuance *isshandler.Handler
	Access   *achandler.Handler
}

// NewRouter assembles the middleware stack and mounts every route group.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(30 * time.Second))

	d.Health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	// Public reads: registry, balances, nonces.
	r.Group(func(pub chi.Router) {
		d.Registry.RegisterPublic(pub)
		d.Issuance.RegisterPublic(pub)
	})

	// Everything that mutates state requires a resolved caller. Privilege
	// (owner, minter, holder) is checked in the services against stored
	// state, never here.
	r.Group(func(auth chi.Router) {
		auth.Use(middleware.ContentTypeJSON)
		auth.Use(middleware.RequireCaller(d.TokenValidator, d.AdminKeyHash, d.Logger))

		d.Registry.RegisterAdmin(auth)
		d.Issuance.RegisterAuthenticated(auth)
		d.Access.Register(auth)
	})

	return r
}
