// Package billing exposes the billing service over HTTP: webhook intake,
// snapshot status, checkout/cancel/resume actions, and invoice history.
package billing

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	billingsvc "github.com/dmitrymomot/billingkit/pkg/billing"
)

// User identifies the authenticated caller of a billing endpoint.
// Authentication itself lives outside this module; the resolver bridges
// whatever session mechanism the host application uses.
type User struct {
	ID    uuid.UUID
	Email string
}

// UserResolver extracts the acting user from a request.
type UserResolver func(*http.Request) (User, error)

// RouterOptions configures the billing HTTP module.
type RouterOptions struct {
	Service     billingsvc.Service
	ResolveUser UserResolver
	Logger      *slog.Logger

	// Healthchecks are exposed under GET /health when provided.
	Healthchecks map[string]func(context.Context) error
}

// Router mounts the billing endpoints on a fresh chi router.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/billing", billing.Router(billing.RouterOptions{
//	    Service:     svc,
//	    ResolveUser: sessionResolver,
//	}))
func Router(opts RouterOptions) chi.Router {
	if opts.Service == nil {
		panic("billing: Service is required")
	}
	if opts.ResolveUser == nil {
		panic("billing: UserResolver is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	h := &handlers{
		svc:         opts.Service,
		resolveUser: opts.ResolveUser,
		log:         opts.Logger,
	}

	r := chi.NewRouter()
	r.Post("/webhook", h.webhook)
	r.Get("/status", h.status)
	r.Post("/checkout", h.checkout)
	r.Post("/cancel", h.cancel)
	r.Post("/resume", h.resume)
	r.Get("/invoices", h.invoices)

	if len(opts.Healthchecks) > 0 {
		r.Get("/health", healthHandler(opts.Healthchecks))
	}

	return r
}

func healthHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
			} else {
				results[name] = "ok"
			}
		}
		writeJSON(w, status, results)
	}
}
