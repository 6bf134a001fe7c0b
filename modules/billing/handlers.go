package billing

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	billingsvc "github.com/dmitrymomot/billingkit/pkg/billing"
)

// webhookBodyLimit bounds webhook payload reads. Stripe events stay well
// under this.
const webhookBodyLimit = 1 << 20

type handlers struct {
	svc         billingsvc.Service
	resolveUser UserResolver
	log         *slog.Logger
}

// webhook receives provider event deliveries. The body must reach the
// verifier as raw bytes: any intermediate parsing would invalidate the
// signature. A 500 response withholds the acknowledgment so the provider
// redelivers later; signature failures are the caller's fault and get 400.
func (h *handlers) webhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	err = h.svc.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case errors.Is(err, billingsvc.ErrInvalidSignature):
		writeError(w, http.StatusBadRequest, "invalid webhook signature")
	case err != nil:
		h.log.ErrorContext(r.Context(), "webhook processing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "webhook processing failed")
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	snap, err := h.svc.Status(r.Context(), user.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscription": snap})
}

func (h *handlers) checkout(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	url, err := h.svc.Checkout(r.Context(), user.ID, user.Email)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *handlers) cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	if err := h.svc.Cancel(r.Context(), user.ID); err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "subscription will be canceled at the end of the billing period",
	})
}

func (h *handlers) resume(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	if err := h.svc.Resume(r.Context(), user.ID); err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "subscription resumed"})
}

func (h *handlers) invoices(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	invoices, err := h.svc.Invoices(r.Context(), user.ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if invoices == nil {
		invoices = []billingsvc.InvoiceView{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (h *handlers) user(w http.ResponseWriter, r *http.Request) (User, bool) {
	user, err := h.resolveUser(r)
	if err != nil || user.ID == uuid.Nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return User{}, false
	}
	return user, true
}

// serviceError maps policy rejections to their expected 400 messages and
// hides everything else behind a generic 500. Provider error detail never
// reaches the client.
func (h *handlers) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, billingsvc.ErrAlreadySubscribed):
		writeError(w, http.StatusBadRequest, "already have an existing subscription")
	case errors.Is(err, billingsvc.ErrEndingSoon):
		writeError(w, http.StatusBadRequest, "subscription that will end soon")
	case errors.Is(err, billingsvc.ErrNoActiveSubscription):
		writeError(w, http.StatusBadRequest, "no active premium subscription found")
	case errors.Is(err, billingsvc.ErrNoCanceledSubscription):
		writeError(w, http.StatusBadRequest, "no canceled subscription found")
	case errors.Is(err, billingsvc.ErrNoBillingHistory):
		writeError(w, http.StatusBadRequest, "no subscription history found")
	default:
		h.log.ErrorContext(r.Context(), "billing request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
