package billing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kristianfreeman/saas-starter/internal/platform/httpx"
	"github.com/kristianfreeman/saas-starter/internal/shared"
)

// SubscriptionSource reads subscription state. The webhook-fed local cache
// implements it; the provider client serves as fallback.
type SubscriptionSource interface {
	ForUser(ctx context.Context, userID string) (Subscription, error)
}

// Handler serves the caller's subscription state.
type Handler struct {
	logger *slog.Logger
	cache  SubscriptionSource
	client PaymentsClient
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, cache SubscriptionSource, client PaymentsClient) *Handler {
	return &Handler{logger: logger, cache: cache, client: client}
}

// MountRoutes registers subscription endpoints on an authenticated router
// group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/billing/subscription", h.getSubscription)
}

// getSubscription reads the webhook-maintained cache and falls back to the
// provider when the cache has no row yet.
func (h *Handler) getSubscription(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	sub, err := h.cache.ForUser(r.Context(), identity.ID)
	if errors.Is(err, ErrNoSubscription) && h.client != nil {
		sub, err = h.client.Subscription(r.Context(), identity.ID)
	}
	if err != nil {
		if errors.Is(err, ErrNoSubscription) {
			httpx.RespondError(w, httpx.NewError(httpx.CodeNotFound, "no subscription"))
			return
		}
		h.logger.Error("subscription lookup", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"subscription": sub})
}
