package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kristianfreeman/saas-starter/internal/audit"
	"github.com/kristianfreeman/saas-starter/internal/authz"
	"github.com/kristianfreeman/saas-starter/internal/platform/httpx"
	"github.com/kristianfreeman/saas-starter/internal/shared"
)

// Store is the persistence surface the handler needs.
type Store interface {
	Get(ctx context.Context, id string) (User, error)
	UpdateName(ctx context.Context, id, name string) (User, error)
}

// Handler serves the caller's own profile.
type Handler struct {
	logger    *slog.Logger
	store     Store
	recorder  *audit.Recorder
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, store Store, recorder *audit.Recorder) *Handler {
	return &Handler{
		logger:    logger,
		store:     store,
		recorder:  recorder,
		validator: validator.New(),
	}
}

// MountRoutes registers profile endpoints on an authenticated router group.
func (h *Handler) MountRoutes(r chi.Router, mw authz.Middleware) {
	r.With(mw.Require(authz.PermProfileView)).Get("/me", h.getMe)
	r.With(mw.Require(authz.PermProfileEdit)).Patch("/me", h.updateMe)
}

// ProfileResponse is the JSON shape for profile payloads, shared with the
// admin surface.
type ProfileResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
}

// ToProfileResponse converts a profile, narrowing the stored role to the
// closed enum.
func ToProfileResponse(u User) ProfileResponse {
	return ProfileResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(authz.ParseRole(u.Role)),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	user, err := h.store.Get(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, httpx.NewError(httpx.CodeNotFound, "profile not found"))
			return
		}
		h.logger.Error("get profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": ToProfileResponse(user)})
}

type updateMeRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	var req updateMeRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.store.UpdateName(r.Context(), identity.ID, req.Name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, httpx.NewError(httpx.CodeNotFound, "profile not found"))
			return
		}
		h.logger.Error("update profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recorder.Record(r.Context(), audit.UserEvent(audit.ActionUserProfileUpdated, identity.ID, r,
		map[string]any{"name": req.Name}))
	httpx.JSON(w, http.StatusOK, map[string]any{"user": ToProfileResponse(user)})
}
