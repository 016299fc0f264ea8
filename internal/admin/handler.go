// Package admin exposes the privileged management surface: user
// administration, the audit timeline, and refunds. Every mutation is audited.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kristianfreeman/saas-starter/internal/audit"
	"github.com/kristianfreeman/saas-starter/internal/auth"
	"github.com/kristianfreeman/saas-starter/internal/authz"
	"github.com/kristianfreeman/saas-starter/internal/billing"
	"github.com/kristianfreeman/saas-starter/internal/platform/httpx"
	"github.com/kristianfreeman/saas-starter/internal/shared"
	"github.com/kristianfreeman/saas-starter/internal/users"
)

// UserStore is the account persistence surface the admin handlers need.
type UserStore interface {
	Get(ctx context.Context, id string) (users.User, error)
	List(ctx context.Context, page shared.Page) ([]users.User, int, error)
	Update(ctx context.Context, id string, active *bool, role *string) (users.User, error)
	Delete(ctx context.Context, id string) error
}

// AccountCreator registers accounts with an explicit role.
type AccountCreator interface {
	CreateAccount(ctx context.Context, email, password, name, role string) (auth.User, error)
}

// TimelineSource lists recorded audit events.
type TimelineSource interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters, page shared.Page) ([]audit.Event, int, error)
}

// RoleInvalidator evicts a user's cached role after a role change.
type RoleInvalidator interface {
	Invalidate(userID string)
}

// Handler wires the admin endpoints.
type Handler struct {
	logger    *slog.Logger
	store     UserStore
	accounts  AccountCreator
	timeline  TimelineSource
	payments  billing.PaymentsClient
	recorder  *audit.Recorder
	roles     RoleInvalidator
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, store UserStore, accounts AccountCreator,
	timeline TimelineSource, payments billing.PaymentsClient,
	recorder *audit.Recorder, roles RoleInvalidator) *Handler {
	return &Handler{
		logger:    logger,
		store:     store,
		accounts:  accounts,
		timeline:  timeline,
		payments:  payments,
		recorder:  recorder,
		roles:     roles,
		validator: validator.New(),
	}
}

// MountRoutes registers the admin surface. The caller mounts this under an
// authenticated group; per-route guards are applied here.
func (h *Handler) MountRoutes(r chi.Router, mw authz.Middleware) {
	r.With(mw.Require(authz.PermUsersView)).Get("/users", h.listUsers)
	r.With(mw.Require(authz.PermUsersView)).Get("/users/{userID}", h.getUser)
	r.With(mw.Require(authz.PermUsersEdit)).Patch("/users/{userID}", h.updateUser)
	r.With(mw.RequireSuperAdmin()).Delete("/users/{userID}", h.deleteUser)
	r.With(mw.RequireSuperAdmin()).Post("/users", h.createAdmin)
	r.With(mw.RequireSuperAdmin()).Post("/billing/refunds", h.issueRefund)
	r.With(mw.Require(authz.PermAuditView)).Get("/audit", h.listAudit)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	list, total, err := h.store.List(r.Context(), page)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]users.ProfileResponse, 0, len(list))
	for _, u := range list {
		out = append(out, users.ToProfileResponse(u))
	}
	httpx.JSONList(w, http.StatusOK, map[string]any{"users": out}, httpx.Meta{
		Page:    page.Number,
		Limit:   page.Limit,
		Total:   total,
		HasMore: page.HasMore(total),
	})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondUserErr(w, err, "get user")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": users.ToProfileResponse(user)})
}

type updateUserRequest struct {
	Role     *string `json:"role" validate:"omitempty,oneof=user admin super_admin"`
	IsActive *bool   `json:"isActive"`
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	subjectID := chi.URLParam(r, "userID")

	var req updateUserRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.Role == nil && req.IsActive == nil {
		httpx.RespondError(w, httpx.NewError(httpx.CodeInvalidInput, "nothing to update"))
		return
	}
	// Role changes reach into the privilege model, so they stay super_admin
	// territory even though activation toggles only need users.edit.
	if req.Role != nil && !authz.IsSuperAdmin(authz.RoleFromContext(r.Context())) {
		h.recorder.Record(r.Context(), audit.AdminEvent(audit.ActionAdminAccessDenied, actor.ID, subjectID, r,
			map[string]any{"attempted": "role_change"}))
		httpx.RespondError(w, httpx.NewError(httpx.CodeForbidden, "insufficient permissions"))
		return
	}

	changes := map[string]any{}
	if req.IsActive != nil {
		changes["isActive"] = *req.IsActive
	}
	if req.Role != nil {
		changes["role"] = *req.Role
	}
	user, err := h.store.Update(r.Context(), subjectID, req.IsActive, req.Role)
	if err != nil {
		h.respondUserErr(w, err, "update user")
		return
	}
	if req.Role != nil {
		h.roles.Invalidate(subjectID)
	}
	h.recorder.Record(r.Context(), audit.AdminEvent(audit.ActionAdminUserUpdated, actor.ID, subjectID, r, changes))
	httpx.JSON(w, http.StatusOK, map[string]any{"user": users.ToProfileResponse(user)})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	subjectID := chi.URLParam(r, "userID")
	if subjectID == actor.ID {
		httpx.RespondError(w, httpx.NewError(httpx.CodeInvalidInput, "cannot delete your own account"))
		return
	}
	if err := h.store.Delete(r.Context(), subjectID); err != nil {
		h.respondUserErr(w, err, "delete user")
		return
	}
	h.roles.Invalidate(subjectID)
	h.recorder.Record(r.Context(), audit.AdminEvent(audit.ActionAdminUserDeleted, actor.ID, subjectID, r, nil))
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
}

type createAdminRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,max=120"`
	Role     string `json:"role" validate:"required,oneof=admin super_admin"`
}

func (h *Handler) createAdmin(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	var req createAdminRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	account, err := h.accounts.CreateAccount(r.Context(), req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			httpx.RespondError(w, httpx.NewError(httpx.CodeAlreadyExists, "email already registered"))
			return
		}
		h.logger.Error("create admin", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recorder.Record(r.Context(), audit.AdminEvent(audit.ActionAdminCreated, actor.ID, account.ID, r,
		map[string]any{"role": req.Role}))
	httpx.JSON(w, http.StatusCreated, map[string]any{"user": map[string]any{
		"id":    account.ID,
		"email": account.Email,
		"name":  account.Name,
		"role":  account.Role,
	}})
}

type refundRequest struct {
	PaymentID   string `json:"paymentId" validate:"required"`
	AmountCents int64  `json:"amountCents" validate:"required,gt=0"`
	UserID      string `json:"userId" validate:"required"`
}

func (h *Handler) issueRefund(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.IdentityFromContext(r.Context())
	var req refundRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	refund, err := h.payments.Refund(r.Context(), req.PaymentID, req.AmountCents)
	if err != nil {
		h.logger.Error("refund", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recorder.Record(r.Context(), audit.SubscriptionEvent(audit.ActionSubscriptionRefund,
		actor.ID, refund.ID, r,
		map[string]any{"paymentId": req.PaymentID, "amountCents": req.AmountCents, "userId": req.UserID}))
	httpx.JSON(w, http.StatusCreated, map[string]any{"refund": refund})
}

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	filters := audit.TimelineFilters{
		Action:  r.URL.Query().Get("action"),
		ActorID: r.URL.Query().Get("actorId"),
	}
	events, total, err := h.timeline.Timeline(r.Context(), filters, page)
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSONList(w, http.StatusOK, map[string]any{"events": events}, httpx.Meta{
		Page:    page.Number,
		Limit:   page.Limit,
		Total:   total,
		HasMore: page.HasMore(total),
	})
}

func (h *Handler) respondUserErr(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, users.ErrNotFound) {
		httpx.RespondError(w, httpx.NewError(httpx.CodeNotFound, "user not found"))
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func pageFromQuery(r *http.Request) shared.Page {
	number, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return shared.NormalizePage(number, limit)
}
