package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/kristianfreeman/saas-starter/internal/audit"
	"github.com/kristianfreeman/saas-starter/internal/platform/httpx"
	"github.com/kristianfreeman/saas-starter/internal/shared"
	"github.com/kristianfreeman/saas-starter/jobs"
)

// Mailer enqueues transactional email for asynchronous delivery.
type Mailer interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// Handler wires the authentication HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	recorder  *audit.Recorder
	mailer    Mailer
	validator *validator.Validate
}

// NewHandler constructs a Handler. mailer may be nil when no queue is wired.
func NewHandler(logger *slog.Logger, service *Service, recorder *audit.Recorder, mailer Mailer) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		recorder:  recorder,
		mailer:    mailer,
		validator: validator.New(),
	}
}

// MountPublic registers the unauthenticated auth endpoints.
func (h *Handler) MountPublic(r chi.Router) {
	r.Post("/signup", h.handleSignup)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

// MountProtected registers the API token endpoints inside the authenticated
// group.
func (h *Handler) MountProtected(r chi.Router) {
	r.Get("/tokens", h.listTokens)
	r.Post("/tokens", h.createToken)
	r.Delete("/tokens/{tokenID}", h.revokeToken)
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func toUserResponse(u User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,max=120"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			httpx.RespondError(w, httpx.NewError(httpx.CodeAlreadyExists, "email already registered"))
			return
		}
		h.logger.Error("signup", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	identity := shared.Identity{ID: user.ID, Email: user.Email}
	if _, err := h.service.Sessions().Create(r.Context(), w, identity); err != nil {
		h.logger.Error("signup session", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recorder.Record(r.Context(), audit.AuthEvent(audit.ActionAuthSignup, user.ID, r, nil))
	h.sendWelcomeEmail(r.Context(), user)
	httpx.JSON(w, http.StatusCreated, map[string]any{"user": toUserResponse(user)})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.recorder.Record(r.Context(), audit.AuthEvent(audit.ActionAuthLoginFailed, "", r,
				map[string]any{"email": req.Email}))
			httpx.RespondError(w, httpx.NewError(httpx.CodeUnauthorized, "invalid email or password"))
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	identity := shared.Identity{ID: user.ID, Email: user.Email}
	if _, err := h.service.Sessions().Create(r.Context(), w, identity); err != nil {
		h.logger.Error("login session", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recorder.Record(r.Context(), audit.AuthEvent(audit.ActionAuthLogin, user.ID, r, nil))
	httpx.JSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}

// sendWelcomeEmail hands the welcome mail to the queue. Delivery is best
// effort: a queue outage must not fail the signup.
func (h *Handler) sendWelcomeEmail(ctx context.Context, user User) {
	if h.mailer == nil {
		return
	}
	_, err := h.mailer.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      user.Email,
		Subject: "Welcome aboard",
		Body:    "Hi " + user.Name + ",\n\nYour account is ready. Sign in any time to get started.\n",
	})
	if err != nil {
		h.logger.Warn("enqueue welcome email", slog.Any("error", err))
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	actorID := ""
	if identity, err := h.service.AuthenticateSession(r.Context(), r); err == nil {
		actorID = identity.ID
	}
	if err := h.service.Sessions().Destroy(r.Context(), w, r); err != nil {
		h.logger.Warn("logout", slog.Any("error", err))
	}
	if actorID != "" {
		h.recorder.Record(r.Context(), audit.AuthEvent(audit.ActionAuthLogout, actorID, r, nil))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"loggedOut": true})
}

type tokenResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

func toTokenResponse(t APIToken) tokenResponse {
	return tokenResponse{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339)}
}

func (h *Handler) listTokens(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	tokens, err := h.service.ListTokens(r.Context(), identity.ID)
	if err != nil {
		h.logger.Error("list tokens", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]tokenResponse, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, toTokenResponse(t))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tokens": out})
}

type createTokenRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

func (h *Handler) createToken(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	var req createTokenRequest
	if err := httpx.DecodeValid(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	signed, record, err := h.service.IssueToken(r.Context(), identity.ID, req.Name)
	if err != nil {
		h.logger.Error("create token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recorder.Record(r.Context(), audit.TokenEvent(audit.ActionAuthTokenCreated, identity.ID, record.ID, r))
	// The signed token is returned exactly once.
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"token":    signed,
		"metadata": toTokenResponse(record),
	})
}

func (h *Handler) revokeToken(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	tokenID := chi.URLParam(r, "tokenID")
	if err := h.service.RevokeToken(r.Context(), identity.ID, tokenID); err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			httpx.RespondError(w, httpx.NewError(httpx.CodeNotFound, "token not found"))
			return
		}
		h.logger.Error("revoke token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recorder.Record(r.Context(), audit.TokenEvent(audit.ActionAuthTokenRevoked, identity.ID, tokenID, r))
	httpx.JSON(w, http.StatusOK, map[string]any{"revoked": true})
}
