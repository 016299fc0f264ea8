package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kristianfreeman/saas-starter/internal/admin"
	"github.com/kristianfreeman/saas-starter/internal/auth"
	"github.com/kristianfreeman/saas-starter/internal/authz"
	"github.com/kristianfreeman/saas-starter/internal/billing"
	"github.com/kristianfreeman/saas-starter/internal/observability"
	"github.com/kristianfreeman/saas-starter/internal/ratelimit"
	"github.com/kristianfreeman/saas-starter/internal/users"
	"github.com/kristianfreeman/saas-starter/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Limiter        ratelimit.Checker
	AuthHandler    *auth.Handler
	UsersHandler   *users.Handler
	AdminHandler   *admin.Handler
	BillingHandler *billing.Handler
	WebhookHandler *billing.WebhookHandler
	JobHandler     *jobs.Handler
	AuthMW         auth.Middleware
	AuthzMW        authz.Middleware
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router and wires the request pipeline: rate
// limit, authenticate, authorize, then handlers. Policy limiters ahead of
// authentication key on client IP; the per-user read/write limiters sit
// inside the authenticated group so they key on identity.
func NewRouter(params RouterParams) http.Handler {
	onRejected := func(string) {}
	if params.Metrics != nil {
		onRejected = params.Metrics.RateLimitRejected
	}
	limitByIP := ratelimit.Middleware{
		Checker:    params.Limiter,
		Logger:     params.Logger,
		KeyFunc:    ratelimit.KeyByClient,
		OnRejected: onRejected,
	}
	limitByUser := ratelimit.Middleware{
		Checker:    params.Limiter,
		Logger:     params.Logger,
		KeyFunc:    ratelimit.KeyByIdentity,
		OnRejected: onRejected,
	}

	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(limitByIP.Limit(ratelimit.PolicyGeneral))

		// Credential endpoints get the stricter window on top of General.
		r.Route("/auth", func(r chi.Router) {
			r.Use(limitByIP.Limit(ratelimit.PolicyAuthSensitive))
			params.AuthHandler.MountPublic(r)
		})

		if params.WebhookHandler != nil {
			params.WebhookHandler.MountRoutes(r)
		}

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMW.RequireAuth)
			r.Use(limitByUser.LimitPerMethod(ratelimit.PolicyRead, ratelimit.PolicyWrite))

			params.UsersHandler.MountRoutes(r, params.AuthzMW)
			r.Group(func(r chi.Router) {
				r.Use(params.AuthzMW.Require(authz.PermTokensManage))
				params.AuthHandler.MountProtected(r)
			})
			if params.BillingHandler != nil {
				r.Group(func(r chi.Router) {
					r.Use(params.AuthzMW.Require(authz.PermBillingView))
					params.BillingHandler.MountRoutes(r)
				})
			}

			r.Route("/admin", func(r chi.Router) {
				params.AdminHandler.MountRoutes(r, params.AuthzMW)
			})
		})
	})

	return r
}
