package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"portfolio_api/internal/app/service"
	"portfolio_api/internal/common"
	"portfolio_api/internal/common/security"
	"portfolio_api/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

type contextKey string

const identityCtxKey contextKey = "identity"

// Identity is the authenticated caller as resolved from storage on this
// request.
type Identity struct {
	ID   string
	Role model.Role
}

// Authorizer resolves a raw bearer token to a live account.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*model.User, error)
}

// AuthGate holds the Access Gate and Role Gate middleware.
type AuthGate struct {
	authorizer Authorizer
	responder  common.Responder
	log        *slog.Logger
	rejections *prometheus.CounterVec
}

// NewAuthGate registers its rejection counter on reg when reg is non-nil.
func NewAuthGate(authorizer Authorizer, log *slog.Logger, exposeErrors bool, reg prometheus.Registerer) *AuthGate {
	if log == nil {
		log = slog.Default()
	}
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portfolio",
		Subsystem: "auth",
		Name:      "rejections_total",
		Help:      "Requests turned away by the access and role gates",
	}, []string{"reason"})
	if reg != nil {
		reg.MustRegister(rejections)
	}
	return &AuthGate{
		authorizer: authorizer,
		responder:  common.Responder{Log: log, ExposeErrors: exposeErrors},
		log:        log,
		rejections: rejections,
	}
}

// Authenticator is the Access Gate. The account named by the token is
// re-read on every request and its current role is placed in the context.
func (g *AuthGate) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := g.authorizer.Authorize(r.Context(), security.TokenFromRequest(r))
		if err != nil {
			g.rejections.WithLabelValues(rejectionReason(err)).Inc()
			g.responder.Error(w, r, err, "Server error in authentication")
			return
		}

		ctx := WithIdentity(r.Context(), Identity{ID: user.ID, Role: user.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole is the Role Gate. It must be mounted after Authenticator.
func (g *AuthGate) RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				g.log.ErrorContext(r.Context(), "role gate mounted without access gate", "path", r.URL.Path)
				common.RespondWithError(w, http.StatusInternalServerError, "Server error in authentication")
				return
			}
			if id.Role != role {
				g.rejections.WithLabelValues("forbidden").Inc()
				common.RespondWithError(w, http.StatusForbidden, "Access denied. Admin only.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *AuthGate) AdminOnly(next http.Handler) http.Handler {
	return g.RequireRole(model.RoleAdmin)(next)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, service.ErrNoToken):
		return "no_token"
	case errors.Is(err, service.ErrTokenExpired):
		return "expired"
	case errors.Is(err, service.ErrUserGone):
		return "user_gone"
	case errors.Is(err, service.ErrUserDeactivated):
		return "deactivated"
	case errors.Is(err, common.ErrUnauthorized):
		return "invalid"
	}
	return "server_error"
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey).(Identity)
	return id, ok
}

// GetUserIDFromContext is IdentityFromContext narrowed to the account id.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.ID, ok
}

func GetUserRoleFromContext(ctx context.Context) (model.Role, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.Role, ok
}
