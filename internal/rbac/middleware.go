package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/course-catalog/internal/platform/httpx"
	"github.com/odyssey-erp/course-catalog/internal/shared"
)

// Recorder receives authorization decisions. A nil Recorder is ignored.
type Recorder interface {
	AccessDecision(access, decision string)
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Policy   *Policy
	Logger   *slog.Logger
	Recorder Recorder
}

// Authorize enforces the policy for every request. It must run after the
// authentication gate. Rules are matched against the chi route pattern the
// request will be dispatched to, so encoded separators cannot steer the
// policy and the router apart.
func (m Middleware) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := shared.PrincipalFromContext(r.Context())
		access, decision := m.Policy.Decide(r.Method, RoutePattern(r), principal)
		if m.Recorder != nil {
			m.Recorder.AccessDecision(access.String(), decision.String())
		}
		switch decision {
		case Allow:
			next.ServeHTTP(w, r)
		case Unauthenticated:
			if err := shared.AuthFailureFromContext(r.Context()); err != nil {
				if m.Logger != nil {
					m.Logger.Error("credential check failed",
						slog.Any("error", err),
						slog.String("request_id", middleware.GetReqID(r.Context())))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "unable to verify credentials")
				return
			}
			httpx.Unauthorized(w, "authentication required")
		default:
			if m.Logger != nil {
				m.Logger.Warn("access denied",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("user", principal.Username),
					slog.String("request_id", middleware.GetReqID(r.Context())))
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
		}
	})
}

// RoutePattern resolves the route pattern chi will dispatch r to, using the
// same routing path the mux matches on (RawPath when set, as cleaned by
// middleware.CleanPath). Requests no route matches fall back to that path;
// the router answers them with 404 or 405.
func RoutePattern(r *http.Request) string {
	routePath := r.URL.Path
	if r.URL.RawPath != "" {
		routePath = r.URL.RawPath
	}
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return routePath
	}
	if rctx.RoutePath != "" {
		routePath = rctx.RoutePath
	}
	if rctx.Routes != nil {
		if pattern := rctx.Routes.Find(chi.NewRouteContext(), r.Method, routePath); pattern != "" {
			return pattern
		}
	}
	return routePath
}

// RequireAny ensures the current principal holds at least one of the authorities.
func (m Middleware) RequireAny(authorities ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(authorities) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.Unauthorized(w, "authentication required")
				return
			}
			for _, authority := range authorities {
				if principal.HasAuthority(authority) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
		})
	}
}
