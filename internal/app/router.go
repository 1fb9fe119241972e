package app

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/course-catalog/internal/auth"
	"github.com/odyssey-erp/course-catalog/internal/catalog"
	"github.com/odyssey-erp/course-catalog/internal/messages"
	"github.com/odyssey-erp/course-catalog/internal/observability"
	"github.com/odyssey-erp/course-catalog/internal/orders"
	"github.com/odyssey-erp/course-catalog/internal/platform/httpx"
	"github.com/odyssey-erp/course-catalog/internal/rbac"
	"github.com/odyssey-erp/course-catalog/internal/users"
	"github.com/odyssey-erp/course-catalog/jobs"
)

// LegacyLoginPath is the login path kept for older clients.
const LegacyLoginPath = "/api/users/login"

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Gate            *auth.Gate
	RBACMiddleware  rbac.Middleware
	Metrics         *observability.Metrics
	AuthHandler     *auth.Handler
	UsersHandler    *users.Handler
	CatalogHandler  *catalog.Handler
	MessagesHandler *messages.Handler
	OrdersHandler   *orders.Handler
	JobHandler      *jobs.Handler
	CourseImageDir  string
}

// NewRouter constructs the chi.Router with catalog defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
		Gate:    params.Gate,
		RBAC:    params.RBACMiddleware,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such resource")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "method not supported for this resource")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.AuthHandler != nil {
		loginLimit := 10
		if params.Config != nil && params.Config.LoginRateLimitPerMinute > 0 {
			loginLimit = params.Config.LoginRateLimitPerMinute
		}
		params.AuthHandler.WithLoginMiddleware(httprate.LimitByIP(loginLimit, time.Minute))
		params.AuthHandler.MountLoginAlias(r, LegacyLoginPath)
	}
	r.Route("/users", func(r chi.Router) {
		if params.AuthHandler != nil {
			params.AuthHandler.MountRoutes(r)
		}
		if params.UsersHandler != nil {
			params.UsersHandler.MountRoutes(r)
		}
	})
	if params.CatalogHandler != nil {
		r.Route("/courses", params.CatalogHandler.MountRoutes)
	}
	if params.MessagesHandler != nil {
		r.Route("/messages", params.MessagesHandler.MountRoutes)
	}
	if params.OrdersHandler != nil {
		r.Route("/orders", params.OrdersHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.CourseImageDir != "" {
		prefix := strings.TrimSuffix(catalog.ImageURLPrefix, "/")
		fileServer := http.StripPrefix(catalog.ImageURLPrefix, http.FileServer(http.Dir(params.CourseImageDir)))
		r.Handle(prefix+"/*", imageCacheHandler(fileServer))
	}

	return r
}

// imageCacheHandler serves stored course images with Cache-Control headers
// and refuses directory listings.
func imageCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such resource")
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
