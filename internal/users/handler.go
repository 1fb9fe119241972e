package users

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/course-catalog/internal/platform/httpx"
	"github.com/odyssey-erp/course-catalog/internal/rbac"
	"github.com/odyssey-erp/course-catalog/internal/shared"
)

// Handler manages user endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.AuthorityAdmin))
		r.Get("/", h.listUsers)
	})
	r.Get("/{id}", h.showUser)
	r.Get("/{username}/favorites", h.listFavorites)
	r.Post("/{username}/favorites/{courseId}", h.addFavorite)
	r.Delete("/{username}/favorites/{courseId}", h.removeFavorite)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.fail(w, "list users failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, "get user failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) listFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.service.Favorites(r.Context(), shared.PrincipalFromContext(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		h.fail(w, "list favorites failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, favorites)
}

func (h *Handler) addFavorite(w http.ResponseWriter, r *http.Request) {
	courseID, err := int64Param(r, "courseId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	username := chi.URLParam(r, "username")
	favorite, err := h.service.AddFavorite(r.Context(), shared.PrincipalFromContext(r.Context()), username, courseID)
	if err != nil {
		h.fail(w, "add favorite failed", err)
		return
	}
	h.logger.Info("favorite added", slog.String("user", username), slog.Int64("course_id", courseID))
	httpx.JSON(w, http.StatusCreated, favorite)
}

func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	courseID, err := int64Param(r, "courseId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	username := chi.URLParam(r, "username")
	if err := h.service.RemoveFavorite(r.Context(), shared.PrincipalFromContext(r.Context()), username, courseID); err != nil {
		h.fail(w, "remove favorite failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrValidation):
	case errors.Is(err, shared.ErrForbidden):
		h.logger.Warn(msg, slog.Any("error", err))
	default:
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func int64Param(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", shared.ErrValidation, name, raw)
	}
	return v, nil
}
