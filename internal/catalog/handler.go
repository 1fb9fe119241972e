package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/course-catalog/internal/platform/httpx"
	"github.com/odyssey-erp/course-catalog/internal/shared"
)

// Handler serves the course catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/visible", h.listVisible)
	r.Get("/search", h.search)
	r.Get("/category/{id}", h.listByCategory)
	r.Patch("/toggle_visibility/{id}", h.toggleVisibility)
	r.Get("/{id}", h.show)
	r.Get("/{id}/image", h.image)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.Courses(r.Context())
	if err != nil {
		h.fail(w, "list courses", err)
		return
	}
	httpx.JSON(w, http.StatusOK, courses)
}

func (h *Handler) listVisible(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.VisibleCourses(r.Context())
	if err != nil {
		h.fail(w, "list visible courses", err)
		return
	}
	httpx.JSON(w, http.StatusOK, courses)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	course, err := h.service.SearchByTitle(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.fail(w, "search course", err)
		return
	}
	httpx.JSON(w, http.StatusOK, course)
}

func (h *Handler) listByCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	courses, err := h.service.CoursesInCategory(r.Context(), id)
	if err != nil {
		h.fail(w, "list category courses", err)
		return
	}
	httpx.JSON(w, http.StatusOK, courses)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	course, err := h.service.Course(r.Context(), id)
	if err != nil {
		h.fail(w, "get course", err)
		return
	}
	httpx.JSON(w, http.StatusOK, course)
}

type visibilityResponse struct {
	ID        int64 `json:"id"`
	IsVisible bool  `json:"isVisible"`
}

func (h *Handler) toggleVisibility(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	visible, err := h.service.ToggleVisibility(r.Context(), id)
	if err != nil {
		h.fail(w, "toggle visibility", err)
		return
	}
	h.logger.Info("course visibility toggled", slog.Int64("course_id", id), slog.Bool("visible", visible))
	httpx.JSON(w, http.StatusOK, visibilityResponse{ID: id, IsVisible: visible})
}

type imageResponse struct {
	ImagePath string `json:"imagePath"`
}

func (h *Handler) image(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	path, err := h.service.ImagePath(r.Context(), id)
	if err != nil {
		h.fail(w, "course image", err)
		return
	}
	httpx.JSON(w, http.StatusOK, imageResponse{ImagePath: path})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrValidation) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", shared.ErrValidation, raw)
	}
	return id, nil
}
