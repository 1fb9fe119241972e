package orders

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/course-catalog/internal/platform/httpx"
	"github.com/odyssey-erp/course-catalog/internal/shared"
)

// Handler serves the order endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountRoutes registers order routes. GET and POST address a user's orders
// by username; DELETE addresses a single order by id.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{username}", h.list)
	r.Post("/{username}", h.place)
	r.Delete("/{id}", h.cancel)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	orders, err := h.service.List(r.Context(), shared.PrincipalFromContext(r.Context()), username)
	if err != nil {
		h.fail(w, "list orders failed", err)
		return
	}
	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) place(w http.ResponseWriter, r *http.Request) {
	var in PlaceInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.ValidationProblem(w, httpx.FieldErrors(err))
		return
	}
	username := chi.URLParam(r, "username")
	order, err := h.service.Place(r.Context(), shared.PrincipalFromContext(r.Context()), username, in)
	if err != nil {
		h.fail(w, "place order failed", err)
		return
	}
	h.logger.Info("order placed",
		slog.String("user", username),
		slog.Int64("order_id", order.ID),
		slog.Int64("course_id", order.CourseID))
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id %q", shared.ErrValidation, raw))
		return
	}
	if err := h.service.Cancel(r.Context(), shared.PrincipalFromContext(r.Context()), id); err != nil {
		h.fail(w, "cancel order failed", err)
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
