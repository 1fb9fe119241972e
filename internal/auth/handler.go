package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/course-catalog/internal/platform/httpx"
	"github.com/odyssey-erp/course-catalog/internal/shared"
)

// WelcomeMailer queues the welcome email sent after registration.
type WelcomeMailer interface {
	EnqueueWelcomeEmail(ctx context.Context, to, username string) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mailer    WelcomeMailer
	recorder  Recorder
	validator *validator.Validate
	loginMW   []func(http.Handler) http.Handler
}

// NewHandler constructs a Handler instance. mailer and recorder may be nil.
func NewHandler(logger *slog.Logger, service *Service, mailer WelcomeMailer, recorder Recorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		mailer:    mailer,
		recorder:  recorder,
		validator: httpx.NewValidator(),
	}
}

// WithLoginMiddleware wraps the login endpoint, e.g. with a stricter rate limit.
func (h *Handler) WithLoginMiddleware(mw ...func(http.Handler) http.Handler) *Handler {
	h.loginMW = append(h.loginMW, mw...)
	return h
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.With(h.loginMW...).Post("/login", h.Login)
}

// MountLoginAlias registers the legacy login path.
func (h *Handler) MountLoginAlias(r chi.Router, pattern string) {
	r.With(h.loginMW...).Post(pattern, h.Login)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	JWT string `json:"jwt"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email" validate:"required,email,max=254"`
}

// IdentityResponse is the public view of an account.
type IdentityResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`
	IsActive bool   `json:"isActive"`
}

// NewIdentityResponse strips the password hash from an identity.
func NewIdentityResponse(identity *Identity) IdentityResponse {
	return IdentityResponse{
		ID:       identity.ID,
		Username: identity.Username,
		Email:    identity.Email,
		IsAdmin:  identity.IsAdmin,
		IsActive: identity.IsActive,
	}
}

// Login exchanges credentials for a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.record("invalid_request")
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.record("invalid_request")
		httpx.Unauthorized(w, "invalid username or password")
		return
	}
	token, _, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		outcome := loginOutcome(err)
		h.record(outcome)
		if errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Warn("login failed",
				slog.String("reason", outcome),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		} else {
			h.logger.Error("login", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	h.record("success")
	httpx.JSON(w, http.StatusOK, loginResponse{JWT: token})
}

// Register creates a new account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, httpx.FieldErrors(err))
		return
	}
	identity, err := h.service.Register(r.Context(), Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrConflict):
			h.logger.Info("registration rejected", slog.Any("error", err))
		case errors.Is(err, shared.ErrValidation):
		default:
			h.logger.Error("register", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	if h.mailer != nil {
		if err := h.mailer.EnqueueWelcomeEmail(r.Context(), identity.Email, identity.Username); err != nil {
			h.logger.Warn("enqueue welcome email", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusCreated, NewIdentityResponse(identity))
}

func (h *Handler) record(outcome string) {
	if h.recorder != nil {
		h.recorder.LoginAttempt(outcome)
	}
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, ErrUnknownUser):
		return "unknown_user"
	case errors.Is(err, ErrBadPassword):
		return "bad_password"
	case errors.Is(err, ErrInactiveUser):
		return "inactive_user"
	default:
		return "error"
	}
}
