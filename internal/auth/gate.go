package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/course-catalog/internal/shared"
)

var bearerPattern = regexp.MustCompile(`^Bearer (\S+)$`)

// Recorder receives authentication outcomes. A nil Recorder is ignored.
type Recorder interface {
	LoginAttempt(outcome string)
	TokenRejected(reason string)
}

// Gate establishes the request principal from a bearer token.
type Gate struct {
	tokens   TokenValidator
	store    IdentityFinder
	logger   *slog.Logger
	recorder Recorder
}

// NewGate constructs the authentication gate.
func NewGate(tokens TokenValidator, store IdentityFinder, logger *slog.Logger, recorder Recorder) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{tokens: tokens, store: store, logger: logger, recorder: recorder}
}

// Middleware attaches a principal when the request carries a valid token for
// an existing user. It never rejects a request; when the credential store
// fails the error is recorded with shared.ContextWithAuthFailure so the
// authorization layer can answer 500 instead of 401.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.PrincipalFromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		principal, err := g.authenticate(r, raw)
		switch {
		case err != nil:
			r = r.WithContext(shared.ContextWithAuthFailure(r.Context(), err))
		case principal != nil:
			r = r.WithContext(shared.ContextWithPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate returns a nil principal for tokens that do not identify a
// user, and an error only when the store could not be consulted.
func (g *Gate) authenticate(r *http.Request, raw string) (*shared.Principal, error) {
	ctx := r.Context()
	logger := g.logger.With(slog.String("request_id", middleware.GetReqID(ctx)))

	claims, err := g.tokens.Validate(raw)
	if err != nil {
		reason := RejectionReason(err)
		logger.Warn("bearer token rejected", slog.String("reason", reason))
		g.rejected(reason)
		return nil, nil
	}
	identity, err := g.store.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.Warn("token subject not found")
			g.rejected("unknown_subject")
			return nil, nil
		}
		logger.Error("load token subject", slog.Any("error", err))
		g.rejected("store_error")
		return nil, fmt.Errorf("auth: load token subject: %w", err)
	}
	if identity.Username != claims.Subject {
		logger.Warn("token subject mismatch")
		g.rejected("subject_mismatch")
		return nil, nil
	}
	return shared.NewPrincipal(identity.Username, identity.IsAdmin, identity.IsActive), nil
}

func (g *Gate) rejected(reason string) {
	if g.recorder != nil {
		g.recorder.TokenRejected(reason)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	m := bearerPattern.FindStringSubmatch(r.Header.Get("Authorization"))
	if m == nil {
		return "", false
	}
	return m[1], true
}
