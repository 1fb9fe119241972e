package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-erp/course-catalog/internal/platform/httpx"
	"github.com/odyssey-erp/course-catalog/internal/shared"
)

// Verification failures. Each wraps shared.ErrInvalidCredentials so callers
// can collapse them into a single response.
var (
	ErrUnknownUser  = fmt.Errorf("%w: unknown user", shared.ErrInvalidCredentials)
	ErrBadPassword  = fmt.Errorf("%w: bad password", shared.ErrInvalidCredentials)
	ErrInactiveUser = fmt.Errorf("%w: inactive user", shared.ErrInvalidCredentials)
)

// dummyPassword is hashed once at construction so unknown usernames still pay
// for a bcrypt comparison.
const dummyPassword = "course-catalog-timing-equaliser"

var registrationRules = httpx.NewValidator()

// Service wraps authentication business rules.
type Service struct {
	repo      Repository
	hasher    PasswordHasher
	tokens    TokenIssuer
	dummyHash string
}

// NewService constructs a new Service. It panics when the hasher cannot
// produce the dummy hash, since every unknown-user login would depend on it.
func NewService(repo Repository, hasher PasswordHasher, tokens TokenIssuer) *Service {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		panic(fmt.Errorf("auth: hash dummy password: %w", err))
	}
	return &Service{repo: repo, hasher: hasher, tokens: tokens, dummyHash: dummy}
}

// Verify checks username/password credentials against the store.
func (s *Service) Verify(ctx context.Context, username, password string) (*Identity, error) {
	identity, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("auth: find identity: %w", err)
	}
	if !s.hasher.Verify(password, identity.PasswordHash) {
		return nil, ErrBadPassword
	}
	if !identity.IsActive {
		return nil, ErrInactiveUser
	}
	return identity, nil
}

// Login verifies the credentials and issues a token for the identity.
func (s *Service) Login(ctx context.Context, username, password string) (string, *Identity, error) {
	identity, err := s.Verify(ctx, username, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.tokens.Issue(identity)
	if err != nil {
		return "", nil, err
	}
	return token, identity, nil
}

// Register creates a non-admin, active account.
func (s *Service) Register(ctx context.Context, input Registration) (*Identity, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if err := validateRegistration(input); err != nil {
		return nil, err
	}
	taken, err := s.repo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("username %q: %w", input.Username, shared.ErrConflict)
	}
	taken, err = s.repo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("email: %w", shared.ErrConflict)
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.Create(ctx, Identity{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		IsAdmin:      false,
		IsActive:     true,
	})
}

func validateRegistration(input Registration) error {
	switch {
	case input.Username == "":
		return fmt.Errorf("%w: username is required", shared.ErrValidation)
	case input.Password == "":
		return fmt.Errorf("%w: password is required", shared.ErrValidation)
	case len(input.Password) > MaxPasswordBytes:
		return fmt.Errorf("%w: password is too long", shared.ErrValidation)
	}
	if err := registrationRules.Var(input.Email, "required,email,max=254"); err != nil {
		return fmt.Errorf("%w: email is invalid", shared.ErrValidation)
	}
	return nil
}
