package auth_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/course-catalog/internal/auth"
	"github.com/odyssey-erp/course-catalog/internal/shared"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type memRepo struct {
	mu     sync.Mutex
	users  map[string]*auth.Identity
	nextID int64
	err    error
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*auth.Identity{}}
}

func (m *memRepo) FindByUsername(_ context.Context, username string) (*auth.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	identity, ok := m.users[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *identity
	return &cp, nil
}

func (m *memRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[username]
	return ok, m.err
}

func (m *memRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return true, m.err
		}
	}
	return false, m.err
}

func (m *memRepo) Create(_ context.Context, identity auth.Identity) (*auth.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	identity.ID = m.nextID
	identity.CreatedAt = time.Now()
	identity.UpdatedAt = identity.CreatedAt
	m.users[identity.Username] = &identity
	cp := identity
	return &cp, nil
}

func (m *memRepo) put(t *testing.T, username, password string, isAdmin, isActive bool) *auth.Identity {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	identity := &auth.Identity{
		ID:           m.nextID,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
		IsActive:     isActive,
	}
	m.users[username] = identity
	return identity
}

type countingRecorder struct {
	mu       sync.Mutex
	logins   map[string]int
	rejected map[string]int
}

func newRecorder() *countingRecorder {
	return &countingRecorder{logins: map[string]int{}, rejected: map[string]int{}}
}

func (c *countingRecorder) LoginAttempt(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logins[outcome]++
}

func (c *countingRecorder) TokenRejected(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejected[reason]++
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (r *recordingMailer) EnqueueWelcomeEmail(_ context.Context, to, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, to)
	return r.err
}

var errStoreDown = errors.New("store down")

func newCodec(t *testing.T, opts ...auth.CodecOption) *auth.TokenCodec {
	t.Helper()
	codec, err := auth.NewTokenCodec(testKey, time.Hour, opts...)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	return codec
}
