package messages_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/course-catalog/internal/messages"
)

type memRepo struct {
	mu   sync.Mutex
	msgs []messages.Message
}

func (m *memRepo) Create(_ context.Context, msg messages.Message) (*messages.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = int64(len(m.msgs) + 1)
	msg.CreatedAt = time.Now()
	m.msgs = append(m.msgs, msg)
	return &msg, nil
}

func (m *memRepo) List(context.Context) ([]messages.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]messages.Message, 0, len(m.msgs))
	for i := len(m.msgs) - 1; i >= 0; i-- {
		out = append(out, m.msgs[i])
	}
	return out, nil
}

func (m *memRepo) CountSince(_ context.Context, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.msgs {
		if !msg.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type notifier struct {
	refs []string
	err  error
}

func (n *notifier) EnqueueMessageNotification(_ context.Context, _, _, reference string) error {
	n.refs = append(n.refs, reference)
	return n.err
}

func newRouter(repo messages.Repository, n messages.Notifier) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Route("/messages", messages.NewHandler(logger, messages.NewService(repo, n, logger)).MountRoutes)
	return r
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubmitMessage(t *testing.T) {
	repo := &memRepo{}
	n := &notifier{}
	h := newRouter(repo, n)

	rec := post(h, `{"name":" Ada ","email":"ada@example.com","message":"Is Go Basics offered in spring?"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var msg messages.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "Ada", msg.Name)
	assert.NotEmpty(t, msg.Reference.String())
	require.Len(t, n.refs, 1)
	assert.Equal(t, msg.Reference.String(), n.refs[0])
}

func TestSubmitMessageValidation(t *testing.T) {
	h := newRouter(&memRepo{}, nil)

	rec := post(h, `{"name":"","email":"nope","message":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	for _, field := range []string{`"name"`, `"email"`, `"message"`} {
		assert.Contains(t, rec.Body.String(), field)
	}
	assert.Equal(t, http.StatusBadRequest, post(h, `not json`).Code)
}

func TestSubmitSurvivesNotifierFailure(t *testing.T) {
	h := newRouter(&memRepo{}, &notifier{err: errors.New("queue down")})
	rec := post(h, `{"name":"Ada","email":"ada@example.com","message":"hi"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestListMessagesNewestFirst(t *testing.T) {
	repo := &memRepo{}
	h := newRouter(repo, nil)
	for _, name := range []string{"Ada", "Grace", "Linus"} {
		body := `{"name":"` + name + `","email":"x@example.com","message":"hi"}`
		require.Equal(t, http.StatusCreated, post(h, body).Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/messages", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []messages.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 3)
	assert.Equal(t, "Linus", items[0].Name)

	n, err := repo.CountSince(context.Background(), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
