package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/course-catalog/internal/auth"
)

type authFixture struct {
	router   chi.Router
	repo     *memRepo
	codec    *auth.TokenCodec
	recorder *countingRecorder
	mailer   *recordingMailer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{repo: newMemRepo(), codec: newCodec(t), recorder: newRecorder(), mailer: &recordingMailer{}}
	svc := auth.NewService(f.repo, auth.NewBcryptHasher(bcrypt.MinCost), f.codec)
	handler := auth.NewHandler(quietLogger(), svc, f.mailer, f.recorder)
	r := chi.NewRouter()
	r.Route("/users", handler.MountRoutes)
	handler.MountLoginAlias(r, "/api/users/login")
	f.router = r
	return f
}

func (f *authFixture) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.put(t, "alice", "pw123", false, true)

	for _, path := range []string{"/users/login", "/api/users/login"} {
		rec := f.post(path, `{"username":"alice","password":"pw123"}`)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		claims, err := f.codec.Validate(body["jwt"])
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
	}
	assert.Equal(t, 2, f.recorder.logins["success"])
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.put(t, "alice", "pw123", false, true)
	f.repo.put(t, "carol", "pw123", false, false)

	bodies := []string{
		`{"username":"alice","password":"wrong"}`,
		`{"username":"nobody","password":"pw123"}`,
		`{"username":"carol","password":"pw123"}`,
		`{"username":"","password":"pw123"}`,
		`{"username":"alice"}`,
	}
	var first string
	for _, body := range bodies {
		rec := f.post("/users/login", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, body)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
		assert.NotContains(t, rec.Body.String(), "jwt")
		if first == "" {
			first = rec.Body.String()
		}
		assert.Equal(t, first, rec.Body.String(), "failure bodies must not reveal the cause")
	}
	assert.Equal(t, 1, f.recorder.logins["bad_password"])
	assert.Equal(t, 1, f.recorder.logins["unknown_user"])
	assert.Equal(t, 1, f.recorder.logins["inactive_user"])
	assert.Equal(t, 2, f.recorder.logins["invalid_request"])
}

func TestLoginMalformedJSON(t *testing.T) {
	f := newAuthFixture(t)
	rec := f.post("/users/login", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginStoreFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.err = errStoreDown
	rec := f.post("/users/login", `{"username":"alice","password":"pw123"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, f.recorder.logins["error"])
}

func TestLoginMiddlewareApplied(t *testing.T) {
	repo := newMemRepo()
	svc := auth.NewService(repo, auth.NewBcryptHasher(bcrypt.MinCost), newCodec(t))
	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	handler := auth.NewHandler(quietLogger(), svc, nil, nil).WithLoginMiddleware(blocked)
	r := chi.NewRouter()
	r.Route("/users", handler.MountRoutes)

	req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader(`{"username":"a","password":"b","email":"a@example.com"}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRegisterEndpoint(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.post("/users/register", `{"username":"alice","password":"pw123","email":"alice@example.com","isAdmin":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, false, body["isAdmin"])
	assert.Equal(t, true, body["isActive"])
	assert.NotContains(t, body, "passwordHash")
	assert.NotContains(t, rec.Body.String(), "pw123")
	assert.Equal(t, []string{"alice@example.com"}, f.mailer.sent)

	rec = f.post("/users/register", `{"username":"alice","password":"x","email":"second@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.post("/users/register", `{"username":"bob","password":"x","email":"alice@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.post("/users/register", `{"username":"","password":"x","email":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username"`)
	assert.Contains(t, rec.Body.String(), `"email"`)
}

func TestRegisterSucceedsWhenMailerFails(t *testing.T) {
	f := newAuthFixture(t)
	f.mailer.err = errStoreDown
	rec := f.post("/users/register", `{"username":"dave","password":"pw","email":"dave@example.com"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
