package orders_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/course-catalog/internal/catalog"
	"github.com/odyssey-erp/course-catalog/internal/orders"
	"github.com/odyssey-erp/course-catalog/internal/shared"
)

type orderFixture struct {
	router http.Handler
	users  *memUsers
	repo   *memRepo
}

func newOrderFixture() *orderFixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	accounts := newMemUsers()
	repo := newMemRepo()
	svc := orders.NewService(repo, accounts, newMemProviders(), catalog.NewPriceFormatter(language.AmericanEnglish), logger).
		WithClock(fixedClock)
	r := chi.NewRouter()
	r.Route("/orders", orders.NewHandler(logger, svc).MountRoutes)
	return &orderFixture{router: r, users: accounts, repo: repo}
}

func (f *orderFixture) call(method, path, body string, principal *shared.Principal) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if principal != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestOrderLifecycle(t *testing.T) {
	f := newOrderFixture()

	assert.Equal(t, http.StatusNoContent, f.call(http.MethodGet, "/orders/alice", "", alice).Code)

	rec := f.call(http.MethodPost, "/orders/alice", `{"courseId":10,"providerId":100}`, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var placed orders.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))
	assert.Equal(t, int64(1), placed.UserID)
	assert.Equal(t, 200.0, placed.Price)
	assert.Equal(t, 25.0, placed.Discount)
	assert.Equal(t, 150.0, placed.Total)
	assert.Equal(t, "USD 150.00", placed.DisplayTotal)
	assert.Equal(t, "2026-03-14", placed.Date)

	rec = f.call(http.MethodPost, "/orders/alice", `{"courseId":11,"providerId":110,"orderDate":"2026-01-02"}`, alice)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.call(http.MethodGet, "/orders/alice", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []orders.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "2026-03-14", list[0].Date)
	assert.Equal(t, "2026-01-02", list[1].Date)
	assert.Equal(t, "EUR 80.00", list[1].DisplayTotal)

	assert.Equal(t, http.StatusConflict, f.call(http.MethodPost, "/orders/alice", `{"courseId":10,"providerId":100}`, alice).Code)

	assert.Equal(t, http.StatusNoContent, f.call(http.MethodDelete, "/orders/1", "", alice).Code)
	assert.Equal(t, http.StatusNotFound, f.call(http.MethodDelete, "/orders/1", "", alice).Code)
}

func TestPlaceOrderRejectsBadInput(t *testing.T) {
	f := newOrderFixture()

	assert.Equal(t, http.StatusBadRequest, f.call(http.MethodPost, "/orders/alice", `{`, alice).Code)
	assert.Equal(t, http.StatusBadRequest, f.call(http.MethodPost, "/orders/alice", `{"providerId":100}`, alice).Code)
	assert.Equal(t, http.StatusBadRequest, f.call(http.MethodPost, "/orders/alice", `{"courseId":10,"providerId":100,"orderDate":"14/03/2026"}`, alice).Code)
	assert.Equal(t, http.StatusNotFound, f.call(http.MethodPost, "/orders/alice", `{"courseId":10,"providerId":110}`, alice).Code,
		"provider must belong to the course")
	assert.Equal(t, http.StatusNotFound, f.call(http.MethodPost, "/orders/ghost", `{"courseId":10,"providerId":100}`, admin).Code)
}

func TestOrdersOwnership(t *testing.T) {
	f := newOrderFixture()
	require.Equal(t, http.StatusCreated, f.call(http.MethodPost, "/orders/alice", `{"courseId":10,"providerId":100}`, alice).Code)

	assert.Equal(t, http.StatusForbidden, f.call(http.MethodGet, "/orders/alice", "", bob).Code)
	assert.Equal(t, http.StatusForbidden, f.call(http.MethodPost, "/orders/alice", `{"courseId":11,"providerId":110}`, bob).Code)
	assert.Equal(t, http.StatusForbidden, f.call(http.MethodGet, "/orders/ghost", "", bob).Code)
	assert.Equal(t, 1, f.users.lookups, "non-owners are refused before any user lookup")
	assert.Equal(t, http.StatusForbidden, f.call(http.MethodGet, "/orders/alice", "", nil).Code)

	assert.Equal(t, http.StatusNotFound, f.call(http.MethodDelete, "/orders/1", "", bob).Code,
		"another user's order is reported as missing")
	assert.Equal(t, http.StatusOK, f.call(http.MethodGet, "/orders/alice", "", admin).Code)
	assert.Equal(t, http.StatusNoContent, f.call(http.MethodDelete, "/orders/1", "", admin).Code)

	assert.Equal(t, http.StatusBadRequest, f.call(http.MethodDelete, "/orders/abc", "", admin).Code)
}
