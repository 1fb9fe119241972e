package catalog

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	router http.Handler
	repo   *memRepo
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	cache, _ := newTestCache(t, nil)
	repo := newMemRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, cache, logger)
	r := chi.NewRouter()
	r.Route("/courses", NewHandler(logger, svc).MountRoutes)
	return &catalogFixture{router: r, repo: repo}
}

func (f *catalogFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *catalogFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	return f.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestListAndShowCourses(t *testing.T) {
	f := newCatalogFixture(t)

	rec := f.get(t, "/courses")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]Course](t, rec), 2)

	rec = f.get(t, "/courses/visible")
	require.Equal(t, http.StatusOK, rec.Code)
	visible := decode[[]Course](t, rec)
	require.Len(t, visible, 1)
	assert.Equal(t, "Go Basics", visible[0].Title)

	rec = f.get(t, "/courses/1")
	require.Equal(t, http.StatusOK, rec.Code)
	course := decode[Course](t, rec)
	assert.Equal(t, "Programming", course.Category.Name)
	require.NotNil(t, course.ECTS)
	assert.Equal(t, 7.5, *course.ECTS)

	assert.Equal(t, http.StatusNotFound, f.get(t, "/courses/99").Code)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/courses/abc").Code)
}

func TestCourseReadsAreCached(t *testing.T) {
	f := newCatalogFixture(t)
	require.Equal(t, http.StatusOK, f.get(t, "/courses/1").Code)
	require.Equal(t, http.StatusOK, f.get(t, "/courses/1").Code)
	assert.Equal(t, 1, f.repo.count("get"))
}

func TestSearchByTitle(t *testing.T) {
	f := newCatalogFixture(t)

	rec := f.get(t, "/courses/search?query=go%20basics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[Course](t, rec).ID)

	assert.Equal(t, http.StatusNotFound, f.get(t, "/courses/search?query=rust").Code)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/courses/search").Code)
}

func TestCoursesByCategory(t *testing.T) {
	f := newCatalogFixture(t)

	rec := f.get(t, "/courses/category/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]Course](t, rec), 2)

	rec = f.get(t, "/courses/category/2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]Course](t, rec))

	assert.Equal(t, http.StatusNotFound, f.get(t, "/courses/category/9").Code)
}

func TestToggleVisibilityInvalidatesCache(t *testing.T) {
	f := newCatalogFixture(t)
	require.Len(t, decode[[]Course](t, f.get(t, "/courses/visible")), 1)

	rec := f.do(t, httptest.NewRequest(http.MethodPatch, "/courses/toggle_visibility/2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[visibilityResponse](t, rec).IsVisible)

	assert.Len(t, decode[[]Course](t, f.get(t, "/courses/visible")), 2)
	assert.Equal(t, http.StatusNotFound, f.do(t, httptest.NewRequest(http.MethodPatch, "/courses/toggle_visibility/42", nil)).Code)
}

func TestCourseImagePath(t *testing.T) {
	f := newCatalogFixture(t)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/courses/1/image").Code)

	name := "3f2a.png"
	f.repo.mu.Lock()
	f.repo.courses[2].ImagePath = &name
	f.repo.mu.Unlock()

	rec := f.get(t, "/courses/2/image")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ImageURLPrefix+name, decode[imageResponse](t, rec).ImagePath)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/courses/77/image").Code)
}

func TestCourseCarriesProviderPrices(t *testing.T) {
	f := newCatalogFixture(t)

	rec := f.get(t, "/courses/1")
	require.Equal(t, http.StatusOK, rec.Code)
	course := decode[Course](t, rec)
	require.Len(t, course.Providers, 2)

	coursera := course.Providers[0]
	assert.Equal(t, "Coursera", coursera.Name)
	assert.Equal(t, 1080.0, coursera.DiscountedPrice)
	assert.Equal(t, "USD 1,200.00", coursera.DisplayPrice)
	assert.Equal(t, "USD 1,080.00", coursera.DisplayDiscountedPrice)

	unknown := course.Providers[1]
	assert.Equal(t, 49.5, unknown.DiscountedPrice)
	assert.Empty(t, unknown.DisplayPrice)

	rec = f.get(t, "/courses/search?query=go%20basics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "USD 1,200.00", decode[Course](t, rec).Providers[0].DisplayPrice)
}
