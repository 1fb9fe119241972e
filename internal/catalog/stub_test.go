package catalog

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/course-catalog/internal/shared"
)

type memRepo struct {
	mu         sync.Mutex
	courses    map[int64]*Course
	categories map[int64]*Category
	calls      map[string]int
}

func newMemRepo() *memRepo {
	programming := &Category{ID: 1, Name: "Programming"}
	ects := 7.5
	return &memRepo{
		categories: map[int64]*Category{1: programming, 2: {ID: 2, Name: "Empty"}},
		courses: map[int64]*Course{
			1: {ID: 1, Title: "Go Basics", IsVisible: true, ECTS: &ects, Category: programming, Providers: []Provider{
				{ID: 10, Name: "Coursera", Price: 1200, Discount: 10, Currency: "USD"},
				{ID: 11, Name: "Local School", Price: 49.5, Currency: "zzz"},
			}},
			2: {ID: 2, Title: "Hidden Course", IsVisible: false, Category: programming},
		},
		calls: map[string]int{},
	}
}

func (m *memRepo) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *memRepo) ListCourses(context.Context) ([]Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["list"]++
	out := make([]Course, 0, len(m.courses))
	for id := int64(1); id <= int64(len(m.courses)); id++ {
		if c, ok := m.courses[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memRepo) ListVisibleCourses(ctx context.Context) ([]Course, error) {
	all, _ := m.ListCourses(ctx)
	out := make([]Course, 0, len(all))
	for _, c := range all {
		if c.IsVisible {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) GetCourse(_ context.Context, id int64) (*Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["get"]++
	c, ok := m.courses[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) FindCourseByTitle(_ context.Context, title string) (*Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.courses {
		if strings.EqualFold(c.Title, title) {
			cp := *c
			cp.Providers = append([]Provider(nil), c.Providers...)
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) GetCategory(_ context.Context, id int64) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (m *memRepo) ListCoursesByCategory(ctx context.Context, categoryID int64) ([]Course, error) {
	all, _ := m.ListCourses(ctx)
	out := make([]Course, 0)
	for _, c := range all {
		if c.Category != nil && c.Category.ID == categoryID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) ToggleVisibility(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	c.IsVisible = !c.IsVisible
	return c.IsVisible, nil
}

func (m *memRepo) GetProvider(_ context.Context, courseID, providerID int64) (*Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[courseID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	for _, p := range c.Providers {
		if p.ID == providerID {
			cp := p
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

type hitCounter struct {
	mu           sync.Mutex
	hits, misses int
}

func (h *hitCounter) CacheLookup(hit bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hit {
		h.hits++
	} else {
		h.misses++
	}
}

func newTestCache(t *testing.T, recorder CacheRecorder) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute, nil, recorder), mr
}
