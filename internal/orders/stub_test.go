package orders_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/course-catalog/internal/catalog"
	"github.com/odyssey-erp/course-catalog/internal/orders"
	"github.com/odyssey-erp/course-catalog/internal/shared"
	"github.com/odyssey-erp/course-catalog/internal/users"
)

var (
	alice = shared.NewPrincipal("alice", false, true)
	bob   = shared.NewPrincipal("bob", false, true)
	admin = shared.NewPrincipal("root", true, true)
)

type memUsers struct {
	mu      sync.Mutex
	users   []users.User
	lookups int
}

func newMemUsers() *memUsers {
	return &memUsers{users: []users.User{
		{ID: 1, Username: "alice", IsActive: true},
		{ID: 2, Username: "bob", IsActive: true},
	}}
}

func (m *memUsers) GetUserByUsername(_ context.Context, username string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, shared.ErrNotFound
}

type memProviders map[int64][]catalog.Provider

func (m memProviders) Provider(_ context.Context, courseID, providerID int64) (*catalog.Provider, error) {
	for _, p := range m[courseID] {
		if p.ID == providerID {
			cp := p
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func newMemProviders() memProviders {
	return memProviders{
		10: {{ID: 100, Name: "Coursera", Price: 200, Discount: 25, Currency: "USD"}},
		11: {{ID: 110, Name: "Local School", Price: 80, Currency: "EUR"}},
	}
}

type memRepo struct {
	mu     sync.Mutex
	next   int64
	orders map[int64]orders.Order
	names  map[int64]string
}

func newMemRepo() *memRepo {
	return &memRepo{orders: map[int64]orders.Order{}, names: map[int64]string{1: "alice", 2: "bob"}}
}

func (m *memRepo) ListByUser(_ context.Context, userID int64) ([]orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]orders.Order, 0)
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id int64) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &o, nil
}

func (m *memRepo) Create(_ context.Context, order orders.Order) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.UserID == order.UserID && o.CourseID == order.CourseID {
			return nil, shared.ErrConflict
		}
	}
	m.next++
	order.ID = m.next
	order.Username = m.names[order.UserID]
	m.orders[order.ID] = order
	return &order, nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
}
