package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/course-catalog/internal/catalog"
	"github.com/odyssey-erp/course-catalog/internal/shared"
	"github.com/odyssey-erp/course-catalog/internal/users"
)

// UserFinder resolves the account an order belongs to.
type UserFinder interface {
	GetUserByUsername(ctx context.Context, username string) (*users.User, error)
}

// ProviderFinder quotes a course provider.
type ProviderFinder interface {
	Provider(ctx context.Context, courseID, providerID int64) (*catalog.Provider, error)
}

// Service places, lists and cancels orders.
type Service struct {
	repo      Repository
	users     UserFinder
	providers ProviderFinder
	prices    *catalog.PriceFormatter
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the order service.
func NewService(repo Repository, users UserFinder, providers ProviderFinder, prices *catalog.PriceFormatter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, users: users, providers: providers, prices: prices, logger: logger, now: time.Now}
}

// WithClock overrides the clock used for default order dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// List returns the orders of username.
func (s *Service) List(ctx context.Context, actor *shared.Principal, username string) ([]Order, error) {
	user, err := s.ownedUser(ctx, actor, username)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		s.present(&orders[i])
	}
	return orders, nil
}

// Place orders a course for username at the chosen provider's current price.
func (s *Service) Place(ctx context.Context, actor *shared.Principal, username string, in PlaceInput) (*Order, error) {
	user, err := s.ownedUser(ctx, actor, username)
	if err != nil {
		return nil, err
	}
	date := s.now().UTC().Truncate(24 * time.Hour)
	if in.OrderDate != "" {
		date, err = time.Parse(DateLayout, in.OrderDate)
		if err != nil {
			return nil, fmt.Errorf("%w: orderDate must be YYYY-MM-DD", shared.ErrValidation)
		}
	}
	provider, err := s.providers.Provider(ctx, in.CourseID, in.ProviderID)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.Create(ctx, Order{
		UserID:     user.ID,
		CourseID:   in.CourseID,
		ProviderID: provider.ID,
		OrderDate:  date,
		Price:      provider.Price,
		Discount:   provider.Discount,
		Currency:   provider.Currency,
	})
	if err != nil {
		return nil, err
	}
	s.present(order)
	return order, nil
}

// Cancel deletes an order. Orders of other users are reported as missing
// unless actor is an admin.
func (s *Service) Cancel(ctx context.Context, actor *shared.Principal, id int64) error {
	if actor == nil {
		return shared.ErrForbidden
	}
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if order.Username != actor.Username && !actor.IsAdmin() {
		return fmt.Errorf("order %d: %w", id, shared.ErrNotFound)
	}
	return s.repo.Delete(ctx, id)
}

// ownedUser loads username when actor is that user or an admin. The
// permission check runs first so non-owners cannot learn which usernames exist.
func (s *Service) ownedUser(ctx context.Context, actor *shared.Principal, username string) (*users.User, error) {
	if actor == nil || (actor.Username != username && !actor.IsAdmin()) {
		return nil, shared.ErrForbidden
	}
	return s.users.GetUserByUsername(ctx, username)
}

func (s *Service) present(o *Order) {
	o.Date = o.OrderDate.Format(DateLayout)
	o.Total = catalog.DiscountedPrice(o.Price, o.Discount)
	o.DisplayTotal = ""
	if s.prices == nil {
		return
	}
	if text, err := s.prices.Format(o.Total, o.Currency); err == nil {
		o.DisplayTotal = text
	}
}
