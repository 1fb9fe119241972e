package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/odyssey-erp/course-catalog/internal/shared"
)

// Service exposes catalog reads through the cache and admin mutations.
type Service struct {
	repo   Repository
	cache  *Cache
	prices *PriceFormatter
	logger *slog.Logger
}

// NewService constructs the catalog service. cache may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, prices: NewPriceFormatter(language.AmericanEnglish), logger: logger}
}

// WithPriceFormatter replaces the formatter used for provider prices.
func (s *Service) WithPriceFormatter(prices *PriceFormatter) *Service {
	if prices != nil {
		s.prices = prices
	}
	return s
}

// Prices returns the formatter used for provider prices.
func (s *Service) Prices() *PriceFormatter {
	return s.prices
}

func (s *Service) decorate(courses []Course) []Course {
	for i := range courses {
		s.prices.Decorate(&courses[i])
	}
	return courses
}

// Courses returns every course.
func (s *Service) Courses(ctx context.Context) ([]Course, error) {
	var out []Course
	err := s.cache.FetchJSON(ctx, &out, func(ctx context.Context) (any, error) {
		return s.repo.ListCourses(ctx)
	}, "courses", "all")
	return s.decorate(out), err
}

// VisibleCourses returns the courses shown to visitors.
func (s *Service) VisibleCourses(ctx context.Context) ([]Course, error) {
	var out []Course
	err := s.cache.FetchJSON(ctx, &out, func(ctx context.Context) (any, error) {
		return s.repo.ListVisibleCourses(ctx)
	}, "courses", "visible")
	return s.decorate(out), err
}

// Course returns a single course.
func (s *Service) Course(ctx context.Context, id int64) (*Course, error) {
	var out Course
	err := s.cache.FetchJSON(ctx, &out, func(ctx context.Context) (any, error) {
		return s.repo.GetCourse(ctx, id)
	}, "course", strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}
	s.prices.Decorate(&out)
	return &out, nil
}

// SearchByTitle finds a course by its title, ignoring case.
func (s *Service) SearchByTitle(ctx context.Context, query string) (*Course, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", shared.ErrValidation)
	}
	course, err := s.repo.FindCourseByTitle(ctx, query)
	if err != nil {
		return nil, err
	}
	s.prices.Decorate(course)
	return course, nil
}

// CoursesInCategory lists a category's courses; unknown categories are not found.
func (s *Service) CoursesInCategory(ctx context.Context, categoryID int64) ([]Course, error) {
	var out []Course
	err := s.cache.FetchJSON(ctx, &out, func(ctx context.Context) (any, error) {
		if _, err := s.repo.GetCategory(ctx, categoryID); err != nil {
			return nil, err
		}
		return s.repo.ListCoursesByCategory(ctx, categoryID)
	}, "category", strconv.FormatInt(categoryID, 10))
	return s.decorate(out), err
}

// Provider returns one provider of a course with its computed prices.
func (s *Service) Provider(ctx context.Context, courseID, providerID int64) (*Provider, error) {
	provider, err := s.repo.GetProvider(ctx, courseID, providerID)
	if err != nil {
		return nil, err
	}
	s.prices.DecorateProvider(provider)
	return provider, nil
}

// ToggleVisibility flips a course between visible and hidden.
func (s *Service) ToggleVisibility(ctx context.Context, id int64) (bool, error) {
	visible, err := s.repo.ToggleVisibility(ctx, id)
	if err != nil {
		return false, err
	}
	s.invalidate(ctx)
	return visible, nil
}

// ImagePath returns the public path of a course image.
func (s *Service) ImagePath(ctx context.Context, id int64) (string, error) {
	course, err := s.Course(ctx, id)
	if err != nil {
		return "", err
	}
	if course.ImagePath == nil || *course.ImagePath == "" {
		return "", fmt.Errorf("course %d image: %w", id, shared.ErrNotFound)
	}
	return ImageURLPrefix + *course.ImagePath, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("catalog cache bump", slog.Any("error", err))
	}
}
