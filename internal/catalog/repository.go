package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/course-catalog/internal/shared"
)

// Repository defines catalog persistence.
type Repository interface {
	ListCourses(ctx context.Context) ([]Course, error)
	ListVisibleCourses(ctx context.Context) ([]Course, error)
	GetCourse(ctx context.Context, id int64) (*Course, error)
	FindCourseByTitle(ctx context.Context, title string) (*Course, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	ListCoursesByCategory(ctx context.Context, categoryID int64) ([]Course, error)
	ToggleVisibility(ctx context.Context, id int64) (bool, error)
	GetProvider(ctx context.Context, courseID, providerID int64) (*Provider, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectCourses = `SELECT c.id, c.title, c.description, c.keywords, c.difficulty,
       c.start_date, c.end_date, c.ects::float8, c.hours_per_week, c.related_certifications,
       c.is_visible, c.image_path, cat.id, cat.name,
       COALESCE((SELECT json_agg(json_build_object(
                   'id', p.id, 'name', p.name, 'price', p.price::float8,
                   'discount', p.discount::float8, 'currency', p.currency) ORDER BY p.id)
                 FROM course_providers p WHERE p.course_id = c.id), '[]'::json)
FROM courses c
LEFT JOIN categories cat ON cat.id = c.category_id`

// ListCourses returns every course ordered by id.
func (r *PGRepository) ListCourses(ctx context.Context) ([]Course, error) {
	return r.queryCourses(ctx, selectCourses+` ORDER BY c.id`)
}

// ListVisibleCourses returns courses flagged visible.
func (r *PGRepository) ListVisibleCourses(ctx context.Context) ([]Course, error) {
	return r.queryCourses(ctx, selectCourses+` WHERE c.is_visible ORDER BY c.id`)
}

// ListCoursesByCategory returns the courses of one category.
func (r *PGRepository) ListCoursesByCategory(ctx context.Context, categoryID int64) ([]Course, error) {
	return r.queryCourses(ctx, selectCourses+` WHERE c.category_id = $1 ORDER BY c.id`, categoryID)
}

// GetCourse fetches a course by id.
func (r *PGRepository) GetCourse(ctx context.Context, id int64) (*Course, error) {
	return r.queryCourse(ctx, selectCourses+` WHERE c.id = $1`, id)
}

// FindCourseByTitle fetches the first course whose title matches, ignoring case.
func (r *PGRepository) FindCourseByTitle(ctx context.Context, title string) (*Course, error) {
	return r.queryCourse(ctx, selectCourses+` WHERE lower(c.title) = lower($1) ORDER BY c.id LIMIT 1`, title)
}

// GetCategory fetches a category by id.
func (r *PGRepository) GetCategory(ctx context.Context, id int64) (*Category, error) {
	var category Category
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&category.ID, &category.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

// ToggleVisibility flips is_visible and returns the new value.
func (r *PGRepository) ToggleVisibility(ctx context.Context, id int64) (bool, error) {
	var visible bool
	err := r.pool.QueryRow(ctx, `UPDATE courses SET is_visible = NOT is_visible WHERE id = $1 RETURNING is_visible`, id).Scan(&visible)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, shared.ErrNotFound
	}
	return visible, err
}

// GetProvider fetches one provider of a course.
func (r *PGRepository) GetProvider(ctx context.Context, courseID, providerID int64) (*Provider, error) {
	var p Provider
	err := r.pool.QueryRow(ctx, `SELECT id, name, price::float8, discount::float8, currency
FROM course_providers WHERE id = $1 AND course_id = $2`, providerID, courseID).
		Scan(&p.ID, &p.Name, &p.Price, &p.Discount, &p.Currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("provider %d of course %d: %w", providerID, courseID, shared.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) queryCourses(ctx context.Context, sql string, args ...any) ([]Course, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	courses := make([]Course, 0)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}
	return courses, rows.Err()
}

func (r *PGRepository) queryCourse(ctx context.Context, sql string, args ...any) (*Course, error) {
	course, err := scanCourse(r.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return course, nil
}

func scanCourse(row pgx.Row) (*Course, error) {
	var (
		c            Course
		categoryID   *int64
		categoryName *string
		providers    []byte
	)
	if err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Keywords, &c.Difficulty,
		&c.StartDate, &c.EndDate, &c.ECTS, &c.HoursPerWeek, &c.RelatedCertifications,
		&c.IsVisible, &c.ImagePath, &categoryID, &categoryName, &providers,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(providers, &c.Providers); err != nil {
		return nil, fmt.Errorf("decode providers of course %d: %w", c.ID, err)
	}
	if categoryID != nil {
		c.Category = &Category{ID: *categoryID}
		if categoryName != nil {
			c.Category.Name = *categoryName
		}
	}
	return &c, nil
}

var _ Repository = (*PGRepository)(nil)
