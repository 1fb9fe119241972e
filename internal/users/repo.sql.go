package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/course-catalog/internal/platform/db"
	"github.com/odyssey-erp/course-catalog/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, username, email, is_admin, is_active, created_at`

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]User, 0)
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.IsAdmin, &user.IsActive, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches a user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (*User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetUserByUsername fetches a user by exact username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *Repository) getUser(ctx context.Context, sql string, arg any) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, sql, arg).Scan(&user.ID, &user.Username, &user.Email, &user.IsAdmin, &user.IsActive, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListFavorites returns the user's saved courses, oldest first.
func (r *Repository) ListFavorites(ctx context.Context, userID int64) ([]Favorite, error) {
	rows, err := r.pool.Query(ctx, `SELECT f.id, c.id, c.title
FROM favorite_courses f
JOIN courses c ON c.id = f.course_id
WHERE f.user_id = $1
ORDER BY f.created_at, f.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	favorites := make([]Favorite, 0)
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.CourseID, &f.CourseTitle); err != nil {
			return nil, err
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

// AddFavorite saves a course for the user. Duplicates are conflicts and
// unknown courses are not found.
func (r *Repository) AddFavorite(ctx context.Context, userID, courseID int64) (*Favorite, error) {
	var f Favorite
	err := r.pool.QueryRow(ctx, `WITH inserted AS (
    INSERT INTO favorite_courses (user_id, course_id) VALUES ($1, $2) RETURNING id, course_id
)
SELECT inserted.id, c.id, c.title FROM inserted JOIN courses c ON c.id = inserted.course_id`, userID, courseID).
		Scan(&f.ID, &f.CourseID, &f.CourseTitle)
	switch {
	case err == nil:
		return &f, nil
	case db.IsUniqueViolation(err):
		return nil, fmt.Errorf("favorite course %d: %w", courseID, shared.ErrConflict)
	case db.IsForeignKeyViolation(err):
		return nil, fmt.Errorf("course %d: %w", courseID, shared.ErrNotFound)
	default:
		return nil, err
	}
}

// RemoveFavorite deletes a saved course.
func (r *Repository) RemoveFavorite(ctx context.Context, userID, courseID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM favorite_courses WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("favorite course %d: %w", courseID, shared.ErrNotFound)
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
