package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/course-catalog/internal/platform/db"
	"github.com/odyssey-erp/course-catalog/internal/shared"
)

// IdentityFinder loads identities by exact username.
type IdentityFinder interface {
	FindByUsername(ctx context.Context, username string) (*Identity, error)
}

// Repository defines persistence operations for auth module.
type Repository interface {
	IdentityFinder
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, identity Identity) (*Identity, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const identityColumns = `id, username, email, password_hash, is_admin, is_active, created_at, updated_at`

// FindByUsername fetches a user by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*Identity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM users WHERE username = $1`, username)
	identity, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return identity, nil
}

// ExistsByUsername reports whether the username is taken.
func (r *PGRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

// ExistsByEmail reports whether the email is taken.
func (r *PGRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`, email).Scan(&exists)
	return exists, err
}

// Create inserts the identity and returns the stored row.
func (r *PGRepository) Create(ctx context.Context, identity Identity) (*Identity, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO users (username, email, password_hash, is_admin, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+identityColumns,
		identity.Username, identity.Email, identity.PasswordHash, identity.IsAdmin, identity.IsActive)
	created, err := scanIdentity(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("create user: %w", shared.ErrConflict)
		}
		return nil, err
	}
	return created, nil
}

func scanIdentity(row pgx.Row) (*Identity, error) {
	var identity Identity
	if err := row.Scan(
		&identity.ID,
		&identity.Username,
		&identity.Email,
		&identity.PasswordHash,
		&identity.IsAdmin,
		&identity.IsActive,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &identity, nil
}

var _ Repository = (*PGRepository)(nil)
