package messages

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines message persistence.
type Repository interface {
	Create(ctx context.Context, msg Message) (*Message, error)
	List(ctx context.Context) ([]Message, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create stores a message and returns it with id and timestamp.
func (r *PGRepository) Create(ctx context.Context, msg Message) (*Message, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO messages (reference, name, email, message)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`, msg.Reference, msg.Name, msg.Email, msg.Message).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// List returns messages newest first.
func (r *PGRepository) List(ctx context.Context) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, reference, name, email, message, created_at
FROM messages ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Reference, &m.Name, &m.Email, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountSince counts messages created at or after since.
func (r *PGRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM messages WHERE created_at >= $1`, since).Scan(&n)
	return n, err
}

var _ Repository = (*PGRepository)(nil)
