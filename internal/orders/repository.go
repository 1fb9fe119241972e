package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/course-catalog/internal/platform/db"
	"github.com/odyssey-erp/course-catalog/internal/shared"
)

// Repository defines order persistence.
type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	Get(ctx context.Context, id int64) (*Order, error)
	Create(ctx context.Context, order Order) (*Order, error)
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const orderColumns = `o.id, o.user_id, u.username, o.course_id, c.title, o.provider_id, p.name,
       o.order_date, o.price::float8, o.discount::float8, o.currency`

const orderJoins = `JOIN users u ON u.id = o.user_id
JOIN courses c ON c.id = o.course_id
JOIN course_providers p ON p.id = o.provider_id`

// ListByUser returns the user's orders, newest first.
func (r *PGRepository) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+`
FROM orders o
`+orderJoins+`
WHERE o.user_id = $1
ORDER BY o.order_date DESC, o.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *order)
	}
	return out, rows.Err()
}

// Get fetches an order by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+`
FROM orders o
`+orderJoins+`
WHERE o.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, shared.ErrNotFound)
	}
	return order, err
}

// Create stores an order. A second order of the same course by the same
// user is a conflict; unknown users, courses or providers are not found.
func (r *PGRepository) Create(ctx context.Context, order Order) (*Order, error) {
	created, err := scanOrder(r.pool.QueryRow(ctx, `WITH o AS (
    INSERT INTO orders (user_id, course_id, provider_id, order_date, price, discount, currency)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING *
)
SELECT `+orderColumns+`
FROM o
`+orderJoins,
		order.UserID, order.CourseID, order.ProviderID, order.OrderDate, order.Price, order.Discount, order.Currency))
	switch {
	case err == nil:
		return created, nil
	case db.IsUniqueViolation(err):
		return nil, fmt.Errorf("order of course %d: %w", order.CourseID, shared.ErrConflict)
	case db.IsForeignKeyViolation(err):
		return nil, fmt.Errorf("order of course %d: %w", order.CourseID, shared.ErrNotFound)
	default:
		return nil, err
	}
}

// Delete removes an order.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	if err := row.Scan(
		&o.ID, &o.UserID, &o.Username, &o.CourseID, &o.CourseTitle, &o.ProviderID, &o.ProviderName,
		&o.OrderDate, &o.Price, &o.Discount, &o.Currency,
	); err != nil {
		return nil, err
	}
	return &o, nil
}

var _ Repository = (*PGRepository)(nil)
