package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/scan-track-service/internal/domain"
)

// ErrDuplicate signals a unique-constraint violation.
var ErrDuplicate = errors.New("duplicate key")

// OrderRepository encapsulates order persistence. DeleteCascade removes the
// order and every descendant board, scan and comment in a single transaction.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByCode(ctx context.Context, code string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListVisibleToDepartment(ctx context.Context, departmentID string) ([]domain.Order, error)
	DeleteCascade(ctx context.Context, id string) error
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	const query = `
        INSERT INTO orders (code, description, status, created_by)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		order.Code,
		order.Description,
		order.Status,
		order.CreatedBy,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	const query = `
        UPDATE orders SET description=$1, status=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query,
		order.Description,
		order.Status,
		order.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const query = `
        SELECT id, code, description, status, created_by, created_at, updated_at
        FROM orders WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *orderRepository) GetByCode(ctx context.Context, code string) (*domain.Order, error) {
	const query = `
        SELECT id, code, description, status, created_by, created_at, updated_at
        FROM orders WHERE code=$1`
	return r.fetchSingle(ctx, query, code)
}

func (r *orderRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Order, error) {
	var order domain.Order
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&order.ID,
		&order.Code,
		&order.Description,
		&order.Status,
		&order.CreatedBy,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	const query = `
        SELECT id, code, description, status, created_by, created_at, updated_at
        FROM orders ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// ListVisibleToDepartment returns orders containing at least one board added
// by the given department.
func (r *orderRepository) ListVisibleToDepartment(ctx context.Context, departmentID string) ([]domain.Order, error) {
	const query = `
        SELECT o.id, o.code, o.description, o.status, o.created_by, o.created_at, o.updated_at
        FROM orders o
        WHERE EXISTS (
            SELECT 1 FROM boards b
            WHERE b.order_id = o.id AND b.added_by_department_id = $1
        )
        ORDER BY o.created_at DESC`
	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *orderRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	statements := []string{
		`DELETE FROM comments WHERE board_id IN (SELECT id FROM boards WHERE order_id=$1)`,
		`DELETE FROM scans WHERE board_id IN (SELECT id FROM boards WHERE order_id=$1)`,
		`DELETE FROM boards WHERE order_id=$1`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt, id); err != nil {
			return err
		}
	}

	cmd, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

func scanOrders(rows pgx.Rows) ([]domain.Order, error) {
	var result []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.Code,
			&order.Description,
			&order.Status,
			&order.CreatedBy,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
