package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/scan-track-service/internal/domain"
)

// BoardRepository encapsulates board persistence. Board codes are unique per
// order, not globally.
type BoardRepository interface {
	Create(ctx context.Context, board *domain.Board) error
	GetByID(ctx context.Context, id string) (*domain.Board, error)
	GetByOrderAndCode(ctx context.Context, orderID, boardCode string) (*domain.Board, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.Board, error)
}

type boardRepository struct {
	pool *pgxpool.Pool
}

// NewBoardRepository instantiates repository.
func NewBoardRepository(pool *pgxpool.Pool) BoardRepository {
	return &boardRepository{pool: pool}
}

func (r *boardRepository) Create(ctx context.Context, board *domain.Board) error {
	const query = `
        INSERT INTO boards (order_id, board_code, description, added_by_user_id, added_by_department_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		board.OrderID,
		board.BoardCode,
		board.Description,
		board.AddedByUser,
		board.DepartmentID,
	).Scan(&board.ID, &board.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *boardRepository) GetByID(ctx context.Context, id string) (*domain.Board, error) {
	const query = `
        SELECT id, order_id, board_code, description, added_by_user_id, added_by_department_id, created_at
        FROM boards WHERE id=$1`
	var board domain.Board
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&board.ID,
		&board.OrderID,
		&board.BoardCode,
		&board.Description,
		&board.AddedByUser,
		&board.DepartmentID,
		&board.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *boardRepository) GetByOrderAndCode(ctx context.Context, orderID, boardCode string) (*domain.Board, error) {
	const query = `
        SELECT id, order_id, board_code, description, added_by_user_id, added_by_department_id, created_at
        FROM boards WHERE order_id=$1 AND board_code=$2`
	var board domain.Board
	if err := r.pool.QueryRow(ctx, query, orderID, boardCode).Scan(
		&board.ID,
		&board.OrderID,
		&board.BoardCode,
		&board.Description,
		&board.AddedByUser,
		&board.DepartmentID,
		&board.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *boardRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Board, error) {
	const query = `
        SELECT id, order_id, board_code, description, added_by_user_id, added_by_department_id, created_at
        FROM boards WHERE order_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Board
	for rows.Next() {
		var board domain.Board
		if err := rows.Scan(
			&board.ID,
			&board.OrderID,
			&board.BoardCode,
			&board.Description,
			&board.AddedByUser,
			&board.DepartmentID,
			&board.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, board)
	}
	return result, rows.Err()
}
