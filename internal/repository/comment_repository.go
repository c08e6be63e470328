package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/scan-track-service/internal/domain"
)

// CommentRepository encapsulates board comment persistence.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByBoard(ctx context.Context, boardID string) ([]domain.Comment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository instantiates repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (board_id, author_user_id, department_id, body)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.BoardID,
		comment.AuthorID,
		comment.DepartmentID,
		comment.Body,
	).Scan(&comment.ID, &comment.CreatedAt)
}

// ListByBoard returns comments in chronological order.
func (r *commentRepository) ListByBoard(ctx context.Context, boardID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, board_id, author_user_id, department_id, body, created_at
        FROM comments WHERE board_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.BoardID,
			&comment.AuthorID,
			&comment.DepartmentID,
			&comment.Body,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
