package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/scan-track-service/internal/domain"
)

// ErrBoardFinalized signals that a terminal scan already exists for the board.
var ErrBoardFinalized = errors.New("board already has a terminal scan")

// ScanRepository encapsulates scan persistence. Finalize is an atomic
// compare-and-write keyed by board id: the insert only succeeds while the
// board has no terminal scan, so two racing finalizers cannot both win.
type ScanRepository interface {
	Finalize(ctx context.Context, scan *domain.Scan) error
	Update(ctx context.Context, scan *domain.Scan) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Scan, error)
	GetTerminalByBoard(ctx context.Context, boardID string) (*domain.Scan, error)
	ListByBoard(ctx context.Context, boardID string) ([]domain.Scan, error)
}

type scanRepository struct {
	pool *pgxpool.Pool
}

// NewScanRepository instantiates repository.
func NewScanRepository(pool *pgxpool.Pool) ScanRepository {
	return &scanRepository{pool: pool}
}

func (r *scanRepository) Finalize(ctx context.Context, scan *domain.Scan) error {
	const query = `
        INSERT INTO scans (board_id, status, note, scanned_by_user_id, scanned_by_department_id)
        SELECT $1,$2,$3,$4,$5
        WHERE NOT EXISTS (
            SELECT 1 FROM scans WHERE board_id=$1 AND status IN ('PASS','FAIL')
        )
        RETURNING id, scanned_at`
	err := r.pool.QueryRow(ctx, query,
		scan.BoardID,
		scan.Status,
		scan.Note,
		scan.ScannedBy,
		scan.DepartmentID,
	).Scan(&scan.ID, &scan.ScannedAt)
	if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
		return ErrBoardFinalized
	}
	// A board_id FK violation means the board was deleted (an order cascade
	// committed between the caller's lookup and this insert).
	if isForeignKeyViolation(err) {
		return pgx.ErrNoRows
	}
	return err
}

func (r *scanRepository) Update(ctx context.Context, scan *domain.Scan) error {
	const query = `
        UPDATE scans SET status=$1, note=$2, edited_by_user_id=$3, edited_at=$4
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		scan.Status,
		scan.Note,
		scan.EditedBy,
		scan.EditedAt,
		scan.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *scanRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM scans WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *scanRepository) GetByID(ctx context.Context, id string) (*domain.Scan, error) {
	const query = `
        SELECT id, board_id, status, note, scanned_by_user_id, scanned_by_department_id,
               scanned_at, edited_by_user_id, edited_at
        FROM scans WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

// GetTerminalByBoard returns the terminal (PASS/FAIL) scan for the board, or
// pgx.ErrNoRows when the board has none.
func (r *scanRepository) GetTerminalByBoard(ctx context.Context, boardID string) (*domain.Scan, error) {
	const query = `
        SELECT id, board_id, status, note, scanned_by_user_id, scanned_by_department_id,
               scanned_at, edited_by_user_id, edited_at
        FROM scans WHERE board_id=$1 AND status IN ('PASS','FAIL')`
	return r.fetchSingle(ctx, query, boardID)
}

func (r *scanRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Scan, error) {
	var scan domain.Scan
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&scan.ID,
		&scan.BoardID,
		&scan.Status,
		&scan.Note,
		&scan.ScannedBy,
		&scan.DepartmentID,
		&scan.ScannedAt,
		&scan.EditedBy,
		&scan.EditedAt,
	); err != nil {
		return nil, err
	}
	return &scan, nil
}

func (r *scanRepository) ListByBoard(ctx context.Context, boardID string) ([]domain.Scan, error) {
	const query = `
        SELECT id, board_id, status, note, scanned_by_user_id, scanned_by_department_id,
               scanned_at, edited_by_user_id, edited_at
        FROM scans WHERE board_id=$1 ORDER BY scanned_at`
	rows, err := r.pool.Query(ctx, query, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Scan
	for rows.Next() {
		var scan domain.Scan
		if err := rows.Scan(
			&scan.ID,
			&scan.BoardID,
			&scan.Status,
			&scan.Note,
			&scan.ScannedBy,
			&scan.DepartmentID,
			&scan.ScannedAt,
			&scan.EditedBy,
			&scan.EditedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, scan)
	}
	return result, rows.Err()
}
