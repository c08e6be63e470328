package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/scan-track-service/internal/authz"
	"github.com/spec-kit/scan-track-service/internal/config"
	"github.com/spec-kit/scan-track-service/internal/domain"
	"github.com/spec-kit/scan-track-service/internal/events"
	"github.com/spec-kit/scan-track-service/internal/repository"
	apperrors "github.com/spec-kit/scan-track-service/pkg/util"
)

// ScanService is the two-step scan sequencer. Each (user, order) pair owns a
// transient pending-board pointer: a board identity scan arms it, the
// following status scan finalizes the board and clears it. Concurrent users
// scanning the same order never share pointers.
type ScanService struct {
	orders     repository.OrderRepository
	boards     repository.BoardRepository
	scans      repository.ScanRepository
	state      repository.ScanStateRepository
	policy     authz.Policy
	passToken  string
	failToken  string
	dispatcher events.Dispatcher
}

// ScanDependencies bundles repositories for the scan service.
type ScanDependencies struct {
	OrderRepo  repository.OrderRepository
	BoardRepo  repository.BoardRepository
	ScanRepo   repository.ScanRepository
	StateRepo  repository.ScanStateRepository
	Dispatcher events.Dispatcher
}

// NewScanService constructs the sequencer.
func NewScanService(deps ScanDependencies, policy authz.Policy, cfg config.ScanConfig) *ScanService {
	return &ScanService{
		orders:     deps.OrderRepo,
		boards:     deps.BoardRepo,
		scans:      deps.ScanRepo,
		state:      deps.StateRepo,
		policy:     policy,
		passToken:  cfg.PassToken,
		failToken:  cfg.FailToken,
		dispatcher: deps.Dispatcher,
	}
}

// ScanBoardCode handles the first step: a board identity scan. On success the
// board becomes the actor's pending board for this order and awaits a status
// scan. Rejections leave the pending pointer untouched.
func (s *ScanService) ScanBoardCode(ctx context.Context, actor Actor, orderID, code string) (*domain.Board, error) {
	if err := authz.Require(actor.User, actor.Department, authz.ActionScanBoard, s.policy); err != nil {
		return nil, err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.NewValidationError("scanned code required", nil)
	}

	order, err := s.getOpenOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if s.isStatusToken(code) {
		return nil, apperrors.NewUnexpectedStatusScan("scan a board barcode before a status barcode")
	}

	pending, err := s.state.GetPending(ctx, actor.User.ID, order.ID)
	if err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	if pending != "" {
		return nil, apperrors.NewUnexpectedStatusScan("a board is already awaiting its status scan")
	}

	board, err := s.boards.GetByOrderAndCode(ctx, order.ID, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnknownBoard(order.ID, code)
		}
		return nil, apperrors.MapError(err)
	}

	// Duplicate prevention is scoped per order: the same code in another
	// order is a different board.
	if _, err := s.scans.GetTerminalByBoard(ctx, board.ID); err == nil {
		return nil, apperrors.NewDuplicateBoardScan(code)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	if err := s.state.SetPending(ctx, actor.User.ID, order.ID, board.ID); err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	return board, nil
}

// ScanStatusCode handles the second step: a pass/fail status scan finalizing
// the actor's pending board. Unrecognized codes are rejected and the pending
// pointer is kept so the rejection is idempotent.
func (s *ScanService) ScanStatusCode(ctx context.Context, actor Actor, orderID, code string) (*domain.Scan, error) {
	if err := authz.Require(actor.User, actor.Department, authz.ActionScanBoard, s.policy); err != nil {
		return nil, err
	}

	order, err := s.getOpenOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	status, ok := s.statusForToken(strings.TrimSpace(code))
	if !ok {
		return nil, apperrors.NewUnexpectedStatusScan("expected a pass or fail status barcode")
	}

	pending, err := s.state.GetPending(ctx, actor.User.ID, order.ID)
	if err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	if pending == "" {
		return nil, apperrors.NewUnexpectedStatusScan("no board is awaiting a status scan")
	}

	board, err := s.boards.GetByID(ctx, pending)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Board vanished, typically an order delete racing this scan.
			s.clearPending(ctx, actor.User.ID, order.ID)
			return nil, apperrors.NewNotFound("board", map[string]any{"board_id": pending})
		}
		return nil, apperrors.MapError(err)
	}

	scan := &domain.Scan{
		BoardID:      board.ID,
		Status:       status,
		ScannedBy:    actor.User.ID,
		DepartmentID: actor.User.DepartmentID,
	}
	if err := s.scans.Finalize(ctx, scan); err != nil {
		switch {
		case errors.Is(err, repository.ErrBoardFinalized):
			s.clearPending(ctx, actor.User.ID, order.ID)
			return nil, apperrors.NewConcurrentModification("board " + board.BoardCode)
		case errors.Is(err, pgx.ErrNoRows):
			// An order delete cascade removed the board after the lookup above.
			s.clearPending(ctx, actor.User.ID, order.ID)
			return nil, apperrors.NewNotFound("board", map[string]any{"board_id": board.ID})
		}
		return nil, apperrors.MapError(err)
	}
	s.clearPending(ctx, actor.User.ID, order.ID)

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventScanFinalized,
		OrderID: order.ID,
		Actor:   actorInfo(actor),
		Payload: events.ScanFinalizedPayload{
			ScanID:    scan.ID,
			BoardID:   board.ID,
			BoardCode: board.BoardCode,
			Status:    scan.Status,
		},
	})
	return scan, nil
}

// PendingBoard reports the actor's pending board for the order, if any.
func (s *ScanService) PendingBoard(ctx context.Context, actor Actor, orderID string) (*domain.Board, error) {
	if actor.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	pending, err := s.state.GetPending(ctx, actor.User.ID, orderID)
	if err != nil {
		return nil, apperrors.NewStorageUnavailable(err)
	}
	if pending == "" {
		return nil, nil
	}
	board, err := s.boards.GetByID(ctx, pending)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	return board, nil
}

// ResetPending drops the actor's own pending pointer for the order, e.g. when
// the operator abandons a half-scanned board.
func (s *ScanService) ResetPending(ctx context.Context, actor Actor, orderID string) error {
	if actor.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := s.state.ClearPending(ctx, actor.User.ID, orderID); err != nil {
		return apperrors.NewStorageUnavailable(err)
	}
	return nil
}

// EditScan overwrites a finalized scan's status and note (manager or admin).
// The original scanner is preserved; the editor is stamped separately. This
// is the only way to change a board's status after finalization.
func (s *ScanService) EditScan(ctx context.Context, actor Actor, scanID string, status domain.ScanStatus, note string) (*domain.Scan, error) {
	if err := authz.Require(actor.User, actor.Department, authz.ActionEditScan, s.policy); err != nil {
		return nil, err
	}
	if !status.IsTerminal() {
		return nil, apperrors.NewValidationError("scan status must be PASS or FAIL", map[string]any{"status": status})
	}

	scan, err := s.getScan(ctx, scanID)
	if err != nil {
		return nil, err
	}

	oldStatus := scan.Status
	now := time.Now()
	scan.Status = status
	scan.Note = strings.TrimSpace(note)
	scan.EditedBy = &actor.User.ID
	scan.EditedAt = &now

	if err := s.scans.Update(ctx, scan); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("scan", map[string]any{"scan_id": scanID})
		}
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:  events.EventScanEdited,
		Actor: actorInfo(actor),
		Payload: events.ScanEditedPayload{
			ScanID:    scan.ID,
			OldStatus: oldStatus,
			NewStatus: scan.Status,
			Note:      scan.Note,
		},
	})
	return scan, nil
}

// DeleteScan removes a scan record (manager or admin). The board reverts to
// awaiting its two-step scan.
func (s *ScanService) DeleteScan(ctx context.Context, actor Actor, scanID string) error {
	if err := authz.Require(actor.User, actor.Department, authz.ActionDeleteScan, s.policy); err != nil {
		return err
	}
	if _, err := s.getScan(ctx, scanID); err != nil {
		return err
	}
	if err := s.scans.Delete(ctx, scanID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("scan", map[string]any{"scan_id": scanID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ListScans returns a board's scan history in chronological order.
func (s *ScanService) ListScans(ctx context.Context, actor Actor, boardID string) ([]domain.Scan, error) {
	if err := authz.Require(actor.User, actor.Department, authz.ActionViewOrders, s.policy); err != nil {
		return nil, err
	}
	if _, err := s.boards.GetByID(ctx, boardID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("board", map[string]any{"board_id": boardID})
		}
		return nil, apperrors.MapError(err)
	}
	scans, err := s.scans.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return scans, nil
}

func (s *ScanService) getOpenOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", map[string]any{"order_id": orderID})
		}
		return nil, apperrors.MapError(err)
	}
	if order.Status != domain.OrderStatusOpen {
		return nil, apperrors.NewOrderClosed(order.ID)
	}
	return order, nil
}

func (s *ScanService) getScan(ctx context.Context, scanID string) (*domain.Scan, error) {
	scan, err := s.scans.GetByID(ctx, scanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("scan", map[string]any{"scan_id": scanID})
		}
		return nil, apperrors.MapError(err)
	}
	return scan, nil
}

func (s *ScanService) isStatusToken(code string) bool {
	_, ok := s.statusForToken(code)
	return ok
}

func (s *ScanService) statusForToken(code string) (domain.ScanStatus, bool) {
	switch code {
	case s.passToken:
		return domain.ScanStatusPass, true
	case s.failToken:
		return domain.ScanStatusFail, true
	}
	return "", false
}

// clearPending drops the pointer best-effort: it expires on its own, and a
// failed clear must not mask the outcome of the scan itself.
func (s *ScanService) clearPending(ctx context.Context, userID, orderID string) {
	_ = s.state.ClearPending(ctx, userID, orderID)
}
