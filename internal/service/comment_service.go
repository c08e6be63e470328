package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/scan-track-service/internal/authz"
	"github.com/spec-kit/scan-track-service/internal/domain"
	"github.com/spec-kit/scan-track-service/internal/events"
	"github.com/spec-kit/scan-track-service/internal/repository"
	apperrors "github.com/spec-kit/scan-track-service/pkg/util"
)

// CommentService manages board-scoped annotations. Authoring is restricted to
// the designated comment-capable departments; the designation is policy, so a
// later policy change never invalidates existing comments.
type CommentService struct {
	boards     repository.BoardRepository
	comments   repository.CommentRepository
	policy     authz.Policy
	dispatcher events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(boards repository.BoardRepository, comments repository.CommentRepository, policy authz.Policy, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{
		boards:     boards,
		comments:   comments,
		policy:     policy,
		dispatcher: dispatcher,
	}
}

// AddComment appends a comment to a board.
func (s *CommentService) AddComment(ctx context.Context, actor Actor, boardID, body string) (*domain.Comment, error) {
	if err := authz.Require(actor.User, actor.Department, authz.ActionAddComment, s.policy); err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewEmptyComment()
	}

	board, err := s.getBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		BoardID:      board.ID,
		AuthorID:     actor.User.ID,
		DepartmentID: actor.User.DepartmentID,
		Body:         body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventCommentAdded,
		OrderID: board.OrderID,
		Actor:   actorInfo(actor),
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			BoardID:     board.ID,
			BodyPreview: stringPreview(body, 120),
		},
	})
	return comment, nil
}

// ListComments returns a board's comments as a chronological thread.
func (s *CommentService) ListComments(ctx context.Context, actor Actor, boardID string) ([]domain.Comment, error) {
	if actor.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if _, err := s.getBoard(ctx, boardID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

func (s *CommentService) getBoard(ctx context.Context, boardID string) (*domain.Board, error) {
	board, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("board", map[string]any{"board_id": boardID})
		}
		return nil, apperrors.MapError(err)
	}
	return board, nil
}

func stringPreview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
