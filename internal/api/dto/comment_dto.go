package dto

import (
	"time"

	"github.com/spec-kit/scan-track-service/internal/domain"
)

// CommentCreateRequest payload for board comments.
type CommentCreateRequest struct {
	Body string `json:"body"`
}

// CommentResponse is the API shape of a board comment.
type CommentResponse struct {
	ID           string    `json:"id"`
	BoardID      string    `json:"board_id"`
	AuthorID     string    `json:"author_id"`
	DepartmentID *string   `json:"department_id,omitempty"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:           comment.ID,
		BoardID:      comment.BoardID,
		AuthorID:     comment.AuthorID,
		DepartmentID: comment.DepartmentID,
		Body:         comment.Body,
		CreatedAt:    comment.CreatedAt,
	}
}

// NewCommentListResponse maps a comment thread.
func NewCommentListResponse(comments []domain.Comment) []CommentResponse {
	result := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		result = append(result, NewCommentResponse(&comments[i]))
	}
	return result
}
