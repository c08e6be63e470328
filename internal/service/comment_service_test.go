package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/scan-track-service/internal/authz"
	"github.com/spec-kit/scan-track-service/internal/domain"
)

type commentFixture struct {
	boards  *memBoardRepo
	service *CommentService
	board   *domain.Board
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	boards := newMemBoardRepo()
	policy := authz.NewPolicy([]string{"Quality", "Test"})
	svc := NewCommentService(boards, newMemCommentRepo(), policy, nil)

	board := &domain.Board{OrderID: "order-1", BoardCode: "BRD-7", AddedByUser: "op-1"}
	require.NoError(t, boards.Create(context.Background(), board))
	return &commentFixture{boards: boards, service: svc, board: board}
}

func qualityDept() *domain.Department {
	return &domain.Department{ID: "dept-q", Name: "Quality", Visibility: domain.VisibilityOwnOrdersOnly}
}

func TestAddCommentFromDesignatedDepartment(t *testing.T) {
	f := newCommentFixture(t)
	author := operatorActor("op-q", qualityDept())

	comment, err := f.service.AddComment(context.Background(), author, f.board.ID, "solder bridge near J3")
	require.NoError(t, err)
	assert.Equal(t, "op-q", comment.AuthorID)
	require.NotNil(t, comment.DepartmentID)
	assert.Equal(t, "dept-q", *comment.DepartmentID)
}

func TestAddCommentDeniedOutsideDesignatedDepartments(t *testing.T) {
	f := newCommentFixture(t)
	assembly := &domain.Department{ID: "dept-a", Name: "Assembly", Visibility: domain.VisibilityOwnOrdersOnly}

	_, err := f.service.AddComment(context.Background(), operatorActor("op-a", assembly), f.board.ID, "note")
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestEmptyCommentIsRejected(t *testing.T) {
	f := newCommentFixture(t)
	author := operatorActor("op-q", qualityDept())

	_, err := f.service.AddComment(context.Background(), author, f.board.ID, "   \t ")
	assert.Equal(t, "EMPTY_COMMENT", errorCode(t, err))
}

func TestCommentOnUnknownBoardIsNotFound(t *testing.T) {
	f := newCommentFixture(t)
	author := operatorActor("op-q", qualityDept())

	_, err := f.service.AddComment(context.Background(), author, "missing-board", "note")
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))
}

func TestCommentsListChronologically(t *testing.T) {
	f := newCommentFixture(t)
	author := operatorActor("op-q", qualityDept())
	ctx := context.Background()

	for _, body := range []string{"first", "second", "third"} {
		_, err := f.service.AddComment(ctx, author, f.board.ID, body)
		require.NoError(t, err)
	}

	comments, err := f.service.ListComments(ctx, author, f.board.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Body)
	assert.Equal(t, "third", comments[2].Body)
}

func TestAdminMayCommentWithoutDepartment(t *testing.T) {
	f := newCommentFixture(t)

	comment, err := f.service.AddComment(context.Background(), adminActor(), f.board.ID, "released by QA lead")
	require.NoError(t, err)
	assert.Nil(t, comment.DepartmentID)
}
