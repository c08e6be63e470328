package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/scan-track-service/internal/authz"
	"github.com/spec-kit/scan-track-service/internal/config"
	"github.com/spec-kit/scan-track-service/internal/domain"
	apperrors "github.com/spec-kit/scan-track-service/pkg/util"
)

type scanFixture struct {
	orders  *memOrderRepo
	boards  *memBoardRepo
	scans   *memScanRepo
	state   *memScanStateRepo
	service *ScanService
	order   *domain.Order
}

func newScanFixture(t *testing.T) *scanFixture {
	t.Helper()
	boards := newMemBoardRepo()
	scans := newMemScanRepo()
	orders := newMemOrderRepo(boards, scans, newMemCommentRepo())
	state := newMemScanStateRepo()

	svc := NewScanService(ScanDependencies{
		OrderRepo: orders,
		BoardRepo: boards,
		ScanRepo:  scans,
		StateRepo: state,
	}, authz.NewPolicy(nil), config.ScanConfig{PassToken: "__PASS__", FailToken: "__FAIL__"})

	order := &domain.Order{Code: "WO-1001", Status: domain.OrderStatusOpen, CreatedBy: "mgr-1"}
	require.NoError(t, orders.Create(context.Background(), order))

	return &scanFixture{orders: orders, boards: boards, scans: scans, state: state, service: svc, order: order}
}

func (f *scanFixture) addBoard(t *testing.T, code string) *domain.Board {
	t.Helper()
	board := &domain.Board{OrderID: f.order.ID, BoardCode: code, AddedByUser: "op-1"}
	require.NoError(t, f.boards.Create(context.Background(), board))
	return board
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return apperrors.ToDomainError(err).Code
}

func TestTwoStepScanFinalizesBoard(t *testing.T) {
	f := newScanFixture(t)
	board := f.addBoard(t, "BRD-7")
	actor := operatorActor("op-1", nil)
	ctx := context.Background()

	armed, err := f.service.ScanBoardCode(ctx, actor, f.order.ID, "BRD-7")
	require.NoError(t, err)
	assert.Equal(t, board.ID, armed.ID)

	pending, err := f.service.PendingBoard(ctx, actor, f.order.ID)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, board.ID, pending.ID)

	scan, err := f.service.ScanStatusCode(ctx, actor, f.order.ID, "__PASS__")
	require.NoError(t, err)
	assert.Equal(t, domain.ScanStatusPass, scan.Status)
	assert.Equal(t, "op-1", scan.ScannedBy)

	// The pointer is consumed by finalization.
	pending, err = f.service.PendingBoard(ctx, actor, f.order.ID)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestScanningFinalizedBoardIsRejected(t *testing.T) {
	f := newScanFixture(t)
	f.addBoard(t, "BRD-7")
	actor := operatorActor("op-1", nil)
	ctx := context.Background()

	_, err := f.service.ScanBoardCode(ctx, actor, f.order.ID, "BRD-7")
	require.NoError(t, err)
	_, err = f.service.ScanStatusCode(ctx, actor, f.order.ID, "__FAIL__")
	require.NoError(t, err)

	_, err = f.service.ScanBoardCode(ctx, actor, f.order.ID, "BRD-7")
	assert.Equal(t, "DUPLICATE_BOARD_SCAN", errorCode(t, err))
}

func TestUnknownBoardCodeIsRejected(t *testing.T) {
	f := newScanFixture(t)
	actor := operatorActor("op-1", nil)

	_, err := f.service.ScanBoardCode(context.Background(), actor, f.order.ID, "NOPE-1")
	assert.Equal(t, "UNKNOWN_BOARD", errorCode(t, err))
}

func TestStatusScanWithoutPendingBoardIsIdempotentRejection(t *testing.T) {
	f := newScanFixture(t)
	actor := operatorActor("op-1", nil)
	ctx := context.Background()

	// No pending board: the status scan is rejected and nothing is recorded.
	_, err := f.service.ScanStatusCode(ctx, actor, f.order.ID, "__PASS__")
	assert.Equal(t, "UNEXPECTED_STATUS_SCAN", errorCode(t, err))

	// Repeating the rejected scan yields the same outcome.
	_, err = f.service.ScanStatusCode(ctx, actor, f.order.ID, "__PASS__")
	assert.Equal(t, "UNEXPECTED_STATUS_SCAN", errorCode(t, err))
	assert.Empty(t, f.scans.scans)
}

func TestUnrecognizedStatusTokenKeepsPendingBoard(t *testing.T) {
	f := newScanFixture(t)
	board := f.addBoard(t, "BRD-7")
	actor := operatorActor("op-1", nil)
	ctx := context.Background()

	_, err := f.service.ScanBoardCode(ctx, actor, f.order.ID, "BRD-7")
	require.NoError(t, err)

	_, err = f.service.ScanStatusCode(ctx, actor, f.order.ID, "garbage")
	assert.Equal(t, "UNEXPECTED_STATUS_SCAN", errorCode(t, err))

	// The pending pointer survives the rejection so the operator can retry.
	pending, err := f.service.PendingBoard(ctx, actor, f.order.ID)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, board.ID, pending.ID)
}

func TestStatusTokenDuringBoardStepIsRejected(t *testing.T) {
	f := newScanFixture(t)
	f.addBoard(t, "BRD-7")
	actor := operatorActor("op-1", nil)

	_, err := f.service.ScanBoardCode(context.Background(), actor, f.order.ID, "__PASS__")
	assert.Equal(t, "UNEXPECTED_STATUS_SCAN", errorCode(t, err))
}

func TestSecondBoardScanWhilePendingIsRejected(t *testing.T) {
	f := newScanFixture(t)
	f.addBoard(t, "BRD-7")
	f.addBoard(t, "BRD-8")
	actor := operatorActor("op-1", nil)
	ctx := context.Background()

	_, err := f.service.ScanBoardCode(ctx, actor, f.order.ID, "BRD-7")
	require.NoError(t, err)
	_, err = f.service.ScanBoardCode(ctx, actor, f.order.ID, "BRD-8")
	assert.Equal(t, "UNEXPECTED_STATUS_SCAN", errorCode(t, err))
}

func TestConcurrentUsersKeepSeparatePendingPointers(t *testing.T) {
	f := newScanFixture(t)
	boardA := f.addBoard(t, "BRD-7")
	boardB := f.addBoard(t, "BRD-8")
	alice := operatorActor("alice", nil)
	bob := operatorActor("bob", nil)
	ctx := context.Background()

	_, err := f.service.ScanBoardCode(ctx, alice, f.order.ID, "BRD-7")
	require.NoError(t, err)
	_, err = f.service.ScanBoardCode(ctx, bob, f.order.ID, "BRD-8")
	require.NoError(t, err)

	scanA, err := f.service.ScanStatusCode(ctx, alice, f.order.ID, "__PASS__")
	require.NoError(t, err)
	scanB, err := f.service.ScanStatusCode(ctx, bob, f.order.ID, "__FAIL__")
	require.NoError(t, err)

	assert.Equal(t, boardA.ID, scanA.BoardID)
	assert.Equal(t, boardB.ID, scanB.BoardID)
}

func TestLostFinalizationRaceReportsConcurrentModification(t *testing.T) {
	f := newScanFixture(t)
	f.addBoard(t, "BRD-7")
	alice := operatorActor("alice", nil)
	bob := operatorActor("bob", nil)
	ctx := context.Background()

	// Both operators arm the same board; only the first finalization wins.
	_, err := f.service.ScanBoardCode(ctx, alice, f.order.ID, "BRD-7")
	require.NoError(t, err)
	_, err = f.service.ScanBoardCode(ctx, bob, f.order.ID, "BRD-7")
	require.NoError(t, err)

	_, err = f.service.ScanStatusCode(ctx, alice, f.order.ID, "__PASS__")
	require.NoError(t, err)

	_, err = f.service.ScanStatusCode(ctx, bob, f.order.ID, "__FAIL__")
	assert.Equal(t, "CONCURRENT_MODIFICATION", errorCode(t, err))

	// The loser's pointer is cleared so their next scan starts fresh.
	pending, err := f.service.PendingBoard(ctx, bob, f.order.ID)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestFinalizeAgainstDeletedBoardReportsNotFound(t *testing.T) {
	f := newScanFixture(t)
	f.addBoard(t, "BRD-7")
	actor := operatorActor("op-1", nil)
	ctx := context.Background()

	_, err := f.service.ScanBoardCode(ctx, actor, f.order.ID, "BRD-7")
	require.NoError(t, err)

	// An order delete cascade can remove the board between the pending lookup
	// and the insert; the store reports that as a missing row.
	f.scans.failWith = pgx.ErrNoRows
	_, err = f.service.ScanStatusCode(ctx, actor, f.order.ID, "__PASS__")
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))

	// The stale pointer is dropped so the operator's next scan starts clean.
	f.scans.failWith = nil
	pending, err := f.service.PendingBoard(ctx, actor, f.order.ID)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestScanningClosedOrderIsRejected(t *testing.T) {
	f := newScanFixture(t)
	f.addBoard(t, "BRD-7")
	f.order.Status = domain.OrderStatusClosed
	require.NoError(t, f.orders.Update(context.Background(), f.order))

	actor := operatorActor("op-1", nil)
	_, err := f.service.ScanBoardCode(context.Background(), actor, f.order.ID, "BRD-7")
	assert.Equal(t, "ORDER_CLOSED", errorCode(t, err))
}

func TestResetPendingAbandonsHalfScannedBoard(t *testing.T) {
	f := newScanFixture(t)
	f.addBoard(t, "BRD-7")
	actor := operatorActor("op-1", nil)
	ctx := context.Background()

	_, err := f.service.ScanBoardCode(ctx, actor, f.order.ID, "BRD-7")
	require.NoError(t, err)
	require.NoError(t, f.service.ResetPending(ctx, actor, f.order.ID))

	pending, err := f.service.PendingBoard(ctx, actor, f.order.ID)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestPointerStoreOutageSurfacesAsStorageUnavailable(t *testing.T) {
	f := newScanFixture(t)
	f.addBoard(t, "BRD-7")
	f.state.failWith = assert.AnError
	actor := operatorActor("op-1", nil)

	_, err := f.service.ScanBoardCode(context.Background(), actor, f.order.ID, "BRD-7")
	assert.Equal(t, "STORAGE_UNAVAILABLE", errorCode(t, err))
}

func TestEditScanPreservesScannerAndStampsEditor(t *testing.T) {
	f := newScanFixture(t)
	f.addBoard(t, "BRD-7")
	operator := operatorActor("op-1", nil)
	ctx := context.Background()

	_, err := f.service.ScanBoardCode(ctx, operator, f.order.ID, "BRD-7")
	require.NoError(t, err)
	scan, err := f.service.ScanStatusCode(ctx, operator, f.order.ID, "__PASS__")
	require.NoError(t, err)

	admin := adminActor()
	edited, err := f.service.EditScan(ctx, admin, scan.ID, domain.ScanStatusFail, "rework: cold joint on U4")
	require.NoError(t, err)

	assert.Equal(t, domain.ScanStatusFail, edited.Status)
	assert.Equal(t, "op-1", edited.ScannedBy)
	require.NotNil(t, edited.EditedBy)
	assert.Equal(t, admin.User.ID, *edited.EditedBy)
	assert.NotNil(t, edited.EditedAt)
}

func TestEditScanRequiresTerminalStatus(t *testing.T) {
	f := newScanFixture(t)
	f.addBoard(t, "BRD-7")
	operator := operatorActor("op-1", nil)
	ctx := context.Background()

	_, err := f.service.ScanBoardCode(ctx, operator, f.order.ID, "BRD-7")
	require.NoError(t, err)
	scan, err := f.service.ScanStatusCode(ctx, operator, f.order.ID, "__PASS__")
	require.NoError(t, err)

	_, err = f.service.EditScan(ctx, adminActor(), scan.ID, domain.ScanStatusPending, "")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
}

func TestEditScanDeniedForStandardUsers(t *testing.T) {
	f := newScanFixture(t)

	_, err := f.service.EditScan(context.Background(), operatorActor("op-1", nil), "scan-1", domain.ScanStatusFail, "")
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestStatusTokensAreConfigurable(t *testing.T) {
	boards := newMemBoardRepo()
	scans := newMemScanRepo()
	orders := newMemOrderRepo(boards, scans, newMemCommentRepo())
	svc := NewScanService(ScanDependencies{
		OrderRepo: orders,
		BoardRepo: boards,
		ScanRepo:  scans,
		StateRepo: newMemScanStateRepo(),
	}, authz.NewPolicy(nil), config.ScanConfig{PassToken: "OK", FailToken: "NOK"})

	ctx := context.Background()
	order := &domain.Order{Code: "WO-2002", Status: domain.OrderStatusOpen, CreatedBy: "mgr-1"}
	require.NoError(t, orders.Create(ctx, order))
	board := &domain.Board{OrderID: order.ID, BoardCode: "BRD-1", AddedByUser: "op-1"}
	require.NoError(t, boards.Create(ctx, board))

	actor := operatorActor("op-1", nil)
	_, err := svc.ScanBoardCode(ctx, actor, order.ID, "BRD-1")
	require.NoError(t, err)

	scan, err := svc.ScanStatusCode(ctx, actor, order.ID, "NOK")
	require.NoError(t, err)
	assert.Equal(t, domain.ScanStatusFail, scan.Status)
}

func TestDeleteScanRevertsBoardToScannable(t *testing.T) {
	f := newScanFixture(t)
	f.addBoard(t, "BRD-7")
	operator := operatorActor("op-1", nil)
	ctx := context.Background()

	_, err := f.service.ScanBoardCode(ctx, operator, f.order.ID, "BRD-7")
	require.NoError(t, err)
	scan, err := f.service.ScanStatusCode(ctx, operator, f.order.ID, "__PASS__")
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteScan(ctx, adminActor(), scan.ID))

	// With the terminal scan gone the board can go through the flow again.
	_, err = f.service.ScanBoardCode(ctx, operator, f.order.ID, "BRD-7")
	assert.NoError(t, err)
}
