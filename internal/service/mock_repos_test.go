package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/scan-track-service/internal/domain"
	"github.com/spec-kit/scan-track-service/internal/repository"
)

// Map-backed repository fakes. They mirror the Postgres implementations'
// contract: pgx.ErrNoRows for missing rows, repository.ErrDuplicate for
// unique-constraint hits, repository.ErrBoardFinalized for a lost
// finalization race. failWith lets tests inject storage failures.

type memOrderRepo struct {
	orders   map[string]*domain.Order
	boards   *memBoardRepo
	scans    *memScanRepo
	comments *memCommentRepo
	failWith error
}

func newMemOrderRepo(boards *memBoardRepo, scans *memScanRepo, comments *memCommentRepo) *memOrderRepo {
	return &memOrderRepo{
		orders:   make(map[string]*domain.Order),
		boards:   boards,
		scans:    scans,
		comments: comments,
	}
}

func (r *memOrderRepo) Create(_ context.Context, order *domain.Order) error {
	if r.failWith != nil {
		return r.failWith
	}
	for _, existing := range r.orders {
		if existing.Code == order.Code {
			return repository.ErrDuplicate
		}
	}
	order.ID = uuid.NewString()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	clone := *order
	r.orders[order.ID] = &clone
	return nil
}

func (r *memOrderRepo) Update(_ context.Context, order *domain.Order) error {
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.orders[order.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *order
	r.orders[order.ID] = &clone
	return nil
}

func (r *memOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *order
	return &clone, nil
}

func (r *memOrderRepo) GetByCode(_ context.Context, code string) (*domain.Order, error) {
	for _, order := range r.orders {
		if order.Code == code {
			clone := *order
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memOrderRepo) List(_ context.Context) ([]domain.Order, error) {
	result := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		result = append(result, *order)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (r *memOrderRepo) ListVisibleToDepartment(_ context.Context, departmentID string) ([]domain.Order, error) {
	var result []domain.Order
	for _, order := range r.orders {
		for _, board := range r.boards.boards {
			if board.OrderID == order.ID && board.DepartmentID != nil && *board.DepartmentID == departmentID {
				result = append(result, *order)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// DeleteCascade removes comments, scans and boards before the order itself,
// same as the transactional cascade in the Postgres implementation.
func (r *memOrderRepo) DeleteCascade(_ context.Context, id string) error {
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.orders[id]; !ok {
		return pgx.ErrNoRows
	}
	for boardID, board := range r.boards.boards {
		if board.OrderID != id {
			continue
		}
		if r.comments != nil {
			for commentID, comment := range r.comments.comments {
				if comment.BoardID == boardID {
					delete(r.comments.comments, commentID)
				}
			}
		}
		if r.scans != nil {
			for scanID, scan := range r.scans.scans {
				if scan.BoardID == boardID {
					delete(r.scans.scans, scanID)
				}
			}
		}
		delete(r.boards.boards, boardID)
	}
	delete(r.orders, id)
	return nil
}

type memBoardRepo struct {
	boards   map[string]*domain.Board
	failWith error
}

func newMemBoardRepo() *memBoardRepo {
	return &memBoardRepo{boards: make(map[string]*domain.Board)}
}

func (r *memBoardRepo) Create(_ context.Context, board *domain.Board) error {
	if r.failWith != nil {
		return r.failWith
	}
	for _, existing := range r.boards {
		if existing.OrderID == board.OrderID && existing.BoardCode == board.BoardCode {
			return repository.ErrDuplicate
		}
	}
	board.ID = uuid.NewString()
	board.CreatedAt = time.Now()
	clone := *board
	r.boards[board.ID] = &clone
	return nil
}

func (r *memBoardRepo) GetByID(_ context.Context, id string) (*domain.Board, error) {
	board, ok := r.boards[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *board
	return &clone, nil
}

func (r *memBoardRepo) GetByOrderAndCode(_ context.Context, orderID, boardCode string) (*domain.Board, error) {
	for _, board := range r.boards {
		if board.OrderID == orderID && board.BoardCode == boardCode {
			clone := *board
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memBoardRepo) ListByOrder(_ context.Context, orderID string) ([]domain.Board, error) {
	var result []domain.Board
	for _, board := range r.boards {
		if board.OrderID == orderID {
			result = append(result, *board)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].BoardCode < result[j].BoardCode })
	return result, nil
}

type memScanRepo struct {
	scans    map[string]*domain.Scan
	failWith error
}

func newMemScanRepo() *memScanRepo {
	return &memScanRepo{scans: make(map[string]*domain.Scan)}
}

func (r *memScanRepo) Finalize(_ context.Context, scan *domain.Scan) error {
	if r.failWith != nil {
		return r.failWith
	}
	for _, existing := range r.scans {
		if existing.BoardID == scan.BoardID && existing.Status.IsTerminal() {
			return repository.ErrBoardFinalized
		}
	}
	scan.ID = uuid.NewString()
	scan.ScannedAt = time.Now()
	clone := *scan
	r.scans[scan.ID] = &clone
	return nil
}

func (r *memScanRepo) Update(_ context.Context, scan *domain.Scan) error {
	if _, ok := r.scans[scan.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *scan
	r.scans[scan.ID] = &clone
	return nil
}

func (r *memScanRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.scans[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.scans, id)
	return nil
}

func (r *memScanRepo) GetByID(_ context.Context, id string) (*domain.Scan, error) {
	scan, ok := r.scans[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *scan
	return &clone, nil
}

func (r *memScanRepo) GetTerminalByBoard(_ context.Context, boardID string) (*domain.Scan, error) {
	for _, scan := range r.scans {
		if scan.BoardID == boardID && scan.Status.IsTerminal() {
			clone := *scan
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memScanRepo) ListByBoard(_ context.Context, boardID string) ([]domain.Scan, error) {
	var result []domain.Scan
	for _, scan := range r.scans {
		if scan.BoardID == boardID {
			result = append(result, *scan)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScannedAt.Before(result[j].ScannedAt) })
	return result, nil
}

type memScanStateRepo struct {
	pending  map[string]string
	failWith error
}

func newMemScanStateRepo() *memScanStateRepo {
	return &memScanStateRepo{pending: make(map[string]string)}
}

func (r *memScanStateRepo) key(userID, orderID string) string {
	return userID + "/" + orderID
}

func (r *memScanStateRepo) GetPending(_ context.Context, userID, orderID string) (string, error) {
	if r.failWith != nil {
		return "", r.failWith
	}
	return r.pending[r.key(userID, orderID)], nil
}

func (r *memScanStateRepo) SetPending(_ context.Context, userID, orderID, boardID string) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.pending[r.key(userID, orderID)] = boardID
	return nil
}

func (r *memScanStateRepo) ClearPending(_ context.Context, userID, orderID string) error {
	if r.failWith != nil {
		return r.failWith
	}
	delete(r.pending, r.key(userID, orderID))
	return nil
}

type memCommentRepo struct {
	comments map[string]*domain.Comment
	seq      int
}

func newMemCommentRepo() *memCommentRepo {
	return &memCommentRepo{comments: make(map[string]*domain.Comment)}
}

func (r *memCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	comment.ID = uuid.NewString()
	r.seq++
	// Stagger timestamps so chronological ordering is deterministic.
	comment.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	clone := *comment
	r.comments[comment.ID] = &clone
	return nil
}

func (r *memCommentRepo) ListByBoard(_ context.Context, boardID string) ([]domain.Comment, error) {
	var result []domain.Comment
	for _, comment := range r.comments {
		if comment.BoardID == boardID {
			result = append(result, *comment)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

type memUserRepo struct {
	users    map[string]*domain.User
	failWith error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	if r.failWith != nil {
		return r.failWith
	}
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) List(_ context.Context) ([]domain.User, error) {
	result := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		result = append(result, *user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

func (r *memUserRepo) CountAdmins(_ context.Context) (int, error) {
	count := 0
	for _, user := range r.users {
		if user.Role == domain.RoleAdmin {
			count++
		}
	}
	return count, nil
}

type memDepartmentRepo struct {
	departments map[string]*domain.Department
	failWith    error
}

func newMemDepartmentRepo() *memDepartmentRepo {
	return &memDepartmentRepo{departments: make(map[string]*domain.Department)}
}

func (r *memDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	if r.failWith != nil {
		return r.failWith
	}
	for _, existing := range r.departments {
		if existing.Name == dept.Name {
			return repository.ErrDuplicate
		}
	}
	dept.ID = uuid.NewString()
	dept.CreatedAt = time.Now()
	clone := *dept
	r.departments[dept.ID] = &clone
	return nil
}

func (r *memDepartmentRepo) Update(_ context.Context, dept *domain.Department) error {
	if _, ok := r.departments[dept.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *dept
	r.departments[dept.ID] = &clone
	return nil
}

func (r *memDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	dept, ok := r.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *dept
	return &clone, nil
}

func (r *memDepartmentRepo) GetByName(_ context.Context, name string) (*domain.Department, error) {
	for _, dept := range r.departments {
		if dept.Name == name {
			clone := *dept
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memDepartmentRepo) List(_ context.Context) ([]domain.Department, error) {
	result := make([]domain.Department, 0, len(r.departments))
	for _, dept := range r.departments {
		result = append(result, *dept)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Fixture helpers shared by the service tests.

func adminActor() Actor {
	return Actor{User: &domain.User{ID: "admin-1", Username: "admin", Role: domain.RoleAdmin}}
}

func managerActor(deptID string) Actor {
	dept := &domain.Department{ID: deptID, Name: "Assembly", Visibility: domain.VisibilityOwnOrdersOnly}
	return Actor{
		User:       &domain.User{ID: "mgr-1", Username: "manager", Role: domain.RoleStandard, IsManager: true, DepartmentID: &dept.ID},
		Department: dept,
	}
}

func operatorActor(userID string, dept *domain.Department) Actor {
	actor := Actor{User: &domain.User{ID: userID, Username: userID, Role: domain.RoleStandard}}
	if dept != nil {
		actor.User.DepartmentID = &dept.ID
		actor.Department = dept
	}
	return actor
}
