package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ScanStateRepository stores the per-(user, order) pending-board pointer for
// the two-step scan workflow. The pointer is exclusively owned by one user's
// session and is never shared across sessions.
type ScanStateRepository interface {
	GetPending(ctx context.Context, userID, orderID string) (string, error)
	SetPending(ctx context.Context, userID, orderID, boardID string) error
	ClearPending(ctx context.Context, userID, orderID string) error
}

type redisScanStateRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScanStateRepository returns a Redis-backed implementation. Pointers
// expire after ttl so abandoned sessions release their state.
func NewScanStateRepository(client *redis.Client, ttl time.Duration) ScanStateRepository {
	return &redisScanStateRepository{client: client, ttl: ttl}
}

func pendingKey(userID, orderID string) string {
	return fmt.Sprintf("scan:pending:%s:%s", userID, orderID)
}

// GetPending returns the pending board id, or "" when nothing is pending.
func (r *redisScanStateRepository) GetPending(ctx context.Context, userID, orderID string) (string, error) {
	val, err := r.client.Get(ctx, pendingKey(userID, orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *redisScanStateRepository) SetPending(ctx context.Context, userID, orderID, boardID string) error {
	return r.client.Set(ctx, pendingKey(userID, orderID), boardID, r.ttl).Err()
}

func (r *redisScanStateRepository) ClearPending(ctx context.Context, userID, orderID string) error {
	return r.client.Del(ctx, pendingKey(userID, orderID)).Err()
}
