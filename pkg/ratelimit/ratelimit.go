package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	extratelimit "github.com/vnmchuo/ratelimiter"
)

// Admission policy is fixed for every tenant: 20 requests per rolling
// 60-second window. There is no per-tenant configuration.
const (
	RequestsPerWindow = 20
	Window            = time.Minute
)

// Limiter wraps github.com/vnmchuo/ratelimiter's redis sliding window.
type Limiter struct {
	store extratelimit.Limiter
}

func NewLimiter(rdb *redis.Client) *Limiter {
	store := extratelimit.NewRedisStore(rdb,
		extratelimit.WithLimit(RequestsPerWindow),
		extratelimit.WithWindow(Window),
	)
	return &Limiter{store: store}
}

func NewTestLimiter(store extratelimit.Limiter) *Limiter {
	return &Limiter{store: store}
}

// Admit reports whether the tenant has allowance left in the current
// window. One call consumes at most one admission slot.
func (l *Limiter) Admit(ctx context.Context, tenantID string) (bool, error) {
	key := fmt.Sprintf("ratelimit:tenant:%s", tenantID)
	res, err := l.store.Allow(ctx, key)
	if err != nil {
		return false, err
	}
	return res.Allowed, nil
}
