package health

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Probes adapts concrete dependencies to the Checker interface. The upstream
// probe is injected as a function so this package stays free of client types.
type Probes struct {
	Upstream func(ctx context.Context, timeout time.Duration) error
	Redis    *redis.Client
}

// PingUpstream probes the order upstream.
func (p Probes) PingUpstream(ctx context.Context, timeout time.Duration) error {
	if p.Upstream == nil {
		return errors.New("upstream probe not configured")
	}
	return p.Upstream(ctx, timeout)
}

// PingRedis probes the cache.
func (p Probes) PingRedis(ctx context.Context, timeout time.Duration) error {
	if p.Redis == nil {
		return errors.New("redis not configured")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return p.Redis.Ping(ctx).Err()
}
