package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/qdclab/booking-api/internal/common"
)

// Service throttles requests per client IP using a shared limiter store, so
// limits hold across instances when backed by Redis.
type Service struct {
	limiter *limiter.Limiter
	Key     func(*http.Request) string
	OnError func(error)
}

// NewRedisService builds a limiter backed by Redis.
func NewRedisService(client *redis.Client, period time.Duration, max int64) (*Service, error) {
	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "ratelimit",
	})
	if err != nil {
		return nil, err
	}
	return &Service{limiter: limiter.New(store, limiter.Rate{Period: period, Limit: max})}, nil
}

// NewMemoryService builds an in-process limiter. Used in tests and single
// instance deployments without Redis.
func NewMemoryService(period time.Duration, max int64) *Service {
	return &Service{limiter: limiter.New(memory.NewStore(), limiter.Rate{Period: period, Limit: max})}
}

// Middleware enforces the limit before delegating to the next handler. Store
// errors fail open: throttling is protection, not a gate.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s == nil || s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := ""
		if s.Key != nil {
			key = s.Key(r)
		}
		if key == "" {
			key = common.ClientIP(r)
		}
		ctx, err := s.limiter.Get(r.Context(), key)
		if err != nil {
			if s.OnError != nil {
				s.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(ctx.Reset, 10))

		if ctx.Reached {
			retryAfter := ctx.Reset - time.Now().Unix()
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
