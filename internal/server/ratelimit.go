package server

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/charue808/eikogames/internal/config"
)

// rateLimiter caps state-changing requests per client IP. With Redis
// configured it runs a fixed window shared by every instance; otherwise each
// instance keeps a token bucket per client. Redis errors fail open.
type rateLimiter struct {
	limit  int
	window time.Duration
	redis  *redis.Client
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*clientBucket
	lastSweep time.Time
}

type clientBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newRateLimiter(cfg config.Config) *rateLimiter {
	limiter := &rateLimiter{
		limit:   cfg.RateLimitRequests,
		window:  time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
		now:     time.Now,
		buckets: make(map[string]*clientBucket),
	}
	if cfg.RedisAddr == "" || limiter.limit <= 0 {
		return limiter
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis rate limiter unavailable addr=%s error=%v", cfg.RedisAddr, err)
		_ = client.Close()
		return limiter
	}
	limiter.redis = client
	return limiter
}

func (l *rateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.limit <= 0 {
			c.Next()
			return
		}
		if !l.allow(c.Request.Context(), c.ClientIP()) {
			rateLimited.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (l *rateLimiter) allow(ctx context.Context, client string) bool {
	if l.redis != nil {
		return l.allowShared(ctx, client)
	}

	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)
	bucket, ok := l.buckets[client]
	if !ok {
		every := l.window / time.Duration(l.limit)
		bucket = &clientBucket{limiter: rate.NewLimiter(rate.Every(every), l.limit)}
		l.buckets[client] = bucket
	}
	bucket.seen = now
	return bucket.limiter.AllowN(now, 1)
}

// allowShared creates the window key with its TTL and increments it in one
// MULTI, so a key never outlives its window.
func (l *rateLimiter) allowShared(ctx context.Context, client string) bool {
	key := "rl:overlap:" + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + client
	var count *redis.IntCmd
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.window)
		count = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		log.Printf("rate limit check failed client=%s error=%v", client, err)
		return true
	}
	return count.Val() <= int64(l.limit)
}

// sweep drops buckets idle for a full window. Such a bucket has refilled, so
// dropping it changes nothing for the client. Callers hold l.mu.
func (l *rateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for client, bucket := range l.buckets {
		if now.Sub(bucket.seen) >= l.window {
			delete(l.buckets, client)
		}
	}
}

func (l *rateLimiter) Close() error {
	if l.redis == nil {
		return nil
	}
	return l.redis.Close()
}
