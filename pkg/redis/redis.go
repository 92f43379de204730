package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/gatepass/internal"
	goredis "github.com/redis/go-redis/v9"
)

// Client wraps go-redis for the token blacklist and the login rate limiter.
type Client struct {
	rdb    *goredis.Client
	logger *slog.Logger
}

// NewClient connects and pings. An empty address means redis is disabled and
// (nil, nil) is returned.
func NewClient(cfg internal.RedisConfig, logger *slog.Logger) (*Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connect %s: %w", cfg.Addr, err)
	}

	logger.Info("redis connected", "addr", cfg.Addr)
	return &Client{rdb: rdb, logger: logger}, nil
}

const (
	blacklistPrefix = "token:blacklist:"
	ratePrefix      = "ratelimit:"
)

// BlacklistToken stores the jti until the token would have expired anyway.
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Allow is a fixed window counter: the first hit in a window sets the expiry.
func (c *Client) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := ratePrefix + key
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(limit), nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
