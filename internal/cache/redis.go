package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"expensetracker/internal/logging"
)

const (
	retryStep     = 50 * time.Millisecond
	maxRetryDelay = 3 * time.Second
	pingTimeout   = time.Second
)

// Backoff returns the delay before reconnect attempt n (1-based):
// n×50ms, capped at 3s.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt >= int(maxRetryDelay/retryStep) {
		return maxRetryDelay
	}
	return time.Duration(attempt) * retryStep
}

// Client wraps redis.Client but fails safe: while the server is unreachable
// reads miss and writes return ErrUnavailable without touching the network,
// and a single background loop keeps trying to reconnect.
type Client struct {
	rdb    *redis.Client
	logger *zap.Logger

	available    atomic.Bool
	reconnecting atomic.Bool

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ Store = (*Client)(nil)

// New creates a client for a redis:// or rediss:// URL. No connection is
// made until Connect.
func New(redisURL string, logger *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.MaxRetries = 1
	opts.MinRetryBackoff = retryStep
	opts.MaxRetryBackoff = maxRetryDelay
	opts.DialTimeout = time.Second
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond

	return &Client{
		rdb:    redis.NewClient(opts),
		logger: logging.OrNop(logger).Named("cache"),
		done:   make(chan struct{}),
	}, nil
}

// Connect checks the server is reachable. On failure the client keeps
// working in degraded mode and reconnects in the background; the returned
// error is informational.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		c.logger.Warn("redis unreachable, cache degraded to misses", zap.Error(err))
		c.scheduleReconnect()
		return fmt.Errorf("connect redis: %w", err)
	}
	c.available.Store(true)
	c.logger.Info("redis connected", zap.String("addr", c.rdb.Options().Addr))
	return nil
}

// Available reports whether the last known state of the connection is up.
func (c *Client) Available() bool {
	return c != nil && c.available.Load()
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.Available() {
		return nil, nil
	}
	res, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.markDown(ctx, err)
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL; zero TTL keeps the key until deleted.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.Available() {
		return ErrUnavailable
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.markDown(ctx, err)
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Delete removes a key. Missing keys are fine.
func (c *Client) Delete(ctx context.Context, key string) error {
	if !c.Available() {
		return ErrUnavailable
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.markDown(ctx, err)
		return fmt.Errorf("%w: del %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Close stops reconnecting and releases the connection pool. Safe to call
// more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.wg.Wait()
		c.available.Store(false)
		if cerr := c.rdb.Close(); cerr != nil && !errors.Is(cerr, redis.ErrClosed) {
			err = cerr
		}
	})
	return err
}

func (c *Client) markDown(ctx context.Context, err error) {
	// The caller gave up; that says nothing about the server.
	if ctx.Err() != nil {
		return
	}
	if c.available.CompareAndSwap(true, false) {
		c.logger.Warn("redis connection lost", zap.Error(err))
	}
	c.scheduleReconnect()
}

func (c *Client) scheduleReconnect() {
	select {
	case <-c.done:
		return
	default:
	}
	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}
	c.wg.Add(1)
	go c.reconnectLoop()
}

func (c *Client) reconnectLoop() {
	defer c.wg.Done()

	for attempt := 1; ; attempt++ {
		timer := time.NewTimer(Backoff(attempt))
		select {
		case <-c.done:
			timer.Stop()
			c.reconnecting.Store(false)
			return
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		err := c.rdb.Ping(ctx).Err()
		cancel()
		if err == nil {
			c.available.Store(true)
			c.logger.Info("redis reconnected", zap.Int("attempts", attempt))
			c.finishReconnect()
			return
		}
		c.logger.Debug("redis reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
	}
}

// finishReconnect releases the reconnect slot. A failure reported while the
// slot was still held could not start a loop of its own, so the state is
// checked again afterwards.
func (c *Client) finishReconnect() {
	c.reconnecting.Store(false)
	if !c.available.Load() {
		c.scheduleReconnect()
	}
}
