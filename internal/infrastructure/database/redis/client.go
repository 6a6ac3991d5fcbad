// Package redis holds the run lock that keeps two loads from writing to the
// same graph database at once.
package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/patentsview-graph/internal/config"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentsview-graph/pkg/errors"
)

var ErrClientClosed = errors.New(errors.ErrCodeInternal, "redis client is closed")

const (
	dialTimeout  = 5 * time.Second
	readTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second
	pingTimeout  = 5 * time.Second
)

// Client wraps a standalone go-redis client.
type Client struct {
	rdb    redis.UniversalClient
	addr   string
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewClient connects to cfg.RedisAddr and pings it. A failed ping is
// reported as ErrCodeLockUnavailable.
func NewClient(ctx context.Context, cfg config.LockConfig, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     2,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		MaxRetries:   3,
	})

	client := &Client{rdb: rdb, addr: cfg.RedisAddr, logger: log}

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pctx); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, errors.ErrCodeLockUnavailable, "redis connection failed").WithDetail(cfg.RedisAddr)
	}

	log.Debug("Redis client connected", logging.String("addr", cfg.RedisAddr))
	return client, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	return c.rdb.Ping(ctx).Err()
}

// GetUnderlyingClient exposes the go-redis client to the lock scripts.
func (c *Client) GetUnderlyingClient() redis.UniversalClient {
	return c.rdb
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rdb.Close()
}

func (c *Client) checkClosed() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}

//Personal.AI order the ending
