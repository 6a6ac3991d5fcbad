package redis

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentsview-graph/pkg/errors"
)

const (
	keyPrefix         = "pvgraph:lock:run:"
	defaultRetryDelay = 250 * time.Millisecond
)

var ErrLockNotHeld = errors.New(errors.ErrCodeInternal, "run lock not held by this run")

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// TargetKey names the lock of one graph database. An empty database is the
// server default.
func TargetKey(uri, database string) string {
	if database == "" {
		database = "<default>"
	}
	return keyPrefix + strings.TrimRight(uri, "/") + "/" + database
}

// LockOption tunes a RunLock.
type LockOption func(*RunLock)

// WithRetryDelay sets the pause between acquisition attempts.
func WithRetryDelay(d time.Duration) LockOption {
	return func(l *RunLock) { l.retryDelay = d }
}

// WithWatchdogInterval sets how often a held lock is extended. The default
// is a third of the TTL.
func WithWatchdogInterval(d time.Duration) LockOption {
	return func(l *RunLock) { l.watchdogInterval = d }
}

// RunLock is a single-owner mutex whose value is the run id of the holder.
// While held, a watchdog keeps extending its TTL so that a crashed run
// releases it within one TTL.
type RunLock struct {
	client           *Client
	key              string
	owner            string
	ttl              time.Duration
	wait             time.Duration
	retryDelay       time.Duration
	watchdogInterval time.Duration
	logger           logging.Logger

	mu             sync.Mutex
	watchdogCancel context.CancelFunc
	watchdogDone   chan struct{}
}

// NewRunLock creates the lock key for owner. Acquire retries for up to wait
// when another owner holds it.
func NewRunLock(client *Client, key, owner string, ttl, wait time.Duration, log logging.Logger, opts ...LockOption) *RunLock {
	if log == nil {
		log = logging.NewNopLogger()
	}
	l := &RunLock{
		client:     client,
		key:        key,
		owner:      owner,
		ttl:        ttl,
		wait:       wait,
		retryDelay: defaultRetryDelay,
		logger:     log.With(logging.String("lock", key)),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.watchdogInterval <= 0 {
		l.watchdogInterval = ttl / 3
	}
	return l
}

func (l *RunLock) Key() string { return l.key }

// Acquire takes the lock or returns ErrCodeRunLocked naming the current
// holder. Store failures are ErrCodeLockUnavailable.
func (l *RunLock) Acquire(ctx context.Context) error {
	deadline := time.Now().Add(l.wait)
	rdb := l.client.GetUnderlyingClient()
	for {
		ok, err := rdb.SetNX(ctx, l.key, l.owner, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return errors.Wrap(ctx.Err(), errors.ErrCodeCancelled, "cancelled while acquiring run lock")
			}
			return errors.Wrap(err, errors.ErrCodeLockUnavailable, "failed to set run lock")
		}
		if ok {
			l.startWatchdog()
			l.logger.Info("Run lock acquired", logging.Duration("ttl", l.ttl))
			return nil
		}

		if !time.Now().Before(deadline) {
			holder, _ := l.Holder(ctx)
			return errors.Newf(errors.ErrCodeRunLocked, "run %s holds the lock on this database", holder).WithDetail(l.key)
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), errors.ErrCodeCancelled, "cancelled while acquiring run lock")
		case <-time.After(l.retryDelay):
		}
	}
}

// Release stops the watchdog and deletes the key if this run still owns it.
func (l *RunLock) Release(ctx context.Context) error {
	l.stopWatchdog()
	res, err := unlockScript.Run(ctx, l.client.GetUnderlyingClient(), []string{l.key}, l.owner).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeLockUnavailable, "failed to release run lock")
	}
	if res == 0 {
		return ErrLockNotHeld
	}
	l.logger.Info("Run lock released")
	return nil
}

// Extend resets the TTL. It reports false when the lock is no longer owned.
func (l *RunLock) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	res, err := extendScript.Run(ctx, l.client.GetUnderlyingClient(), []string{l.key}, l.owner, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// Holder returns the run id stored in the lock, empty when free.
func (l *RunLock) Holder(ctx context.Context) (string, error) {
	v, err := l.client.GetUnderlyingClient().Get(ctx, l.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}

func (l *RunLock) TTL(ctx context.Context) (time.Duration, error) {
	return l.client.GetUnderlyingClient().PTTL(ctx, l.key).Result()
}

func (l *RunLock) startWatchdog() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watchdogCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.watchdogCancel = cancel
	l.watchdogDone = make(chan struct{})
	go runWatchdog(ctx, l.Extend, l.watchdogInterval, l.ttl, l.logger, l.watchdogDone)
}

func (l *RunLock) stopWatchdog() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watchdogCancel != nil {
		l.watchdogCancel()
		<-l.watchdogDone
		l.watchdogCancel = nil
	}
}

func runWatchdog(ctx context.Context, extendFn func(context.Context, time.Duration) (bool, error), interval, ttl time.Duration, log logging.Logger, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := extendFn(ctx, ttl)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error("Watchdog failed to extend run lock", logging.Err(err))
				return
			}
			if !ok {
				log.Warn("Watchdog lost run lock")
				return
			}
		}
	}
}

//Personal.AI order the ending
