// Package retry re-runs database work that failed for a transient reason:
// deadlocks, lock wait timeouts and dropped connections.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"duoadmin/config"
	"duoadmin/pkg/logger"
)

const (
	mysqlDeadlock    = 1213
	mysqlLockTimeout = 1205
)

type Config struct {
	Enabled            bool
	MaxAttempts        int
	InitialDelay       time.Duration
	MaxDelay           time.Duration
	BackoffFactor      float64
	JitterEnabled      bool
	RetryOnDeadlock    bool
	RetryOnLockTimeout bool
	// RetryPredicate marks additional errors as retryable.
	RetryPredicate func(error) bool
}

var DefaultConfig = Config{
	Enabled:            true,
	MaxAttempts:        3,
	InitialDelay:       100 * time.Millisecond,
	MaxDelay:           2 * time.Second,
	BackoffFactor:      2.0,
	JitterEnabled:      true,
	RetryOnDeadlock:    true,
	RetryOnLockTimeout: true,
}

// FromConfig converts the database retry section of the app config.
func FromConfig(rc config.RetryConfig) Config {
	return Config{
		Enabled:            rc.Enabled,
		MaxAttempts:        rc.MaxAttempts,
		InitialDelay:       rc.InitialDelay,
		MaxDelay:           rc.MaxDelay,
		BackoffFactor:      rc.BackoffFactor,
		JitterEnabled:      rc.JitterEnabled,
		RetryOnDeadlock:    rc.RetryOnDeadlock,
		RetryOnLockTimeout: rc.RetryOnLockTimeout,
	}
}

// ExponentialBackoffWithJitter returns the wait before the attempt following
// attempt. Jitter spreads it by ±20%.
func ExponentialBackoffWithJitter(attempt int, cfg Config) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.JitterEnabled {
		delay *= 0.8 + rand.Float64()*0.4
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

func IsRetryableError(err error, cfg Config) bool {
	if err == nil {
		return false
	}
	if cfg.RetryPredicate != nil && cfg.RetryPredicate(err) {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}

	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlDeadlock:
			return cfg.RetryOnDeadlock
		case mysqlLockTimeout:
			return cfg.RetryOnLockTimeout
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "deadlock") && cfg.RetryOnDeadlock {
		return true
	}
	if strings.Contains(msg, "lock wait timeout") && cfg.RetryOnLockTimeout {
		return true
	}
	if errors.Is(err, mysqlDriver.ErrInvalidConn) || errors.Is(err, gorm.ErrInvalidTransaction) ||
		(strings.Contains(msg, "connection") && strings.Contains(msg, "lost")) {
		return true
	}
	return false
}

// ExecuteWithRetry runs fn until it succeeds, fails for a non-transient
// reason, runs out of attempts, or ctx ends.
func ExecuteWithRetry(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return fn(ctx)
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err
		if !IsRetryableError(err, cfg) || attempt == cfg.MaxAttempts {
			break
		}

		delay := ExponentialBackoffWithJitter(attempt, cfg)
		logger.Debug("Retrying database operation",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}
	return lastErr
}
