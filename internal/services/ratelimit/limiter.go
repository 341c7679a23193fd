// Package ratelimit provides a redis-backed attempt limiter used for
// login lockout and OTP verification cool-downs.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrLocked = errors.New("too many attempts, try again later")

// Store is the counter backend. Satisfied by cache.CacheService.
type Store interface {
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Count(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Config bounds attempts within a rolling window.
type Config struct {
	Scope       string
	MaxAttempts int64
	Window      time.Duration
}

type Limiter struct {
	store  Store
	config Config
}

func New(store Store, config Config) *Limiter {
	if store == nil {
		panic("store is required")
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	if config.Window <= 0 {
		config.Window = 15 * time.Minute
	}
	return &Limiter{store: store, config: config}
}

func (l *Limiter) key(subject string) string {
	return fmt.Sprintf("ratelimit:%s:%s", l.config.Scope, subject)
}

// Hit records a failed attempt and reports whether the subject is now
// locked out.
func (l *Limiter) Hit(ctx context.Context, subject string) error {
	count, err := l.store.Increment(ctx, l.key(subject), l.config.Window)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	if count >= l.config.MaxAttempts {
		// The counter's expiry started at the first failure; the
		// lockout itself must last a full window from now.
		if err := l.store.Expire(ctx, l.key(subject), l.config.Window); err != nil {
			return fmt.Errorf("failed to extend lockout: %w", err)
		}
		return ErrLocked
	}
	return nil
}

// Allow reports whether the subject may attempt at all. The counter
// expires with its window, so lockouts clear themselves.
func (l *Limiter) Allow(ctx context.Context, subject string) error {
	count, err := l.store.Count(ctx, l.key(subject))
	if err != nil {
		return fmt.Errorf("failed to check attempts: %w", err)
	}
	if count >= l.config.MaxAttempts {
		return ErrLocked
	}
	return nil
}

// Reset clears the counter, typically after a successful attempt.
func (l *Limiter) Reset(ctx context.Context, subject string) error {
	return l.store.Delete(ctx, l.key(subject))
}
