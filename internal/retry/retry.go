// Package retry provides a small bounded retry helper for transient
// transport failures on outbound provider calls.
// This package is internal and should not be imported by external projects.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Policy 定义重试策略配置
type Policy struct {
	MaxAttempts int           // 总尝试次数（含首次）
	BaseDelay   time.Duration // 线性退避基数：delay = BaseDelay * attempt
}

// DefaultPolicy matches the provider transport budget: 3 attempts with
// linear backoff of 500ms per attempt.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}
}

// Transient reports whether err looks like a transient transport failure
// (timeout, connection reset, DNS hiccup). API-level errors are never
// transient and must not be retried here.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}
	return false
}

// Do executes fn up to p.MaxAttempts times, retrying only when the returned
// error satisfies retryable (Transient by default). The wait between
// attempts is cancellable through ctx.
func Do[T any](ctx context.Context, p Policy, logger *zap.Logger, retryable func(error) bool, fn func() (T, error)) (T, error) {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if retryable == nil {
		retryable = Transient
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(err) || attempt == p.MaxAttempts {
			return zero, err
		}

		delay := time.Duration(attempt) * p.BaseDelay
		logger.Debug("transient transport error, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("retry canceled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return zero, lastErr
}
