package auth

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stagepay/pos-core/internal/config"
	apperrors "github.com/stagepay/pos-core/pkg/errorutil"
)

// attemptScript increments the window counter and arms its expiry on the
// first attempt only. Plain INCR/PEXPIRE keeps it working on Redis < 7.
var attemptScript = redis.NewScript(`
    local attempts = redis.call('INCR', KEYS[1])
    if attempts == 1 then
        redis.call('PEXPIRE', KEYS[1], ARGV[1])
    end
    return attempts
`)

type limiterStore interface {
	redis.Scripter
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// LoginLimiter throttles credential checks with a fixed window counter per
// login key in Redis. Redis failures let the attempt through.
type LoginLimiter struct {
	store  limiterStore
	cfg    config.RateLimitConfig
	logger *zap.Logger
}

// NewLoginLimiter builds a limiter. A nil client or a disabled config yields
// a limiter that allows everything.
func NewLoginLimiter(client *redis.Client, cfg config.RateLimitConfig, logger *zap.Logger) *LoginLimiter {
	if client == nil {
		return newLoginLimiter(nil, cfg, logger)
	}
	return newLoginLimiter(client, cfg, logger)
}

func newLoginLimiter(store limiterStore, cfg config.RateLimitConfig, logger *zap.Logger) *LoginLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginLimiter{store: store, cfg: cfg, logger: logger}
}

func (l *LoginLimiter) enabled() bool {
	return l != nil && l.store != nil && l.cfg.Enabled && l.cfg.LoginAttempts > 0 && l.cfg.Window > 0
}

func (l *LoginLimiter) key(kind, subject string) string {
	return strings.Join([]string{l.cfg.Prefix, kind, strings.ToLower(subject)}, ":")
}

// Allow counts one attempt and fails once the window budget is spent.
func (l *LoginLimiter) Allow(ctx context.Context, kind, subject string) error {
	if !l.enabled() {
		return nil
	}
	key := l.key(kind, subject)

	attempts, err := attemptScript.Run(ctx, l.store, []string{key}, l.cfg.Window.Milliseconds()).Int64()
	if err != nil {
		l.logger.Warn("login limiter unavailable", zap.String("key", key), zap.Error(err))
		return nil
	}

	if attempts > int64(l.cfg.LoginAttempts) {
		return apperrors.NewTooManyRequests("too many login attempts")
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, kind, subject string) {
	if !l.enabled() {
		return
	}
	if err := l.store.Del(ctx, l.key(kind, subject)).Err(); err != nil {
		l.logger.Warn("login limiter reset failed", zap.Error(err))
	}
}
