package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LimitPolicy はログイン試行回数制限の設定です。
type LimitPolicy struct {
	Window       time.Duration // 失敗回数を数える期間
	LockDuration time.Duration // 上限に達したときのロック時間
	MaxAttempts  int
}

// DefaultLimitPolicy は 15分間に5回失敗すると10分ロックします。
var DefaultLimitPolicy = LimitPolicy{
	Window:       15 * time.Minute,
	LockDuration: 10 * time.Minute,
	MaxAttempts:  5,
}

// AttemptLimiter はIPごとのログイン失敗回数を管理します。
type AttemptLimiter interface {
	// Check はロック中なら残り時間を返します。
	Check(ctx context.Context, ip string) (time.Duration, error)
	// RecordFailure は失敗を記録し、ロックまでの残り回数を返します。
	RecordFailure(ctx context.Context, ip string) (int, error)
	// Reset は成功時に記録を消します。
	Reset(ctx context.Context, ip string) error
}

type attemptState struct {
	count        int
	firstAttempt time.Time
}

// MemoryLimiter はプロセス内で回数を数える AttemptLimiter です。Redis を使わない開発環境向けです。
type MemoryLimiter struct {
	policy   LimitPolicy
	now      func() time.Time
	lock     sync.Mutex
	attempts map[string]*attemptState
	locked   map[string]time.Time
}

// NewMemoryLimiter は MemoryLimiter を作成します。
func NewMemoryLimiter(policy LimitPolicy) *MemoryLimiter {
	return &MemoryLimiter{
		policy:   policy,
		now:      time.Now,
		attempts: make(map[string]*attemptState),
		locked:   make(map[string]time.Time),
	}
}

func (l *MemoryLimiter) Check(_ context.Context, ip string) (time.Duration, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	until, ok := l.locked[ip]
	if !ok {
		return 0, nil
	}
	now := l.now()
	if !now.Before(until) {
		delete(l.locked, ip)
		return 0, nil
	}
	return until.Sub(now), nil
}

func (l *MemoryLimiter) RecordFailure(_ context.Context, ip string) (int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	now := l.now()
	state, ok := l.attempts[ip]
	if !ok || now.Sub(state.firstAttempt) > l.policy.Window {
		state = &attemptState{firstAttempt: now}
		l.attempts[ip] = state
	}

	state.count++
	if state.count >= l.policy.MaxAttempts {
		l.locked[ip] = now.Add(l.policy.LockDuration)
		delete(l.attempts, ip)
		return 0, nil
	}
	return l.policy.MaxAttempts - state.count, nil
}

func (l *MemoryLimiter) Reset(_ context.Context, ip string) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	delete(l.attempts, ip)
	delete(l.locked, ip)
	return nil
}

const (
	attemptKeyPrefix = "login:attempts:"
	lockKeyPrefix    = "login:lock:"
)

// RedisLimiter は Redis に回数とロックを保存する AttemptLimiter です。複数インスタンスで共有できます。
type RedisLimiter struct {
	rdb    *redis.Client
	policy LimitPolicy
}

// NewRedisLimiter は RedisLimiter を作成します。
func NewRedisLimiter(rdb *redis.Client, policy LimitPolicy) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, policy: policy}
}

func (l *RedisLimiter) Check(ctx context.Context, ip string) (time.Duration, error) {
	ttl, err := l.rdb.PTTL(ctx, lockKeyPrefix+ip).Result()
	if err != nil {
		return 0, err
	}
	// キーがなければ負の値が返る
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

func (l *RedisLimiter) RecordFailure(ctx context.Context, ip string) (int, error) {
	key := attemptKeyPrefix + ip
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.policy.Window).Err(); err != nil {
			return 0, err
		}
	}

	if count >= int64(l.policy.MaxAttempts) {
		_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, lockKeyPrefix+ip, 1, l.policy.LockDuration)
			pipe.Del(ctx, key)
			return nil
		})
		if err != nil {
			return 0, err
		}
		return 0, nil
	}
	return l.policy.MaxAttempts - int(count), nil
}

func (l *RedisLimiter) Reset(ctx context.Context, ip string) error {
	return l.rdb.Del(ctx, attemptKeyPrefix+ip, lockKeyPrefix+ip).Err()
}
