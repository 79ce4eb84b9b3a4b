package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/ssr-first/internal/locale"
)

const preferenceKeyPrefix = "pref:lang:"

// PreferenceStore はログインユーザーの表示言語を Redis に保存します。
// クッキーの Override とは別に、別の端末でログインしたときにも同じ言語を使うためのものです。
type PreferenceStore struct {
	rdb *redis.Client
}

// NewPreferenceStore は PreferenceStore を作成します。
func NewPreferenceStore(rdb *redis.Client) *PreferenceStore {
	return &PreferenceStore{rdb: rdb}
}

// Get は保存済みの言語を返します。未保存、または対応外の値なら false です。
func (s *PreferenceStore) Get(ctx context.Context, user string) (locale.Locale, bool, error) {
	if user == "" {
		return "", false, fmt.Errorf("user is required")
	}
	value, err := s.rdb.Get(ctx, preferenceKeyPrefix+user).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	l, ok := locale.ParseLocale(value)
	return l, ok, nil
}

// Set は言語を保存します。
func (s *PreferenceStore) Set(ctx context.Context, user string, l locale.Locale) error {
	if user == "" {
		return fmt.Errorf("user is required")
	}
	if !l.IsSupported() {
		return fmt.Errorf("unsupported locale: %q", l)
	}
	return s.rdb.Set(ctx, preferenceKeyPrefix+user, string(l), 0).Err()
}
