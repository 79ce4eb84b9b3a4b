// Package auth は認証ゲートとセッションによるログイン管理を提供します。
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/ssr-first/internal/config"
	"github.com/yourusername/ssr-first/internal/logging"
)

const (
	SessionCookieName    = "ssr_session"
	sessionKeyUser       = "auth_user"
	sessionKeyIssuedAt   = "issued_at"
	sessionKeyLastActive = "last_activity"
	sessionKeyCSRF       = "csrf_token"

	csrfHeader = "X-CSRF-Token"
)

// ContextUserKey は、ハンドラー間でログイン済みユーザー名を共有するためのキーです。
const ContextUserKey = "auth.user"

// セッション検証の結果コード（API のエラーコードを兼ねる）
const (
	codeUnauthorized   = "UNAUTHORIZED"
	codeSessionExpired = "SESSION_EXPIRED"
	codeSessionIdle    = "SESSION_IDLE_TIMEOUT"
)

// Options は Manager の依存関係です。
type Options struct {
	Limiter     AttemptLimiter   // nil ならメモリ上で数える
	Preferences *PreferenceStore // nil ならユーザーごとの言語を保存しない
	Logger      *logging.Logger
}

// Manager は認証処理と状態をまとめた構造体です。
type Manager struct {
	cfg     *config.Config
	limiter AttemptLimiter
	prefs   *PreferenceStore
	logger  *logging.Logger
	now     func() time.Time
}

// NewManager は認証マネージャーを作成します。
func NewManager(cfg *config.Config, opts Options) *Manager {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewMemoryLimiter(DefaultLimitPolicy)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{
		cfg:     cfg,
		limiter: limiter,
		prefs:   opts.Preferences,
		logger:  logger,
		now:     time.Now,
	}
}

// SessionOptions はセッションクッキーの属性を返します。
func (m *Manager) SessionOptions() sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   int(m.cfg.SessionMaxLifetime.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.SecureCookies(),
		// 外部サイトからのページ遷移でもログイン状態を保つため Lax
		SameSite: http.SameSiteLaxMode,
	}
}

// CurrentUser はセッションが有効ならユーザー名を返します。最終操作時刻は更新しません。
func (m *Manager) CurrentUser(c *gin.Context) (string, bool) {
	if user := c.GetString(ContextUserKey); user != "" {
		return user, true
	}
	user, code := m.checkSession(c, false)
	return user, code == ""
}

// checkSession はセッションを検証し、ユーザー名かエラーコードを返します。
// 期限切れのセッションは破棄します。touch が true なら最終操作時刻を更新します。
func (m *Manager) checkSession(c *gin.Context, touch bool) (string, string) {
	session := sessions.Default(c)
	user, ok := session.Get(sessionKeyUser).(string)
	if !ok || user == "" {
		return "", codeUnauthorized
	}

	now := m.now()
	issuedAt := readUnix(session.Get(sessionKeyIssuedAt))
	lastActive := readUnix(session.Get(sessionKeyLastActive))

	if issuedAt.IsZero() || now.Sub(issuedAt) > m.cfg.SessionMaxLifetime {
		session.Clear()
		_ = session.Save()
		return "", codeSessionExpired
	}

	if lastActive.IsZero() || now.Sub(lastActive) > m.cfg.SessionIdleTimeout {
		session.Clear()
		_ = session.Save()
		return "", codeSessionIdle
	}

	if touch {
		session.Set(sessionKeyLastActive, now.Unix())
		_ = session.Save()
	}
	return user, ""
}

func (m *Manager) ensureCredentials() error {
	if m.cfg.AppUsername == "" {
		return errors.New("APP_USERNAME is not configured")
	}
	if m.cfg.AppPasswordHash == "" {
		return errors.New("APP_PASSWORD_HASH is not configured")
	}
	if m.cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET is not configured")
	}
	return nil
}

func (m *Manager) verifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(m.cfg.AppPasswordHash), []byte(password)) == nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
