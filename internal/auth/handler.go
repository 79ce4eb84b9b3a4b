package auth

import (
	"math"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/yourusername/ssr-first/internal/locale"
)

// ユーザー名とパスワードの最大文字数です。
const (
	UsernameMaxLength = 20
	PasswordMaxLength = 32
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	OrigURL  string `json:"orig_url" form:"orig_url"`
}

func (r loginRequest) valid() bool {
	return validLength(r.Username, UsernameMaxLength) && validLength(r.Password, PasswordMaxLength)
}

func validLength(s string, limit int) bool {
	n := utf8.RuneCountInString(s)
	return n > 0 && n <= limit
}

// Login は POST /api/auth/login のハンドラーです。
// 成功するとフォーム送信には 303 で、JSON には {"redirect": ...} で orig_url（検証済み）を返します。
func (m *Manager) Login(c *gin.Context) {
	lang := locale.FromContext(c)

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil || !req.valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": locale.Message(lang, "error.invalidInput"),
		})
		return
	}

	if err := m.ensureCredentials(); err != nil {
		m.logger.Errorf("login unavailable: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SERVER_MISCONFIGURATION",
			"message": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	ip := c.ClientIP()
	retryAfter, err := m.limiter.Check(ctx, ip)
	if err != nil {
		m.logger.Errorf("login limiter check failed ip=%s: %v", ip, err)
		internalError(c, lang)
		return
	}
	if retryAfter > 0 {
		// Retry-After は秒数またはHTTP-Date形式が推奨されているため秒数で返す
		c.Header("Retry-After", strconv.FormatInt(int64(math.Ceil(retryAfter.Seconds())), 10))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"code":    "TOO_MANY_ATTEMPTS",
			"message": locale.Message(lang, "error.tooManyAttempts"),
		})
		return
	}

	if req.Username != m.cfg.AppUsername || !m.verifyPassword(req.Password) {
		remaining, err := m.limiter.RecordFailure(ctx, ip)
		if err != nil {
			m.logger.Errorf("login limiter record failed ip=%s: %v", ip, err)
		}
		m.logger.Warnf("login failed ip=%s remaining=%d", ip, remaining)
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":              "INVALID_CREDENTIALS",
			"message":           locale.Message(lang, "error.invalidCredentials"),
			"remainingAttempts": remaining,
		})
		return
	}

	if err := m.limiter.Reset(ctx, ip); err != nil {
		m.logger.Warnf("login limiter reset failed ip=%s: %v", ip, err)
	}

	token, err := generateToken()
	if err != nil {
		m.logger.Errorf("csrf token generation failed: %v", err)
		internalError(c, lang)
		return
	}

	session := sessions.Default(c)
	now := m.now()
	session.Set(sessionKeyUser, m.cfg.AppUsername)
	session.Set(sessionKeyIssuedAt, now.Unix())
	session.Set(sessionKeyLastActive, now.Unix())
	session.Set(sessionKeyCSRF, token)

	if err := session.Save(); err != nil {
		m.logger.Errorf("session save failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": locale.Message(lang, "error.internal"),
		})
		return
	}

	lang = m.restoreLanguage(c, m.cfg.AppUsername, lang)
	target := CompleteLogin(req.OrigURL)
	m.logger.Infof("login succeeded user=%s redirect=%s", m.cfg.AppUsername, target)

	c.Header(csrfHeader, token)
	if c.ContentType() == binding.MIMEJSON {
		c.JSON(http.StatusOK, gin.H{
			"redirect": target,
			"user":     m.cfg.AppUsername,
			"lang":     lang,
		})
		return
	}
	c.Redirect(http.StatusSeeOther, target)
}

// Logout は POST /api/auth/logout のハンドラーです。
func (m *Manager) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		m.logger.Errorf("session clear failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": locale.Message(locale.FromContext(c), "error.internal"),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// User はログイン中のユーザー情報です。
type User struct {
	Name              string        `json:"name"`
	Lang              locale.Locale `json:"lang"`
	PreferredLanguage locale.Locale `json:"preferredLanguage,omitempty"`
}

// LookupUser はセッションが有効ならユーザー情報を返します。
// 保存済みの言語が取得できなくてもエラーにはせず、PreferredLanguage を空のまま返します。
func (m *Manager) LookupUser(c *gin.Context) (User, bool) {
	name, ok := m.CurrentUser(c)
	if !ok {
		return User{}, false
	}
	user := User{Name: name, Lang: locale.FromContext(c)}
	if m.prefs != nil {
		stored, found, err := m.prefs.Get(c.Request.Context(), name)
		if err != nil {
			m.logger.Warnf("preference lookup failed user=%s: %v", name, err)
		} else if found {
			user.PreferredLanguage = stored
		}
	}
	return user, true
}

// Me は GET /api/auth/me のハンドラーです。
func (m *Manager) Me(c *gin.Context) {
	user, ok := m.LookupUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    codeUnauthorized,
			"message": locale.Message(locale.FromContext(c), "error.unauthorized"),
		})
		return
	}
	c.JSON(http.StatusOK, user)
}

// RememberLanguage はログイン中のユーザーが言語を選んだとき、その言語をユーザー設定として保存します。
// locale.SelectOptions.OnSelect に渡して使います。
func (m *Manager) RememberLanguage(c *gin.Context, l locale.Locale) {
	if m.prefs == nil {
		return
	}
	user, ok := m.CurrentUser(c)
	if !ok {
		return
	}
	if err := m.prefs.Set(c.Request.Context(), user, l); err != nil {
		m.logger.Warnf("preference save failed user=%s: %v", user, err)
	}
}

// restoreLanguage はログイン直後に呼ばれ、保存済みの言語があればそれをクッキーに書き戻します。
// 未保存なら現在の表示言語をユーザー設定として保存します。
func (m *Manager) restoreLanguage(c *gin.Context, user string, current locale.Locale) locale.Locale {
	if m.prefs == nil {
		return current
	}
	ctx := c.Request.Context()
	stored, ok, err := m.prefs.Get(ctx, user)
	if err != nil {
		m.logger.Warnf("preference lookup failed user=%s: %v", user, err)
		return current
	}
	if !ok {
		if err := m.prefs.Set(ctx, user, current); err != nil {
			m.logger.Warnf("preference save failed user=%s: %v", user, err)
		}
		return current
	}
	locale.Persist(c, locale.Select(stored), m.cfg.SecureCookies())
	return stored
}

func internalError(c *gin.Context, lang locale.Locale) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "INTERNAL_ERROR",
		"message": locale.Message(lang, "error.internal"),
	})
}
