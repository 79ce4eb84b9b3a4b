package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/ssr-first/internal/locale"
)

var sessionErrorMessages = map[string]string{
	codeUnauthorized:   "error.unauthorized",
	codeSessionExpired: "error.sessionExpired",
	codeSessionIdle:    "error.sessionIdle",
}

// RequireLogin はページ用のゲートです。
// 未ログインなら /login?orig_url=<元のURL> へリダイレクトし、ログイン後にそのURLへ戻れるようにします。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, code := m.checkSession(c, true)
		state := Anonymous
		if code == "" {
			state = Authenticated
		}

		decision := Authorize(state, c.Request.URL.RequestURI())
		if decision.Kind == RedirectToLogin {
			m.logger.Debugf("redirect to login path=%s reason=%s", c.Request.URL.Path, code)
			c.Redirect(http.StatusFound, decision.Location)
			c.Abort()
			return
		}

		if state == Authenticated {
			c.Set(ContextUserKey, user)
		}
		c.Next()
	}
}

// RequireAPILogin は API 用のセッション検証ミドルウェアです。リダイレクトせず 401 を返します。
func (m *Manager) RequireAPILogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, code := m.checkSession(c, true)
		if code != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    code,
				"message": locale.Message(locale.FromContext(c), sessionErrorMessages[code]),
			})
			return
		}
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// VerifyCSRF は X-CSRF-Token ヘッダーを検証するミドルウェアです。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		session := sessions.Default(c)
		expected, ok := session.Get(sessionKeyCSRF).(string)
		if !ok || expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_MISSING",
				"message": "CSRF token is not set",
			})
			return
		}

		received := c.GetHeader(csrfHeader)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_INVALID",
				"message": "CSRF token does not match",
			})
			return
		}

		c.Next()
	}
}
