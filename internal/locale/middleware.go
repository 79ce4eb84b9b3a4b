package locale

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// CookieName は明示的に選択された言語を保存するクッキー名です。
	CookieName = "lang"

	// ContextKey は決定した表示言語を gin.Context に保存するキーです。
	ContextKey = "locale.active"

	headerAcceptLanguage = "Accept-Language"
	cookieMaxAge         = 365 * 24 * 60 * 60
)

// OverrideFrom はクッキーから Override を読み出します。
// 未知の言語コードは未選択として扱います。
func OverrideFrom(c *gin.Context) *Override {
	value, err := c.Cookie(CookieName)
	if err != nil {
		return nil
	}
	l, ok := ParseLocale(value)
	if !ok {
		return nil
	}
	return &Override{Locale: l}
}

// Persist は Override をクッキーに書き込みます。
// ページ側のセレクターからも読めるよう HttpOnly は付けません。
func Persist(c *gin.Context, o Override, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, string(o.Locale), cookieMaxAge, "/", "", secure, false)
}

// Middleware はリクエストごとに表示言語を決定し、gin.Context に保存します。
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		active, _ := Resolve(OverrideFrom(c), ParsePreferences(c.GetHeader(headerAcceptLanguage)))
		setActive(c, active)
		// CORS などが先に付けた Vary を消さないよう追記する
		c.Writer.Header().Add("Vary", headerAcceptLanguage)
		c.Writer.Header().Add("Vary", "Cookie")
		c.Next()
	}
}

// FromContext は Middleware が決定した表示言語を返します。未設定なら既定言語です。
func FromContext(c *gin.Context) Locale {
	if v, ok := c.Get(ContextKey); ok {
		if l, ok := v.(Locale); ok {
			return l
		}
	}
	return Default
}

func setActive(c *gin.Context, l Locale) {
	c.Set(ContextKey, l)
	c.Header("Content-Language", string(l))
}
