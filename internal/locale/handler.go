package locale

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SelectOptions は言語選択ハンドラーの設定です。
type SelectOptions struct {
	// SecureCookie はクッキーに Secure 属性を付けるかどうかです。
	SecureCookie bool
	// OnSelect は選択後に呼ばれます（ログイン中ならユーザー設定にも保存するなど）。
	// クッキーへの保存は済んでいるため、ここでの失敗はレスポンスに影響させません。
	OnSelect func(c *gin.Context, l Locale)
	// RedirectTarget は GET での選択後のリダイレクト先を検証します。nil なら常に "/" へ戻します。
	RedirectTarget func(raw string) string
}

type selectRequest struct {
	Lang string `json:"lang" form:"lang"`
}

// SelectHandler は POST /api/lang のハンドラーを返します。
func SelectHandler(opts SelectOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req selectRequest
		if err := c.ShouldBind(&req); err != nil {
			invalidLanguage(c)
			return
		}

		l, ok := ParseLocale(req.Lang)
		if !ok {
			invalidLanguage(c)
			return
		}

		applySelection(c, l, opts)
		c.JSON(http.StatusOK, gin.H{"lang": l})
	}
}

// SelectRedirectHandler は GET /lang/:code のハンドラーを返します。
// JavaScript を使わないセレクター向けに、選択後 redirect パラメーターのページへ戻します。
func SelectRedirectHandler(opts SelectOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		l, ok := ParseLocale(c.Param("code"))
		if !ok {
			invalidLanguage(c)
			return
		}

		applySelection(c, l, opts)

		target := "/"
		if opts.RedirectTarget != nil {
			target = opts.RedirectTarget(c.Query("redirect"))
		}
		c.Redirect(http.StatusSeeOther, target)
	}
}

func applySelection(c *gin.Context, l Locale, opts SelectOptions) {
	Persist(c, Select(l), opts.SecureCookie)
	// このレスポンス自体も選択した言語で返す
	setActive(c, l)

	if opts.OnSelect != nil {
		opts.OnSelect(c, l)
	}
}

func invalidLanguage(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    "INVALID_LANGUAGE",
		"message": Message(FromContext(c), "error.invalidLanguage"),
	})
}
