package web

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/ssr-first/internal/auth"
	"github.com/yourusername/ssr-first/internal/config"
	"github.com/yourusername/ssr-first/internal/locale"
)

// UserSource はリクエストからログイン中のユーザーを取り出します。*auth.Manager が満たします。
type UserSource interface {
	LookupUser(c *gin.Context) (auth.User, bool)
}

// Handler はページモデルを返すハンドラー群です。
type Handler struct {
	cfg   *config.Config
	users UserSource
}

// NewHandler は Handler を作成します。
func NewHandler(cfg *config.Config, users UserSource) *Handler {
	return &Handler{cfg: cfg, users: users}
}

// Login は GET /login のハンドラーです。orig_url は検証してからフォームに引き継ぎます。
func (h *Handler) Login(c *gin.Context) {
	page, active, _ := h.page(c, "page.login")
	page.Login = &LoginForm{
		Action:            "/api/auth/login",
		OrigURL:           auth.CompleteLogin(c.Query(auth.OrigURLParam)),
		UsernameLabel:     locale.Message(active, "login.username"),
		PasswordLabel:     locale.Message(active, "login.password"),
		SubmitLabel:       locale.Message(active, "login.submit"),
		UsernameMaxLength: auth.UsernameMaxLength,
		PasswordMaxLength: auth.PasswordMaxLength,
	}
	c.JSON(http.StatusOK, page)
}

// Imprint は GET /imprint のハンドラーです。
func (h *Handler) Imprint(c *gin.Context) {
	page, _, _ := h.page(c, "page.imprint")
	c.JSON(http.StatusOK, page)
}

// Privacy は GET /privacy のハンドラーです。
func (h *Handler) Privacy(c *gin.Context) {
	page, _, _ := h.page(c, "page.privacy")
	c.JSON(http.StatusOK, page)
}

// Home は GET / のハンドラーです（ログイン必須）。
func (h *Handler) Home(c *gin.Context) {
	page, active, user := h.page(c, "page.home")
	home := &HomeContent{PreferredLabel: locale.Message(active, "home.preferred")}
	if user.PreferredLanguage != "" {
		home.PreferredLanguage = locale.DisplayName(user.PreferredLanguage, active)
	}
	page.Home = home
	c.JSON(http.StatusOK, page)
}

// NotFound は未定義のパスに対するハンドラーです。認証ゲートの後ろで使います。
func (h *Handler) NotFound(c *gin.Context) {
	page, _, _ := h.page(c, "page.notFound")
	c.JSON(http.StatusNotFound, page)
}

func (h *Handler) page(c *gin.Context, headingKey string) (Page, locale.Locale, auth.User) {
	active := locale.FromContext(c)

	info := LoginInfo{Text: locale.Message(active, "nav.notLoggedIn")}
	user, ok := h.users.LookupUser(c)
	if ok {
		info = LoginInfo{
			LoggedIn: true,
			User:     user.Name,
			Text:     locale.Messagef(active, "nav.loggedInAs", user.Name),
		}
	}

	return Page{
		Lang:    active,
		Title:   h.cfg.AppTitle,
		Heading: locale.Message(active, headingKey),
		Navigation: Navigation{
			Brand:            h.cfg.AppTitle,
			LanguageSelector: languageSelector(active, c.Request.URL.RequestURI()),
			LoginInfo:        info,
		},
		Footer: footer(active, h.cfg.AppCopyright),
		Notice: h.notice(active),
	}, active, user
}

// notice はお知らせを表示言語で選びます。無効・未設定・本文が空なら nil です。
func (h *Handler) notice(active locale.Locale) *Notice {
	motd, err := config.LoadMessageOfTheDay(h.cfg.MOTDPath)
	if err != nil {
		log.Printf("message of the day unavailable: %v", err)
	}
	if motd == nil || !motd.Enabled {
		return nil
	}
	text, ok := motd.For(active.String())
	if !ok || text.Message == "" {
		return nil
	}
	return &Notice{
		Level:      string(motd.Level),
		Message:    text.Message,
		Emphasized: text.Emphasized,
	}
}
