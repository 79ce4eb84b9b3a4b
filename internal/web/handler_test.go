package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/ssr-first/internal/auth"
	"github.com/yourusername/ssr-first/internal/config"
	"github.com/yourusername/ssr-first/internal/locale"
)

type stubUsers struct {
	user *auth.User
}

func (s stubUsers) LookupUser(c *gin.Context) (auth.User, bool) {
	if s.user == nil {
		return auth.User{}, false
	}
	return *s.user, true
}

func newTestConfig() *config.Config {
	return &config.Config{AppTitle: "Leptos SSR First", AppCopyright: "© 2025 test"}
}

func newTestRouter(users UserSource) *gin.Engine {
	return newTestRouterWithConfig(newTestConfig(), users)
}

func newTestRouterWithConfig(cfg *config.Config, users UserSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(cfg, users)

	r := gin.New()
	r.Use(locale.Middleware())
	r.GET("/login", h.Login)
	r.GET("/imprint", h.Imprint)
	r.GET("/privacy", h.Privacy)
	r.GET("/", h.Home)
	r.NoRoute(h.NotFound)
	return r
}

func getPage(t *testing.T, r http.Handler, target, acceptLanguage string) (int, Page) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if acceptLanguage != "" {
		req.Header.Set("Accept-Language", acceptLanguage)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var page Page
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("failed to decode page: %v body=%s", err, rec.Body.String())
	}
	return rec.Code, page
}

func TestLoginPageHeadingFollowsLocale(t *testing.T) {
	r := newTestRouter(stubUsers{})

	tests := []struct {
		header  string
		lang    locale.Locale
		heading string
	}{
		{"de", locale.DE, "Anmelden"},
		{"fr", locale.DE, "Anmelden"},
		{"", locale.DE, "Anmelden"},
		{"en-DE", locale.EN, "Login"},
		{"fr;q=0.9, en;q=0.8", locale.EN, "Login"},
	}
	for _, tt := range tests {
		code, page := getPage(t, r, "/login", tt.header)
		if code != http.StatusOK {
			t.Fatalf("header %q: unexpected status %d", tt.header, code)
		}
		if page.Lang != tt.lang || page.Heading != tt.heading {
			t.Fatalf("header %q: got lang=%s heading=%s", tt.header, page.Lang, page.Heading)
		}
	}
}

func TestLanguageSelectorLabels(t *testing.T) {
	r := newTestRouter(stubUsers{})

	_, de := getPage(t, r, "/imprint", "de")
	_, en := getPage(t, r, "/imprint", "en")

	if de.Navigation.LanguageSelector.Label != "Language" || en.Navigation.LanguageSelector.Label != "Language" {
		t.Fatalf("selector label should stay Language: %q / %q",
			de.Navigation.LanguageSelector.Label, en.Navigation.LanguageSelector.Label)
	}

	labels := func(p Page) map[locale.Locale]string {
		out := map[locale.Locale]string{}
		for _, o := range p.Navigation.LanguageSelector.Options {
			out[o.Value] = o.Label
		}
		return out
	}
	if got := labels(de); got[locale.DE] != "Deutsch" || got[locale.EN] != "Englisch" {
		t.Fatalf("unexpected german labels: %#v", got)
	}
	if got := labels(en); got[locale.DE] != "German" || got[locale.EN] != "English" {
		t.Fatalf("unexpected english labels: %#v", got)
	}

	for _, o := range en.Navigation.LanguageSelector.Options {
		if o.Selected != (o.Value == locale.EN) {
			t.Fatalf("unexpected selection: %#v", o)
		}
		if o.Href != "/lang/"+o.Value.String()+"?redirect=%2Fimprint" {
			t.Fatalf("unexpected href: %s", o.Href)
		}
	}
}

func TestFooterLinks(t *testing.T) {
	r := newTestRouter(stubUsers{})
	_, page := getPage(t, r, "/privacy", "en")

	if page.Heading != "Privacy Declaration" {
		t.Fatalf("unexpected heading: %s", page.Heading)
	}
	if len(page.Footer.Links) != 2 || page.Footer.Links[0].Label != "Imprint" || page.Footer.Links[1].Href != "/privacy" {
		t.Fatalf("unexpected footer: %#v", page.Footer)
	}
	if page.Title != "Leptos SSR First" || page.Footer.Copyright != "© 2025 test" {
		t.Fatalf("unexpected title/copyright: %s / %s", page.Title, page.Footer.Copyright)
	}
}

func TestLoginPageSanitizesOrigURL(t *testing.T) {
	r := newTestRouter(stubUsers{})

	_, page := getPage(t, r, "/login?orig_url=%2Fprivate%3Ftab%3D1", "de")
	if page.Login == nil || page.Login.OrigURL != "/private?tab=1" {
		t.Fatalf("unexpected login form: %#v", page.Login)
	}

	_, page = getPage(t, r, "/login?orig_url=https%3A%2F%2Fevil.example", "de")
	if page.Login.OrigURL != "/" {
		t.Fatalf("foreign orig_url should collapse to /, got %s", page.Login.OrigURL)
	}
	if page.Login.UsernameMaxLength != auth.UsernameMaxLength || page.Login.PasswordMaxLength != auth.PasswordMaxLength {
		t.Fatalf("unexpected limits: %#v", page.Login)
	}
}

func TestHomeShowsLoginInfo(t *testing.T) {
	r := newTestRouter(stubUsers{user: &auth.User{Name: "emu", PreferredLanguage: locale.EN}})

	code, page := getPage(t, r, "/", "de")
	if code != http.StatusOK {
		t.Fatalf("unexpected status: %d", code)
	}
	if !page.Navigation.LoginInfo.LoggedIn || page.Navigation.LoginInfo.Text != "Angemeldet als emu" {
		t.Fatalf("unexpected login info: %#v", page.Navigation.LoginInfo)
	}
	if page.Home == nil || page.Home.PreferredLanguage != "Englisch" {
		t.Fatalf("unexpected home content: %#v", page.Home)
	}
}

func TestAnonymousLoginInfo(t *testing.T) {
	r := newTestRouter(stubUsers{})
	_, page := getPage(t, r, "/imprint", "en")
	if page.Navigation.LoginInfo.LoggedIn || page.Navigation.LoginInfo.Text != "Not logged in" {
		t.Fatalf("unexpected login info: %#v", page.Navigation.LoginInfo)
	}
}

func TestNotFoundPage(t *testing.T) {
	r := newTestRouter(stubUsers{user: &auth.User{Name: "emu"}})
	code, page := getPage(t, r, "/does/not/exist", "en")
	if code != http.StatusNotFound || page.Heading != "Page not found" {
		t.Fatalf("unexpected response: %d %s", code, page.Heading)
	}
}

func writeNotice(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "message_of_the_day.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write notice: %v", err)
	}
	return path
}

func TestNoticeFollowsLocale(t *testing.T) {
	cfg := newTestConfig()
	cfg.MOTDPath = writeNotice(t, `{
		"enabled": true,
		"level": "error",
		"de": {"message": "Wartung heute Nacht", "emphasized": ["heute"]},
		"en": {"message": "Maintenance tonight", "emphasized": ["tonight"]}
	}`)
	r := newTestRouterWithConfig(cfg, stubUsers{})

	_, de := getPage(t, r, "/login", "de")
	if de.Notice == nil || de.Notice.Message != "Wartung heute Nacht" || de.Notice.Level != "error" {
		t.Fatalf("unexpected german notice: %#v", de.Notice)
	}
	_, en := getPage(t, r, "/imprint", "en")
	if en.Notice == nil || en.Notice.Message != "Maintenance tonight" || len(en.Notice.Emphasized) != 1 || en.Notice.Emphasized[0] != "tonight" {
		t.Fatalf("unexpected english notice: %#v", en.Notice)
	}
}

func TestNoticeDisabled(t *testing.T) {
	cfg := newTestConfig()
	cfg.MOTDPath = writeNotice(t, `{"enabled": false, "en": {"message": "hidden"}}`)
	r := newTestRouterWithConfig(cfg, stubUsers{})

	if _, page := getPage(t, r, "/login", "en"); page.Notice != nil {
		t.Fatalf("disabled notice should be omitted: %#v", page.Notice)
	}

	cfg.MOTDPath = filepath.Join(t.TempDir(), "missing.json")
	if _, page := getPage(t, r, "/login", "en"); page.Notice != nil {
		t.Fatalf("missing notice should be omitted: %#v", page.Notice)
	}
}
