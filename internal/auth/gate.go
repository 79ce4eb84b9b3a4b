package auth

import (
	"net/url"
	"strings"
	"unicode"
)

const (
	// LoginPath はログインページのパスです。
	LoginPath = "/login"
	// OrigURLParam はログイン後に戻る元のURLを運ぶクエリパラメーター名です。
	OrigURLParam = "orig_url"

	rootPath = "/"
)

// Session はゲートから見たセッションの状態です。
type Session int

const (
	Anonymous Session = iota
	Authenticated
)

// DecisionKind はゲートの判定結果の種類です。
type DecisionKind int

const (
	Allow DecisionKind = iota
	RedirectToLogin
)

// Decision は Authorize の判定結果です。RedirectToLogin の場合だけ Location が入ります。
type Decision struct {
	Kind     DecisionKind
	Location string
}

// Authorize はリクエストを通すか、ログインページへリダイレクトするかを判定します。
// requested はパスとクエリ（RequestURI）です。ログインページ自体はリダイレクトしません。
func Authorize(s Session, requested string) Decision {
	if s == Authenticated {
		return Decision{Kind: Allow}
	}
	if isLoginPath(requested) {
		return Decision{Kind: Allow}
	}
	return Decision{Kind: RedirectToLogin, Location: LoginURL(requested)}
}

// LoginURL は元のURLを orig_url に載せたログインページのURLを返します。
func LoginURL(orig string) string {
	if orig == "" {
		return LoginPath
	}
	return LoginPath + "?" + OrigURLParam + "=" + url.QueryEscape(orig)
}

// CompleteLogin はログイン成功後のリダイレクト先を返します。
// orig_url が同一オリジンの相対パスとして妥当な場合だけそれを使い、それ以外はルートへ戻します。
// ログインページ自体へは戻しません。
func CompleteLogin(origURL string) string {
	target, ok := localPath(origURL)
	if !ok || isLoginPath(target) {
		return rootPath
	}
	return target
}

// SafeRedirect は同一オリジンの相対パスならそれを、そうでなければルートを返します。
// CompleteLogin と違いログインページ（orig_url 付き）も許可するので、
// ログインページ上での言語切り替え後に元の orig_url を保ったまま戻れます。
func SafeRedirect(target string) string {
	target, ok := localPath(target)
	if !ok {
		return rootPath
	}
	return target
}

func localPath(raw string) (string, bool) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "", false
	}
	// "//host" や "/\host" はブラウザによって別オリジンとして解釈される
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "", false
	}
	if strings.ContainsFunc(target, unicode.IsControl) {
		return "", false
	}

	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" || parsed.User != nil {
		return "", false
	}
	return target, true
}

func isLoginPath(requested string) bool {
	path := requested
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSuffix(path, "/")
	return path == LoginPath
}
