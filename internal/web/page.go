// Package web はページごとの表示モデルを組み立てます。
// テンプレートは持たず、モデルを JSON で返してフロントエンドが描画します。
package web

import (
	"net/url"

	"github.com/yourusername/ssr-first/internal/locale"
)

// Option は言語セレクターの選択肢です。
type Option struct {
	Value    locale.Locale `json:"value"`
	Label    string        `json:"label"`
	Href     string        `json:"href"` // JavaScript なしで選択するためのリンク
	Selected bool          `json:"selected"`
}

// LanguageSelector はナビゲーションの言語セレクターです。
type LanguageSelector struct {
	Label   string   `json:"label"`
	Options []Option `json:"options"`
}

// LoginInfo はナビゲーションに出すログイン状態です。
type LoginInfo struct {
	LoggedIn bool   `json:"loggedIn"`
	User     string `json:"user,omitempty"`
	Text     string `json:"text"`
}

// Navigation はページ上部のナビゲーションです。
type Navigation struct {
	Brand            string           `json:"brand"`
	LanguageSelector LanguageSelector `json:"languageSelector"`
	LoginInfo        LoginInfo        `json:"loginInfo"`
}

// Link はフッターのリンクです。
type Link struct {
	Href  string `json:"href"`
	Label string `json:"label"`
}

// Footer はページ下部のフッターです。
type Footer struct {
	Links     []Link `json:"links"`
	Copyright string `json:"copyright"`
}

// LoginForm はログインページのフォームです。
type LoginForm struct {
	Action            string `json:"action"`
	OrigURL           string `json:"origUrl"`
	UsernameLabel     string `json:"usernameLabel"`
	PasswordLabel     string `json:"passwordLabel"`
	SubmitLabel       string `json:"submitLabel"`
	UsernameMaxLength int    `json:"usernameMaxLength"`
	PasswordMaxLength int    `json:"passwordMaxLength"`
}

// HomeContent はトップページの本文です。
type HomeContent struct {
	PreferredLabel    string `json:"preferredLabel"`
	PreferredLanguage string `json:"preferredLanguage,omitempty"`
}

// Notice はサーバーからのお知らせを表示言語で選んだものです。
type Notice struct {
	Level      string   `json:"level"`
	Message    string   `json:"message"`
	Emphasized []string `json:"emphasized,omitempty"`
}

// Page は1ページ分の表示モデルです。
type Page struct {
	Lang       locale.Locale `json:"lang"`
	Title      string        `json:"title"`
	Heading    string        `json:"heading"`
	Navigation Navigation    `json:"navigation"`
	Footer     Footer        `json:"footer"`
	Notice     *Notice       `json:"notice,omitempty"`
	Login      *LoginForm    `json:"login,omitempty"`
	Home       *HomeContent  `json:"home,omitempty"`
}

// languageSelector は表示言語 active で各言語の名前を並べます。
// ラベルはどの言語でも "Language" のままです。
func languageSelector(active locale.Locale, current string) LanguageSelector {
	options := make([]Option, 0, len(locale.Supported()))
	for _, l := range locale.Supported() {
		options = append(options, Option{
			Value:    l,
			Label:    locale.DisplayName(l, active),
			Href:     "/lang/" + l.String() + "?redirect=" + url.QueryEscape(current),
			Selected: l == active,
		})
	}
	return LanguageSelector{
		Label:   locale.Message(active, "nav.language"),
		Options: options,
	}
}

func footer(active locale.Locale, copyright string) Footer {
	return Footer{
		Links: []Link{
			{Href: "/imprint", Label: locale.Message(active, "page.imprint")},
			{Href: "/privacy", Label: locale.Message(active, "page.privacy")},
		},
		Copyright: copyright,
	}
}
