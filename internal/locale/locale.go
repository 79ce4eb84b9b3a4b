// Package locale は表示言語の決定を扱います。
//
// 言語はリクエストごとに次の順で決まります。
//  1. 明示的に選択された言語（lang クッキー）
//  2. Accept-Language の優先度順で最初に一致した言語（地域サブタグは無視）
//  3. 既定言語 (de)
package locale

import "strings"

// Locale はUIが表示できる言語コードです。
type Locale string

const (
	DE Locale = "de"
	EN Locale = "en"
)

// Default は一致する言語がない場合に使う既定言語です。
const Default = DE

// セレクターの表示順を兼ねる
var supported = []Locale{EN, DE}

// Supported は対応言語の一覧を返します。
func Supported() []Locale {
	out := make([]Locale, len(supported))
	copy(out, supported)
	return out
}

// IsSupported は対応言語かどうかを返します。
func (l Locale) IsSupported() bool {
	for _, s := range supported {
		if l == s {
			return true
		}
	}
	return false
}

func (l Locale) String() string {
	return string(l)
}

// ParseLocale は言語コードを対応言語に変換します。大文字小文字と前後の空白は無視します。
func ParseLocale(code string) (Locale, bool) {
	l := Locale(strings.ToLower(strings.TrimSpace(code)))
	if !l.IsSupported() {
		return "", false
	}
	return l, true
}
