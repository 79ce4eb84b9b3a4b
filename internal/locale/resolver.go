package locale

// Override はユーザーが明示的に選んだ言語です。nil は「まだ選択されていない」を表します。
type Override struct {
	Locale Locale
}

// Resolve は表示言語を決定します。
// 2つ目の戻り値は保存すべき Override ですが、ブラウザ設定から推定した場合は保存しないため常に nil です。
func Resolve(override *Override, prefs Preferences) (Locale, *Override) {
	if override != nil && override.Locale.IsSupported() {
		return override.Locale, nil
	}

	for _, pref := range prefs {
		if l, ok := ParseLocale(pref.Base()); ok {
			return l, nil
		}
	}

	return Default, nil
}

// Select は明示的な言語選択を Override に変換します。
// 呼び出し側がクッキーへ保存し、次のリクエストからは Resolve がこの値を優先します。
func Select(l Locale) Override {
	return Override{Locale: l}
}
