package locale

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Preference は Accept-Language の1エントリです。
type Preference struct {
	Tag     language.Tag
	Raw     string // ヘッダーに書かれていたままのタグ
	Quality float64
}

// qvalue は RFC 7231 の qvalue 文法です（0〜1、小数点以下3桁まで）。
var qvalue = regexp.MustCompile(`^(?:0(?:\.[0-9]{0,3})?|1(?:\.0{0,3})?)$`)

// Base はヘッダーに書かれた主言語サブタグを小文字で返します（en-DE なら en）。
// 正規化はしないため、deu や eng は de や en とは一致しません。
func (p Preference) Base() string {
	end := strings.IndexAny(p.Raw, "-_")
	if end < 0 {
		end = len(p.Raw)
	}
	return strings.ToLower(p.Raw[:end])
}

// Preferences は品質値の降順に並んだ言語設定です。同じ品質値ならヘッダーでの順序を保ちます。
type Preferences []Preference

// ParsePreferences は Accept-Language ヘッダーを解析します。
// 解析できないエントリは読み飛ばし、q=0 のエントリは「受け付けない」として除外します。
func ParsePreferences(header string) Preferences {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}

	entries := strings.Split(header, ",")
	prefs := make(Preferences, 0, len(entries))
	for _, entry := range entries {
		pref, ok := parseEntry(entry)
		if !ok {
			continue
		}
		prefs = append(prefs, pref)
	}

	sort.SliceStable(prefs, func(i, j int) bool {
		return prefs[i].Quality > prefs[j].Quality
	})
	return prefs
}

func parseEntry(entry string) (Preference, bool) {
	parts := strings.Split(entry, ";")
	rawTag := strings.TrimSpace(parts[0])
	if rawTag == "" || rawTag == "*" {
		return Preference{}, false
	}

	tag, err := language.Parse(rawTag)
	if err != nil {
		return Preference{}, false
	}

	quality := 1.0
	for _, param := range parts[1:] {
		key, value, found := strings.Cut(strings.TrimSpace(param), "=")
		if !found || !strings.EqualFold(strings.TrimSpace(key), "q") {
			continue
		}
		value = strings.TrimSpace(value)
		if !qvalue.MatchString(value) {
			return Preference{}, false
		}
		q, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return Preference{}, false
		}
		quality = q
	}
	if quality == 0 {
		return Preference{}, false
	}

	return Preference{Tag: tag, Raw: rawTag, Quality: quality}, true
}
