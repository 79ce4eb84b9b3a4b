package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

//go:embed messages/*.json
var messageFS embed.FS

var (
	catalogOnce sync.Once
	printers    map[Locale]*message.Printer
	catalogErr  error
)

// Tag は言語に対応する BCP 47 タグを返します。
func (l Locale) Tag() language.Tag {
	switch l {
	case DE:
		return language.German
	case EN:
		return language.English
	default:
		return language.Make(string(l))
	}
}

// LoadCatalog は埋め込みの翻訳ファイルを x/text の catalog に登録します。
// 起動時に呼んでおくと壊れたファイルを早期に検出できます。
func LoadCatalog() error {
	catalogOnce.Do(func() {
		printers, catalogErr = buildPrinters()
	})
	return catalogErr
}

func buildPrinters() (map[Locale]*message.Printer, error) {
	files := make(map[Locale]map[string]string, len(supported))
	for _, l := range supported {
		data, err := messageFS.ReadFile("messages/" + string(l) + ".json")
		if err != nil {
			return nil, fmt.Errorf("read messages for %s: %w", l, err)
		}
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse messages for %s: %w", l, err)
		}
		files[l] = m
	}

	builder := catalog.NewBuilder(catalog.Fallback(Default.Tag()))
	for _, l := range supported {
		// 翻訳が欠けているキーは既定言語の文言で埋める
		for key, msg := range files[Default] {
			if _, ok := files[l][key]; !ok {
				if err := builder.SetString(l.Tag(), key, msg); err != nil {
					return nil, fmt.Errorf("register %s/%s: %w", l, key, err)
				}
			}
		}
		for key, msg := range files[l] {
			if err := builder.SetString(l.Tag(), key, msg); err != nil {
				return nil, fmt.Errorf("register %s/%s: %w", l, key, err)
			}
		}
	}

	out := make(map[Locale]*message.Printer, len(supported))
	for _, l := range supported {
		out[l] = message.NewPrinter(l.Tag(), message.Catalog(builder))
	}
	return out, nil
}

func printer(l Locale) *message.Printer {
	if err := LoadCatalog(); err != nil {
		return nil
	}
	if p, ok := printers[l]; ok {
		return p
	}
	return printers[Default]
}

// Message は言語 l の翻訳を返します。見つからなければ既定言語、それもなければキーそのものを返します。
func Message(l Locale, key string) string {
	return Messagef(l, key)
}

// Messagef は書式付きの翻訳を返します。
func Messagef(l Locale, key string, args ...any) string {
	p := printer(l)
	if p == nil {
		return key
	}
	return p.Sprintf(key, args...)
}

// DisplayName は言語 of を言語 in で表した名前を返します（DisplayName(EN, DE) == "Englisch"）。
func DisplayName(of, in Locale) string {
	return Message(in, "language."+string(of))
}
