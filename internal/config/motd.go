package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// MOTDLevel はお知らせの重要度です。
type MOTDLevel string

const (
	MOTDInfo  MOTDLevel = "info"
	MOTDWarn  MOTDLevel = "warn"
	MOTDError MOTDLevel = "error"
)

// LocalizedMOTD は1言語分のお知らせ本文です。
type LocalizedMOTD struct {
	Message    string   `json:"message"`
	Emphasized []string `json:"emphasized"`
}

// MessageOfTheDay はサーバーから全ページに表示するお知らせです。
// enabled を省略したファイルは無効扱いになります。
type MessageOfTheDay struct {
	Enabled bool          `json:"enabled"`
	Level   MOTDLevel     `json:"level"`
	DE      LocalizedMOTD `json:"de"`
	EN      LocalizedMOTD `json:"en"`
}

// For は言語コードに対応する本文を返します。未対応の言語なら false です。
func (m *MessageOfTheDay) For(lang string) (LocalizedMOTD, bool) {
	switch lang {
	case "de":
		return m.DE, true
	case "en":
		return m.EN, true
	default:
		return LocalizedMOTD{}, false
	}
}

// LoadMessageOfTheDay は path の JSON を読み込みます。
// ファイルがなければ無効なお知らせを返し、壊れていれば無効なお知らせとエラーを返します。
// キャッシュはしません。
func LoadMessageOfTheDay(path string) (*MessageOfTheDay, error) {
	motd := &MessageOfTheDay{}
	if path == "" {
		return motd, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return motd, nil
		}
		return motd, fmt.Errorf("read message of the day: %w", err)
	}
	if err := json.Unmarshal(data, motd); err != nil {
		return &MessageOfTheDay{}, fmt.Errorf("parse message of the day: %w", err)
	}

	switch motd.Level {
	case MOTDInfo, MOTDWarn, MOTDError:
	default:
		motd.Level = MOTDInfo
	}
	return motd, nil
}
