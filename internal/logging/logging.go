// Package logging は標準 log パッケージに日次ログファイルとレベル判定を足したものです。
package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// Level はログの重要度です。
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel は設定値をレベルに変換します。未知の値は info とみなします。
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger は最小レベル未満のメッセージを捨てる *log.Logger のラッパーです。
type Logger struct {
	*log.Logger
	level Level
}

// New は Logger を作成します。
func New(w io.Writer, level Level) *Logger {
	return &Logger{
		Logger: log.New(w, "", log.LstdFlags|log.Lmicroseconds),
		level:  level,
	}
}

// Discard は何も出力しない Logger を返します（テスト用）。
func Discard() *Logger {
	return New(io.Discard, LevelError+1)
}

func (l *Logger) logf(level Level, format string, args ...any) {
	if l == nil || level < l.level {
		return
	}
	_ = l.Output(3, fmt.Sprintf("[%s] %s", level, fmt.Sprintf(format, args...)))
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }
