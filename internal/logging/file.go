package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

const fileDateLayout = "2006-01-02"

var logFilePattern = regexp.MustCompile(`^log-(\d{4}-\d{2}-\d{2})\.txt$`)

// FileName は日付 t のログファイル名を返します（log-2025-01-31.txt）。
func FileName(t time.Time) string {
	return "log-" + t.UTC().Format(fileDateLayout) + ".txt"
}

// DailyFile は日付が変わるたびに新しいファイルへ切り替える io.Writer です。
type DailyFile struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

// OpenDailyFile はディレクトリ dir に当日のログファイルを開きます。
func OpenDailyFile(dir string) (*DailyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	d := &DailyFile{dir: dir, now: time.Now}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rotateLocked(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rotateLocked(); err != nil {
		return 0, err
	}
	return d.file.Write(p)
}

// Close は現在のファイルを閉じます。
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	d.day = ""
	return err
}

func (d *DailyFile) rotateLocked() error {
	now := d.now()
	day := now.UTC().Format(fileDateLayout)
	if d.file != nil && d.day == day {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(d.dir, FileName(now)), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file = f
	d.day = day
	return nil
}

// RemoveOutdated は keepDays 日より古いログファイルを削除し、削除した件数を返します。
// 命名規則に合わないファイルには触れません。
func RemoveOutdated(dir string, keepDays int, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read log dir: %w", err)
	}

	today := now.UTC().Truncate(24 * time.Hour)
	cutoff := today.AddDate(0, 0, -keepDays)

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := logFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		day, err := time.Parse(fileDateLayout, m[1])
		if err != nil {
			continue
		}
		if !day.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}
