// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// アプリケーション設定
	AppUsername     string // ログイン用ユーザー名
	AppPasswordHash string // bcryptでハッシュ化されたパスワード
	AppTitle        string // ページタイトルとナビゲーションのブランド名
	AppCopyright    string // フッターに表示する著作権表記
	SessionSecret   string // セッション署名用の秘密鍵
	MOTDPath        string // 全ページに表示するお知らせのJSONファイル

	// セッション設定
	SessionMaxLifetime time.Duration // ログインからの最大有効期間
	SessionIdleTimeout time.Duration // 無操作でセッションを破棄するまでの時間

	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// Redis設定
	RedisURL      string // 言語設定とログイン試行回数の保存先（空ならメモリのみ）
	QueueRedisURL string // Asynq用Redis接続URL（空ならメンテナンスジョブを起動しない）

	// ログ設定
	LogPath        string // 日次ログファイルの出力ディレクトリ（空なら標準出力のみ）
	LogLevel       string // debug, info, warn, error
	LogDaysToKeep  int    // ログファイルを保持する日数
	LogCleanupCron string // 古いログファイルを削除するジョブのcron式
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{
		// アプリケーション設定
		AppUsername:     getEnv("APP_USERNAME", ""),
		AppPasswordHash: getEnv("APP_PASSWORD_HASH", ""),
		AppTitle:        getEnv("APP_TITLE", "Leptos SSR First"),
		AppCopyright:    getEnv("APP_COPYRIGHT", "© 2025 ssr-first"),
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		MOTDPath:        getEnv("MOTD_PATH", "config/message_of_the_day.json"),

		// セッション設定
		SessionMaxLifetime: time.Duration(getEnvAsInt("SESSION_MAX_LIFETIME_MINUTES", 12*60)) * time.Minute,
		SessionIdleTimeout: time.Duration(getEnvAsInt("SESSION_IDLE_MINUTES", 30)) * time.Minute,

		// サーバー設定
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),

		// Redis設定
		RedisURL:      getEnv("REDIS_URL", ""),
		QueueRedisURL: getEnv("QUEUE_REDIS_URL", ""),

		// ログ設定
		LogPath:        getEnv("LOG_PATH", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogDaysToKeep:  getEnvAsInt("LOG_DAYS_TO_KEEP", 14),
		LogCleanupCron: getEnv("LOG_CLEANUP_CRON", "5 0 * * *"),
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	if c.SessionMaxLifetime <= 0 {
		return fmt.Errorf("SESSION_MAX_LIFETIME_MINUTES must be positive")
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_MINUTES must be positive")
	}
	if c.LogDaysToKeep < 1 {
		return fmt.Errorf("LOG_DAYS_TO_KEEP must be at least 1")
	}

	// ローカル開発では認証設定は任意
	if c.GinMode == "release" {
		if c.AppUsername == "" {
			return fmt.Errorf("APP_USERNAME is required in release mode")
		}
		if c.AppPasswordHash == "" {
			return fmt.Errorf("APP_PASSWORD_HASH is required in release mode")
		}
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
	}

	return nil
}

// SecureCookies はクッキーに Secure 属性を付けるべきかを返します。
func (c *Config) SecureCookies() bool {
	return c.GinMode == "release"
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
