// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/ssr-first/internal/auth"
	"github.com/yourusername/ssr-first/internal/config"
	"github.com/yourusername/ssr-first/internal/jobs"
	"github.com/yourusername/ssr-first/internal/locale"
	"github.com/yourusername/ssr-first/internal/logging"
	"github.com/yourusername/ssr-first/internal/web"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	logger, closeLog, err := setupLogging(cfg)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer closeLog()

	// 翻訳ファイルが壊れていれば起動しない
	if err := locale.LoadCatalog(); err != nil {
		log.Fatalf("Failed to load messages: %v", err)
	}

	rdb := setupRedis(cfg, logger)
	authManager := auth.NewManager(cfg, authOptions(rdb, logger))

	var maintenance *jobs.Manager
	if cfg.QueueRedisURL != "" {
		maintenance, err = setupJobs(cfg, logger)
		if err != nil {
			log.Fatalf("Failed to set up maintenance jobs: %v", err)
		}
		if err := maintenance.StartWorkers(); err != nil {
			log.Fatalf("Failed to start maintenance workers: %v", err)
		}
	} else {
		logger.Infof("QUEUE_REDIS_URL is not set, maintenance jobs are disabled")
	}

	router := newRouter(cfg, authManager, maintenance)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		// サーバーの起動
		log.Printf("Starting API server on %s (mode: %s)", srv.Addr, cfg.GinMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown failed: %v", err)
	}
	if maintenance != nil {
		if err := maintenance.Shutdown(shutdownCtx); err != nil {
			log.Printf("maintenance shutdown failed: %v", err)
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

// setupLogging は標準出力と（LOG_PATH があれば）日次ログファイルの両方に書き出すロガーを作ります。
// gin のアクセスログと標準 log パッケージも同じ出力先に揃えます。
func setupLogging(cfg *config.Config) (*logging.Logger, func(), error) {
	var out io.Writer = os.Stdout
	closeFn := func() {}

	if cfg.LogPath != "" {
		file, err := logging.OpenDailyFile(cfg.LogPath)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(os.Stdout, file)
		closeFn = func() { _ = file.Close() }
	}

	gin.DefaultWriter = out
	gin.DefaultErrorWriter = out
	log.SetOutput(out)
	return logging.New(out, logging.ParseLevel(cfg.LogLevel)), closeFn, nil
}

// setupRedis は REDIS_URL に接続します。未設定または接続できない場合は nil を返し、メモリ上の実装を使います。
func setupRedis(cfg *config.Config, logger *logging.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		logger.Infof("REDIS_URL is not set, using in-memory login limiter")
		return nil
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Errorf("invalid REDIS_URL: %v", err)
		return nil
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Errorf("redis is unreachable, using in-memory login limiter: %v", err)
		_ = client.Close()
		return nil
	}
	return client
}

func authOptions(rdb *redis.Client, logger *logging.Logger) auth.Options {
	opts := auth.Options{Logger: logger}
	if rdb != nil {
		opts.Limiter = auth.NewRedisLimiter(rdb, auth.DefaultLimitPolicy)
		opts.Preferences = auth.NewPreferenceStore(rdb)
	}
	return opts
}

// newRouter はミドルウェアとルーティングを組み立てます。maintenance が nil ならメンテナンス API は 503 を返します。
func newRouter(cfg *config.Config, authManager *auth.Manager, maintenance *jobs.Manager) *gin.Engine {
	router := gin.New()
	router.Use(requestID(), gin.LoggerWithFormatter(accessLogFormat), gin.Recovery())

	// セッションストアの設定（クッキー署名鍵は必須）
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(authManager.SessionOptions())
	router.Use(sessions.Sessions(auth.SessionCookieName, store))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	// CORS許可オリジンを設定（カンマ区切りの文字列を配列に変換）
	corsConfig.AllowOrigins = splitOrigins(cfg.CORSAllowedOrigins)
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Accept-Language",
		"X-CSRF-Token", // CSRF保護用ヘッダー
		headerRequestID,
	}
	// フロントエンドがレスポンスヘッダーから CSRF トークンを読み取れるように公開
	corsConfig.ExposeHeaders = []string{"X-CSRF-Token", headerRequestID, "Content-Language"}
	router.Use(cors.New(corsConfig))

	// 表示言語はすべてのルートで決める（ログインページへのリダイレクト前も含む）
	router.Use(locale.Middleware())

	setupRoutes(router, cfg, authManager, web.NewHandler(cfg, authManager), maintenance)
	return router
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "ssr-first",
		"version": "0.1.0",
	})
}

// setupRoutes は API グループ・ページ・言語選択の配線を行います。
func setupRoutes(router *gin.Engine, cfg *config.Config, authManager *auth.Manager, pages *web.Handler, maintenance *jobs.Manager) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	langOptions := locale.SelectOptions{
		SecureCookie:   cfg.SecureCookies(),
		OnSelect:       authManager.RememberLanguage,
		RedirectTarget: auth.SafeRedirect,
	}
	router.GET("/lang/:code", locale.SelectRedirectHandler(langOptions))

	api := router.Group("/api")
	{
		api.POST("/lang", locale.SelectHandler(langOptions))

		authRoutes := api.Group("/auth")
		{
			// ログイン時はセッション未生成なので CSRF 検証は不要
			authRoutes.POST("/login", authManager.Login)
			authRoutes.POST("/logout",
				authManager.RequireAPILogin(),
				authManager.VerifyCSRF(),
				authManager.Logout,
			)
			authRoutes.GET("/me", authManager.RequireAPILogin(), authManager.Me)
		}

		protected := api.Group("")
		protected.Use(authManager.RequireAPILogin(), authManager.VerifyCSRF())
		{
			protected.GET("/maintenance/:type", maintenanceStatusHandler(maintenance))
			protected.POST("/maintenance/:type", maintenanceRunHandler(maintenance))
		}
	}

	// ログイン不要のページ
	router.GET(auth.LoginPath, pages.Login)
	router.GET("/imprint", pages.Imprint)
	router.GET("/privacy", pages.Privacy)

	// それ以外のページはすべてログイン必須。未定義のパスもゲートを通してから 404 を返す
	router.GET("/", authManager.RequireLogin(), pages.Home)
	router.NoRoute(apiNotFound, authManager.RequireLogin(), pages.NotFound)
}

// apiNotFound は /api 配下の未定義パスにページではなく JSON の 404 を返します。
func apiNotFound(c *gin.Context) {
	if c.Request.URL.Path == "/api" || strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "endpoint not found",
		})
		return
	}
	c.Next()
}
