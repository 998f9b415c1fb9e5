package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/taskapi/internal/auth"
	"github.com/hitoshi/taskapi/internal/config"
	"github.com/hitoshi/taskapi/internal/database"
	"github.com/hitoshi/taskapi/internal/handler"
	"github.com/hitoshi/taskapi/internal/logger"
	"github.com/hitoshi/taskapi/internal/metrics"
	"github.com/hitoshi/taskapi/internal/middleware"
	"github.com/hitoshi/taskapi/internal/repository"
	"github.com/hitoshi/taskapi/internal/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再初期化する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	if cmd == CommandHelp {
		printUsage(w)
		return nil
	}

	// healthcheck はロガーを初期化せず、ポートを知るために設定だけ読む
	if cmd == CommandHealthcheck {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return runHealthcheck(cfg.ServerPort)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("log_level", cfg.LogLevel),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開いてスキーマを作成し、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	src, err := database.ParseURL(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	// 1. DB接続（起動直後のDBに備えてリトライする）
	db, err := database.Open(src, cfg.DBMaxOpenConns)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.WaitForConnection(ctx, db, cfg.DBConnectRetries); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// 2. スキーマ作成（既存テーブルには何もしない）
	if err := database.RunMigrations(src); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	slog.Info("database connection established",
		slog.String("dialect", string(src.Dialect)),
	)

	// 3. ルーターの構築
	router, cleanup := newRouter(cfg, db)
	defer cleanup()

	// 4. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// newRouter はリポジトリ・サービス・メトリクスをワイヤリングしたルーターを返す。
// 返されるcleanupでバックグラウンド処理を停止する。
func newRouter(cfg *config.Config, db *sql.DB) (http.Handler, func()) {
	// メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "taskapi"),
	)
	collector := metrics.NewCollector(reg)

	// リポジトリ
	userRepo := repository.NewSQLUserRepo(db)
	taskRepo := repository.NewSQLTaskRepo(db)
	healthRepo := repository.NewSQLHealthRepo(db)

	// ドメインサービス
	authService := auth.NewService(userRepo, collector)
	taskService := task.NewService(taskRepo, collector)

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Metrics:           collector,
		MetricsGatherer:   reg,

		AuthService:   authService,
		TaskService:   taskService,
		HealthChecker: healthRepo,
	}

	cleanup := func() {}
	if cfg.RateLimitAuth > 0 {
		limiter := middleware.NewRateLimiter(middleware.PerMinuteRateLimiterConfig(cfg.RateLimitAuth))
		deps.AuthRateLimiter = limiter
		cleanup = limiter.Stop
	}

	return handler.NewRouter(deps), cleanup
}

// runMigrate はスキーマ作成だけを行い終了する。
func runMigrate(cfg *config.Config) error {
	src, err := database.ParseURL(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	slog.Info("running database migrations",
		slog.String("dialect", string(src.Dialect)),
	)

	if err := database.RunMigrations(src); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
