// Package app はアプリケーションの初期化と起動モードの切り替えを提供する。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/gradebook/internal/auth"
	"github.com/hitoshi/gradebook/internal/config"
	"github.com/hitoshi/gradebook/internal/course"
	"github.com/hitoshi/gradebook/internal/database"
	"github.com/hitoshi/gradebook/internal/enrollment"
	"github.com/hitoshi/gradebook/internal/handler"
	"github.com/hitoshi/gradebook/internal/logger"
	"github.com/hitoshi/gradebook/internal/metrics"
	"github.com/hitoshi/gradebook/internal/middleware"
	"github.com/hitoshi/gradebook/internal/repository"
	"github.com/hitoshi/gradebook/internal/security"
	"github.com/hitoshi/gradebook/internal/student"
	"github.com/hitoshi/gradebook/internal/teacher"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.Ping(context.Background(), db, 5*time.Second); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version == 0 || dirty {
		slog.Warn("database schema is not ready, run the migrate command",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
	}

	// 2. メトリクスレジストリ
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 3. 依存関係のワイヤリング
	router, rateLimiter, err := buildRouter(cfg, db, reg)
	if err != nil {
		return err
	}
	defer rateLimiter.Stop()

	// 4. HTTPサーバーの起動
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildRouter はリポジトリ・サービス・ハンドラーを組み立ててルーターを返す。
// 返されたRateLimiterは呼び出し側でStopすること。
func buildRouter(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) (http.Handler, *middleware.RateLimiter, error) {
	// 1. リポジトリの初期化
	studentRepo := repository.NewPostgresStudentRepo(db)
	teacherRepo := repository.NewPostgresTeacherRepo(db)
	courseRepo := repository.NewPostgresCourseRepo(db)
	sectionRepo := repository.NewPostgresSectionRepo(db)
	enrollmentRepo := repository.NewPostgresEnrollmentRepo(db)

	// 2. 横断的な部品
	collector := metrics.NewCollector(reg)
	sanitizer := security.NewTextSanitizer()
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	tokens, err := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create token service: %w", err)
	}

	// 3. ドメインサービスの初期化
	authService := auth.NewService(studentRepo, teacherRepo, hasher, tokens, collector)
	resolver := auth.NewResolver(tokens, studentRepo, teacherRepo)

	studentService := student.NewService(studentRepo, hasher, sanitizer)
	teacherService := teacher.NewService(teacherRepo, sectionRepo, hasher, sanitizer)
	courseService := course.NewService(courseRepo, sectionRepo, teacherRepo, sanitizer)
	enrollmentService := enrollment.NewService(
		enrollmentRepo, studentRepo, sectionRepo, courseRepo, teacherRepo,
		sanitizer, collector,
		enrollment.Config{MaxGradeLength: cfg.GradeMaxLength},
	)

	// 4. ルーターの構築（req/min -> rate.Limit に変換）
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     middleware.PerMinute(cfg.RateLimitGeneral),
		GeneralBurst:    cfg.RateLimitGeneral,
		LoginRate:       middleware.PerMinute(cfg.RateLimitLogin),
		LoginBurst:      cfg.RateLimitLogin,
		CleanupInterval: middleware.DefaultRateLimiterConfig().CleanupInterval,
	})

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		Metrics:           collector,
		Gatherer:          reg,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		StudentResolver:   resolver,
		TeacherResolver:   resolver,

		DB: db,

		AuthService: authService,

		StudentService: studentService,
		TeacherService: teacherService,
		CourseService:  courseService,

		EnrollmentService: handler.NewEnrollmentServiceAdapter(enrollmentService),
	}

	return handler.NewRouter(deps), rateLimiter, nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解析できないURLは全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
