package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/gradebook/internal/metrics"
	"github.com/hitoshi/gradebook/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	Gatherer          prometheus.Gatherer
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	StudentResolver   middleware.StudentResolver
	TeacherResolver   middleware.TeacherResolver

	// ヘルスチェック
	DB Pinger

	// 認証
	AuthService AuthServiceInterface

	// 生徒・教員
	StudentService StudentServiceInterface
	TeacherService TeacherServiceInterface

	// 科目・クラス
	CourseService CourseServiceInterface

	// 履修
	EnrollmentService EnrollmentServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	共通:       RequestID → Logging → Recovery → Metrics → CORS → SecurityHeaders
//	ログイン:   RateLimit(Login)
//	認証不要:   RateLimit(General)
//	認証必須:   (StudentAuth | TeacherAuth) → RateLimit(General)
//	教員作成:   OptionalTeacherAuth → RateLimit(General)
//
// 認証必須のルートではプリンシパル単位でレート制限するため、認証を先に行う。
// そのため有効なトークンでは制限判定の前に1回のプリンシパル取得が発生する。
// 不正なトークンはストレージに触れずに401となる。
// データを変更するルートはすべて教員トークンを要求する。
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mc := deps.Metrics
	if mc == nil {
		mc = metrics.NopCollector{}
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewMetricsMiddleware(mc))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	healthHandler := NewHealthHandler(deps.DB)
	authHandler := NewAuthHandler(deps.AuthService)
	studentHandler := NewStudentHandler(deps.StudentService)
	teacherHandler := NewTeacherHandler(deps.TeacherService)
	courseHandler := NewCourseHandler(deps.CourseService)
	enrollmentHandler := NewEnrollmentHandler(deps.EnrollmentService)

	// --- 運用エンドポイント ---
	r.Get("/health", healthHandler.Health)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- ログイン ---
	// ミドルウェアスタック: RateLimit(Login)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.LoginMiddleware())

		r.Post("/auth/login", authHandler.StudentLogin)
		r.Post("/auth/teacher-login", authHandler.TeacherLogin)
	})

	// --- 認証不要のルート（参照のみ） ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/students", studentHandler.ListStudents)
		r.Get("/students/{id}", studentHandler.GetStudent)

		r.Get("/teachers", teacherHandler.ListTeachers)
		r.Get("/teachers/{id}", teacherHandler.GetTeacher)

		r.Get("/courses", courseHandler.ListCourses)
		r.Get("/courses/{id}", courseHandler.GetCourse)

		r.Get("/sections", courseHandler.ListSections)
		r.Get("/sections/{id}", courseHandler.GetSection)

		r.Get("/enrollments/student/{id}", enrollmentHandler.ListForStudent)
		r.Get("/enrollments/section/{id}", enrollmentHandler.ListForSection)
	})

	// --- 教員作成 ---
	// 最初の教員だけはトークンなしで作成できる。判定はサービス層で行う。
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalTeacherAuthMiddleware(deps.TeacherResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/teachers", teacherHandler.CreateTeacher)
	})

	// --- 生徒トークンが必要なルート ---
	// ミドルウェアスタック: StudentAuth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewStudentAuthMiddleware(deps.StudentResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/students/me", studentHandler.Me)
		r.Get("/students/me/classes-with-grades", enrollmentHandler.MyClasses)
		r.Post("/students/me/enrollments", enrollmentHandler.EnrollSelf)
	})

	// --- 教員トークンが必要なルート ---
	// ミドルウェアスタック: TeacherAuth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewTeacherAuthMiddleware(deps.TeacherResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/teachers/me", teacherHandler.Me)
		r.Get("/teachers/me/sections", teacherHandler.MySections)

		r.Post("/students", studentHandler.CreateStudent)
		r.Patch("/students/{id}", studentHandler.UpdateStudent)
		r.Delete("/students/{id}", studentHandler.DeleteStudent)

		r.Post("/courses", courseHandler.CreateCourse)

		// 更新・削除は担当教員本人に限る（サービス層で判定）
		r.Post("/sections", courseHandler.CreateSection)
		r.Patch("/sections/{id}", courseHandler.UpdateSection)
		r.Delete("/sections/{id}", courseHandler.DeleteSection)

		r.Post("/enrollments", enrollmentHandler.Enroll)
		r.Delete("/enrollments/{id}", enrollmentHandler.Unenroll)
		r.Put("/enrollments/{id}/grade", enrollmentHandler.UpdateGrade)

		r.Get("/sections/{id}/roster", enrollmentHandler.Roster)
		r.Get("/students/{id}/classes-with-grades", enrollmentHandler.StudentClasses)
		r.Post("/students/{id}/reset-password", studentHandler.ResetPassword)
	})

	return r
}
