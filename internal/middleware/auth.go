// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/gradebook/internal/auth"
	"github.com/hitoshi/gradebook/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	studentContextKey = contextKey("student")
	teacherContextKey = contextKey("teacher")
)

// StudentResolver はトークンから生徒を解決するインターフェース。
type StudentResolver interface {
	ResolveStudent(ctx context.Context, token string) (*model.Student, error)
}

// TeacherResolver はトークンから教員を解決するインターフェース。
type TeacherResolver interface {
	ResolveTeacher(ctx context.Context, token string) (*model.Teacher, error)
}

// Principal は認証済みプリンシパルのロールとIDを表す。
type Principal struct {
	Role model.Role
	ID   int64
}

// NewStudentAuthMiddleware はAuthorizationヘッダーのベアラートークンから生徒を解決し、
// リクエストコンテキストに注入するミドルウェアを返す。
// 教員トークンや削除済み生徒のトークンは401となる。
func NewStudentAuthMiddleware(resolver StudentResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			student, err := resolver.ResolveStudent(r.Context(), BearerToken(r))
			if err != nil {
				writeAuthFailure(w, err)
				return
			}
			recordPrincipal(r.Context(), Principal{Role: model.RoleStudent, ID: student.ID})
			next.ServeHTTP(w, r.WithContext(ContextWithStudent(r.Context(), student)))
		})
	}
}

// NewTeacherAuthMiddleware は教員ロールのトークンを要求するミドルウェアを返す。
func NewTeacherAuthMiddleware(resolver TeacherResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			teacher, err := resolver.ResolveTeacher(r.Context(), BearerToken(r))
			if err != nil {
				writeAuthFailure(w, err)
				return
			}
			recordPrincipal(r.Context(), Principal{Role: model.RoleTeacher, ID: teacher.ID})
			next.ServeHTTP(w, r.WithContext(ContextWithTeacher(r.Context(), teacher)))
		})
	}
}

// BearerToken はAuthorizationヘッダーからベアラートークンを取り出す。
// スキーム名は大文字小文字を区別しない。該当しない場合は空文字を返す。
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// writeAuthFailure は認証失敗の内訳を隠して401を返す。
// ストレージ障害は認証失敗と区別して500とする。
// NewOptionalTeacherAuthMiddleware はAuthorizationヘッダーがある場合のみ教員を解決するミドルウェアを返す。
// ヘッダーがなければ未認証のまま通過させ、判断はハンドラー側に委ねる。
// ヘッダーがあって解決できない場合は401とする。
func NewOptionalTeacherAuthMiddleware(resolver TeacherResolver) func(next http.Handler) http.Handler {
	required := NewTeacherAuthMiddleware(resolver)
	return func(next http.Handler) http.Handler {
		withTeacher := required(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			withTeacher.ServeHTTP(w, r)
		})
	}
}

func writeAuthFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, auth.ErrInvalidCredentials) {
		WriteUnauthorized(w)
		return
	}
	slog.Error("failed to resolve principal", slog.String("error", err.Error()))
	WriteInternalServerError(w)
}

// StudentFromContext はリクエストコンテキストから生徒を取得する。
// 生徒認証ミドルウェアを通過したリクエストでのみ有効。
func StudentFromContext(ctx context.Context) (*model.Student, bool) {
	s, ok := ctx.Value(studentContextKey).(*model.Student)
	return s, ok && s != nil
}

// TeacherFromContext はリクエストコンテキストから教員を取得する。
func TeacherFromContext(ctx context.Context) (*model.Teacher, bool) {
	t, ok := ctx.Value(teacherContextKey).(*model.Teacher)
	return t, ok && t != nil
}

// PrincipalFromContext は認証済みプリンシパルのロールとIDを返す。
// 未認証の場合はfalseを返す。
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if s, ok := StudentFromContext(ctx); ok {
		return Principal{Role: model.RoleStudent, ID: s.ID}, true
	}
	if t, ok := TeacherFromContext(ctx); ok {
		return Principal{Role: model.RoleTeacher, ID: t.ID}, true
	}
	return Principal{}, false
}

// ContextWithStudent はコンテキストに生徒を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithStudent(ctx context.Context, s *model.Student) context.Context {
	return context.WithValue(ctx, studentContextKey, s)
}

// ContextWithTeacher はコンテキストに教員を注入する。
func ContextWithTeacher(ctx context.Context, t *model.Teacher) context.Context {
	return context.WithValue(ctx, teacherContextKey, t)
}
