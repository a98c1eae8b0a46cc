package auth

import (
	"context"
	"fmt"

	"github.com/hitoshi/gradebook/internal/model"
)

// TokenVerifier はトークン検証のインターフェース。
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// StudentFinder は生徒の取得に必要なインターフェース。
// repository.StudentRepositoryの部分集合として定義する。
type StudentFinder interface {
	FindByID(ctx context.Context, id int64) (*model.Student, error)
}

// TeacherFinder は教員の取得に必要なインターフェース。
// repository.TeacherRepositoryの部分集合として定義する。
type TeacherFinder interface {
	FindByID(ctx context.Context, id int64) (*model.Teacher, error)
}

// Resolver はベアラートークンから現存するプリンシパルを解決する。
type Resolver struct {
	tokens   TokenVerifier
	students StudentFinder
	teachers TeacherFinder
}

// NewResolver はResolverを生成する。
func NewResolver(tokens TokenVerifier, students StudentFinder, teachers TeacherFinder) *Resolver {
	return &Resolver{
		tokens:   tokens,
		students: students,
		teachers: teachers,
	}
}

// ResolveStudent は生徒ロールのトークンから生徒を取得する。
// ロールが一致しない場合はDBを参照せずに拒否する。
// トークン発行後に削除された生徒はErrInvalidCredentialsとなる。
func (r *Resolver) ResolveStudent(ctx context.Context, token string) (*model.Student, error) {
	id, err := r.verifyRole(token, model.RoleStudent)
	if err != nil {
		return nil, err
	}

	student, err := r.students.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve student: %w", err)
	}
	if student == nil {
		return nil, ErrInvalidCredentials
	}
	return student, nil
}

// ResolveTeacher は教員ロールのトークンから教員を取得する。
func (r *Resolver) ResolveTeacher(ctx context.Context, token string) (*model.Teacher, error) {
	id, err := r.verifyRole(token, model.RoleTeacher)
	if err != nil {
		return nil, err
	}

	teacher, err := r.teachers.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve teacher: %w", err)
	}
	if teacher == nil {
		return nil, ErrInvalidCredentials
	}
	return teacher, nil
}

func (r *Resolver) verifyRole(token string, want model.Role) (int64, error) {
	if token == "" {
		return 0, ErrInvalidCredentials
	}
	ident, err := r.tokens.Verify(token)
	if err != nil {
		return 0, ErrInvalidCredentials
	}
	if ident.Role != want {
		return 0, ErrInvalidCredentials
	}
	return ident.PrincipalID, nil
}
