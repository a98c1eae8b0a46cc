package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/gradebook/internal/metrics"
	"github.com/hitoshi/gradebook/internal/model"
)

// TokenIssuer はトークン発行のインターフェース。
type TokenIssuer interface {
	Issue(principalID int64, role model.Role, ttl time.Duration) (string, time.Time, error)
}

// AccessToken はログイン成功時に返すトークン。
type AccessToken struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
}

// Service はパスワードログインを提供する。
type Service struct {
	students StudentFinder
	teachers TeacherFinder
	hasher   *PasswordHasher
	tokens   TokenIssuer
	metrics  metrics.MetricsCollector
}

// NewService はServiceを生成する。mcがnilの場合はメトリクスを記録しない。
func NewService(
	students StudentFinder,
	teachers TeacherFinder,
	hasher *PasswordHasher,
	tokens TokenIssuer,
	mc metrics.MetricsCollector,
) *Service {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	return &Service{
		students: students,
		teachers: teachers,
		hasher:   hasher,
		tokens:   tokens,
		metrics:  mc,
	}
}

// LoginStudent は生徒IDとパスワードで認証し、アクセストークンを発行する。
// 生徒が存在しない、パスワード未設定、不一致のいずれもErrInvalidCredentialsを返す。
func (s *Service) LoginStudent(ctx context.Context, studentID int64, password string) (*AccessToken, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		s.metrics.RecordLogin(string(model.RoleStudent), metrics.ResultError)
		return nil, fmt.Errorf("failed to find student: %w", err)
	}
	if student == nil || !s.hasher.Verify(student.PasswordHash, password) {
		s.metrics.RecordLogin(string(model.RoleStudent), metrics.ResultFailure)
		slog.Warn("login failed", slog.String("role", string(model.RoleStudent)), slog.Int64("principal_id", studentID))
		return nil, ErrInvalidCredentials
	}
	return s.issue(student.ID, model.RoleStudent)
}

// LoginTeacher は教員IDとパスワードで認証し、アクセストークンを発行する。
func (s *Service) LoginTeacher(ctx context.Context, teacherID int64, password string) (*AccessToken, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		s.metrics.RecordLogin(string(model.RoleTeacher), metrics.ResultError)
		return nil, fmt.Errorf("failed to find teacher: %w", err)
	}
	if teacher == nil || !s.hasher.Verify(teacher.PasswordHash, password) {
		s.metrics.RecordLogin(string(model.RoleTeacher), metrics.ResultFailure)
		slog.Warn("login failed", slog.String("role", string(model.RoleTeacher)), slog.Int64("principal_id", teacherID))
		return nil, ErrInvalidCredentials
	}
	return s.issue(teacher.ID, model.RoleTeacher)
}

func (s *Service) issue(id int64, role model.Role) (*AccessToken, error) {
	token, expiresAt, err := s.tokens.Issue(id, role, 0)
	if err != nil {
		s.metrics.RecordLogin(string(role), metrics.ResultError)
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	s.metrics.RecordLogin(string(role), metrics.ResultSuccess)
	slog.Info("login succeeded", slog.String("role", string(role)), slog.Int64("principal_id", id))
	return &AccessToken{
		Token:     token,
		TokenType: "bearer",
		ExpiresAt: expiresAt,
	}, nil
}
