// Package teacher は教員の管理を提供する。
package teacher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/gradebook/internal/model"
	"github.com/hitoshi/gradebook/internal/repository"
)

// TextCleaner は氏名などの自由入力テキストを正規化するインターフェース。
type TextCleaner interface {
	Clean(raw string) string
}

// PasswordHasher はパスワードのハッシュ化インターフェース。
type PasswordHasher interface {
	Hash(secret string) (string, error)
}

// CreateInput は教員作成の入力。Passwordはnilの場合ログイン不可の教員となる。
type CreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Subject   model.Subject
	Password  *string
}

// Service は教員管理のサービス層。
type Service struct {
	repo     repository.TeacherRepository
	sections repository.SectionRepository
	hasher   PasswordHasher
	cleaner  TextCleaner
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.TeacherRepository,
	sections repository.SectionRepository,
	hasher PasswordHasher,
	cleaner TextCleaner,
) *Service {
	return &Service{
		repo:     repo,
		sections: sections,
		hasher:   hasher,
		cleaner:  cleaner,
	}
}

// List は全教員を返す。
func (s *Service) List(ctx context.Context) ([]*model.Teacher, error) {
	teachers, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("教員一覧の取得に失敗しました: %w", err)
	}
	if teachers == nil {
		teachers = []*model.Teacher{}
	}
	return teachers, nil
}

// Get は指定IDの教員を返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Teacher, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("教員の取得に失敗しました: %w", err)
	}
	if t == nil {
		return nil, model.NewNotFoundError(model.EntityTeacher, id)
	}
	return t, nil
}

// Create は教員を作成する。
// 教員が1人もいない場合に限りactorなしで作成でき、以後は教員による作成のみ受け付ける。
func (s *Service) Create(ctx context.Context, in CreateInput, actor *model.Teacher) (*model.Teacher, error) {
	if actor == nil {
		existing, err := s.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("教員一覧の取得に失敗しました: %w", err)
		}
		if len(existing) > 0 {
			return nil, model.NewUnauthorizedError()
		}
	}

	t := &model.Teacher{
		FirstName: s.cleaner.Clean(in.FirstName),
		LastName:  s.cleaner.Clean(in.LastName),
		Email:     in.Email,
		Subject:   in.Subject,
	}
	if t.FirstName == "" || t.LastName == "" {
		return nil, model.NewInvalidRequestError("first_name and last_name are required")
	}
	if !model.ValidEmail(t.Email) {
		return nil, model.NewInvalidRequestError("email is invalid")
	}
	if !t.Subject.Valid() {
		return nil, model.NewInvalidRequestError("subject must be one of Math, English, Social Sciences, PE")
	}

	if in.Password != nil {
		if *in.Password == "" {
			return nil, model.NewInvalidRequestError("password must not be empty")
		}
		digest, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
		}
		t.PasswordHash = &digest
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("教員の作成に失敗しました: %w", err)
	}

	attrs := []any{slog.Int64("teacher_id", t.ID), slog.String("subject", string(t.Subject))}
	if actor != nil {
		attrs = append(attrs, slog.Int64("created_by", actor.ID))
	} else {
		attrs = append(attrs, slog.Bool("bootstrap", true))
	}
	slog.Info("teacher created", attrs...)
	return t, nil
}

// ListSections は教員が担当するクラスの一覧を返す。
func (s *Service) ListSections(ctx context.Context, teacherID int64) ([]*model.Section, error) {
	sections, err := s.sections.List(ctx, repository.SectionFilter{TeacherID: &teacherID})
	if err != nil {
		return nil, fmt.Errorf("担当クラスの取得に失敗しました: %w", err)
	}
	if sections == nil {
		sections = []*model.Section{}
	}
	return sections, nil
}
