// Package student は生徒の管理とパスワード再発行のドメインロジックを提供する。
package student

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/gradebook/internal/auth"
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

// CreateInput は生徒作成の入力。Passwordはnilの場合ログイン不可の生徒となる。
type CreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  *string
}

// UpdateInput は生徒の部分更新の入力。nilの項目は変更しない。
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// ResetResult はパスワード再発行の結果。NewPasswordは一度だけ呼び出し元に返される。
type ResetResult struct {
	StudentID   int64
	NewPassword string
}

// Service は生徒管理のサービス層。
type Service struct {
	repo     repository.StudentRepository
	hasher   PasswordHasher
	cleaner  TextCleaner
	generate func() (string, error)
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.StudentRepository, hasher PasswordHasher, cleaner TextCleaner) *Service {
	return &Service{
		repo:     repo,
		hasher:   hasher,
		cleaner:  cleaner,
		generate: auth.GenerateTempPassword,
	}
}

// List は全生徒を返す。
func (s *Service) List(ctx context.Context) ([]*model.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("生徒一覧の取得に失敗しました: %w", err)
	}
	if students == nil {
		students = []*model.Student{}
	}
	return students, nil
}

// Get は指定IDの生徒を返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("生徒の取得に失敗しました: %w", err)
	}
	if student == nil {
		return nil, model.NewNotFoundError(model.EntityStudent, id)
	}
	return student, nil
}

// Create は生徒を作成する。パスワードが指定された場合はハッシュ化して保存する。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Student, error) {
	student := &model.Student{
		FirstName: s.cleaner.Clean(in.FirstName),
		LastName:  s.cleaner.Clean(in.LastName),
		Email:     in.Email,
	}
	if err := validate(student); err != nil {
		return nil, err
	}

	if in.Password != nil {
		if *in.Password == "" {
			return nil, model.NewInvalidRequestError("password must not be empty")
		}
		digest, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
		}
		student.PasswordHash = &digest
	}

	if err := s.repo.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("生徒の作成に失敗しました: %w", err)
	}

	slog.Info("student created", slog.Int64("student_id", student.ID))
	return student, nil
}

// Update は指定された項目だけを更新する。
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*model.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		student.FirstName = s.cleaner.Clean(*in.FirstName)
	}
	if in.LastName != nil {
		student.LastName = s.cleaner.Clean(*in.LastName)
	}
	if in.Email != nil {
		student.Email = *in.Email
	}
	if err := validate(student); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError(model.EntityStudent, id)
		}
		return nil, fmt.Errorf("生徒の更新に失敗しました: %w", err)
	}
	return student, nil
}

// Delete は生徒を削除する。履修はCASCADE削除される。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError(model.EntityStudent, id)
		}
		return fmt.Errorf("生徒の削除に失敗しました: %w", err)
	}
	slog.Info("student deleted", slog.Int64("student_id", id))
	return nil
}

// ResetPassword は一時パスワードを発行し、そのハッシュで既存のハッシュを置き換える。
// 平文の一時パスワードは戻り値としてのみ返し、ログには出力しない。
func (s *Service) ResetPassword(ctx context.Context, id int64) (*ResetResult, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	password, err := s.generate()
	if err != nil {
		return nil, err
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, id, digest); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError(model.EntityStudent, id)
		}
		return nil, fmt.Errorf("パスワードの更新に失敗しました: %w", err)
	}

	slog.Info("student password reset", slog.Int64("student_id", id))
	return &ResetResult{StudentID: id, NewPassword: password}, nil
}

func validate(st *model.Student) error {
	if st.FirstName == "" || st.LastName == "" {
		return model.NewInvalidRequestError("first_name and last_name are required")
	}
	if !model.ValidEmail(st.Email) {
		return model.NewInvalidRequestError("email is invalid")
	}
	return nil
}
