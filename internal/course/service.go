// Package course は科目とクラスの管理を提供する。
package course

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/gradebook/internal/auth"
	"github.com/hitoshi/gradebook/internal/model"
	"github.com/hitoshi/gradebook/internal/repository"
)

// TextCleaner は科目名などの自由入力テキストを正規化するインターフェース。
type TextCleaner interface {
	Clean(raw string) string
	CleanPtr(raw *string) *string
}

// CreateCourseInput は科目作成の入力。
type CreateCourseInput struct {
	Title       string
	Description *string
}

// CreateSectionInput はクラス作成の入力。
type CreateSectionInput struct {
	Name      string
	Capacity  *int
	CourseID  int64
	TeacherID int64
}

// UpdateSectionInput はクラスの部分更新の入力。nilの項目は変更しない。
type UpdateSectionInput struct {
	Name      *string
	Capacity  *int
	CourseID  *int64
	TeacherID *int64
}

// Service は科目・クラス管理のサービス層。
type Service struct {
	courses  repository.CourseRepository
	sections repository.SectionRepository
	teachers repository.TeacherRepository
	cleaner  TextCleaner
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	courses repository.CourseRepository,
	sections repository.SectionRepository,
	teachers repository.TeacherRepository,
	cleaner TextCleaner,
) *Service {
	return &Service{
		courses:  courses,
		sections: sections,
		teachers: teachers,
		cleaner:  cleaner,
	}
}

// ListCourses は全科目を返す。
func (s *Service) ListCourses(ctx context.Context) ([]*model.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("科目一覧の取得に失敗しました: %w", err)
	}
	if courses == nil {
		courses = []*model.Course{}
	}
	return courses, nil
}

// GetCourse は指定IDの科目を返す。
func (s *Service) GetCourse(ctx context.Context, id int64) (*model.Course, error) {
	c, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("科目の取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewNotFoundError(model.EntityCourse, id)
	}
	return c, nil
}

// CreateCourse は科目を作成する。
func (s *Service) CreateCourse(ctx context.Context, in CreateCourseInput) (*model.Course, error) {
	c := &model.Course{
		Title:       s.cleaner.Clean(in.Title),
		Description: s.cleaner.CleanPtr(in.Description),
	}
	if c.Title == "" {
		return nil, model.NewInvalidRequestError("title is required")
	}
	if err := s.courses.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("科目の作成に失敗しました: %w", err)
	}
	slog.Info("course created", slog.Int64("course_id", c.ID))
	return c, nil
}

// ListSections はクラス一覧を返す。filterのnilでない項目で絞り込む。
func (s *Service) ListSections(ctx context.Context, filter repository.SectionFilter) ([]*model.Section, error) {
	sections, err := s.sections.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("クラス一覧の取得に失敗しました: %w", err)
	}
	if sections == nil {
		sections = []*model.Section{}
	}
	return sections, nil
}

// GetSection は指定IDのクラスを返す。
func (s *Service) GetSection(ctx context.Context, id int64) (*model.Section, error) {
	sec, err := s.sections.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("クラスの取得に失敗しました: %w", err)
	}
	if sec == nil {
		return nil, model.NewNotFoundError(model.EntitySection, id)
	}
	return sec, nil
}

// CreateSection はクラスを作成する。科目、教員の順に存在を確認する。
func (s *Service) CreateSection(ctx context.Context, in CreateSectionInput) (*model.Section, error) {
	sec := &model.Section{
		Name:      s.cleaner.Clean(in.Name),
		Capacity:  in.Capacity,
		CourseID:  in.CourseID,
		TeacherID: in.TeacherID,
	}
	if err := validateSection(sec); err != nil {
		return nil, err
	}
	if err := s.requireCourse(ctx, sec.CourseID); err != nil {
		return nil, err
	}
	if err := s.requireTeacher(ctx, sec.TeacherID); err != nil {
		return nil, err
	}

	if err := s.sections.Create(ctx, sec); err != nil {
		return nil, fmt.Errorf("クラスの作成に失敗しました: %w", err)
	}
	slog.Info("section created",
		slog.Int64("section_id", sec.ID),
		slog.Int64("course_id", sec.CourseID),
		slog.Int64("teacher_id", sec.TeacherID),
	)
	return sec, nil
}

// UpdateSection は指定された項目だけを更新する。
// 更新できるのはクラスの担当教員のみ。担当教員の変更は以後の成績変更権限の移譲を意味する。
func (s *Service) UpdateSection(ctx context.Context, id int64, in UpdateSectionInput, actor *model.Teacher) (*model.Section, error) {
	sec, err := s.GetSection(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeSectionChange(actor, sec); err != nil {
		logSectionDenied(sec, actor, "update")
		return nil, err
	}

	if in.Name != nil {
		sec.Name = s.cleaner.Clean(*in.Name)
	}
	if in.Capacity != nil {
		capacity := *in.Capacity
		sec.Capacity = &capacity
	}
	if in.CourseID != nil && *in.CourseID != sec.CourseID {
		if err := s.requireCourse(ctx, *in.CourseID); err != nil {
			return nil, err
		}
		sec.CourseID = *in.CourseID
	}
	if in.TeacherID != nil && *in.TeacherID != sec.TeacherID {
		if err := s.requireTeacher(ctx, *in.TeacherID); err != nil {
			return nil, err
		}
		slog.Info("section teacher reassigned",
			slog.Int64("section_id", sec.ID),
			slog.Int64("from_teacher_id", sec.TeacherID),
			slog.Int64("to_teacher_id", *in.TeacherID),
		)
		sec.TeacherID = *in.TeacherID
	}
	if err := validateSection(sec); err != nil {
		return nil, err
	}

	if err := s.sections.Update(ctx, sec); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError(model.EntitySection, id)
		}
		return nil, fmt.Errorf("クラスの更新に失敗しました: %w", err)
	}
	return sec, nil
}

// DeleteSection はクラスを削除する。履修はCASCADE削除される。
// 削除できるのはクラスの担当教員のみ。
func (s *Service) DeleteSection(ctx context.Context, id int64, actor *model.Teacher) error {
	sec, err := s.GetSection(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.AuthorizeSectionChange(actor, sec); err != nil {
		logSectionDenied(sec, actor, "delete")
		return err
	}
	if err := s.sections.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError(model.EntitySection, id)
		}
		return fmt.Errorf("クラスの削除に失敗しました: %w", err)
	}
	slog.Info("section deleted", slog.Int64("section_id", id))
	return nil
}

func logSectionDenied(sec *model.Section, actor *model.Teacher, op string) {
	attrs := []any{slog.String("op", op), slog.Int64("section_id", sec.ID), slog.Int64("owner_id", sec.TeacherID)}
	if actor != nil {
		attrs = append(attrs, slog.Int64("teacher_id", actor.ID))
	}
	slog.Warn("section change denied", attrs...)
}

func (s *Service) requireCourse(ctx context.Context, id int64) error {
	_, err := s.GetCourse(ctx, id)
	return err
}

func (s *Service) requireTeacher(ctx context.Context, id int64) error {
	t, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("教員の取得に失敗しました: %w", err)
	}
	if t == nil {
		return model.NewNotFoundError(model.EntityTeacher, id)
	}
	return nil
}

func validateSection(sec *model.Section) error {
	if sec.Name == "" {
		return model.NewInvalidRequestError("name is required")
	}
	if sec.Capacity != nil && *sec.Capacity < 0 {
		return model.NewInvalidRequestError("capacity must not be negative")
	}
	return nil
}
