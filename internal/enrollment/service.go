// Package enrollment は履修登録と成績管理のドメインロジックを提供する。
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/hitoshi/gradebook/internal/auth"
	"github.com/hitoshi/gradebook/internal/metrics"
	"github.com/hitoshi/gradebook/internal/model"
	"github.com/hitoshi/gradebook/internal/repository"
)

// DefaultMaxGradeLength は成績文字列の最大文字数のデフォルト値。
const DefaultMaxGradeLength = 16

// TextCleaner は自由入力テキストの正規化を行うインターフェース。
// security.TextSanitizerが実装する。
type TextCleaner interface {
	CleanPtr(raw *string) *string
}

// RosterEntry はクラス名簿の1行。成績変更の対象指定に使う履修IDを含む。
type RosterEntry struct {
	EnrollmentID int64
	StudentID    int64
	FirstName    string
	LastName     string
	Email        string
	Grade        *string
}

// ClassWithGrade は生徒から見た履修クラスと成績。
type ClassWithGrade struct {
	SectionID    int64
	SectionName  string
	CourseTitle  string
	TeacherName  string
	TeacherEmail string
	Grade        *string
}

// Config は履修サービスの設定。
type Config struct {
	MaxGradeLength int
}

// Service は履修登録のサービス層。
// 登録時の参照整合性と一意性、成績変更時の担当教員チェックを担う。
type Service struct {
	enrollments repository.EnrollmentRepository
	students    repository.StudentRepository
	sections    repository.SectionRepository
	courses     repository.CourseRepository
	teachers    repository.TeacherRepository
	cleaner     TextCleaner
	metrics     metrics.MetricsCollector
	config      Config
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	enrollments repository.EnrollmentRepository,
	students repository.StudentRepository,
	sections repository.SectionRepository,
	courses repository.CourseRepository,
	teachers repository.TeacherRepository,
	cleaner TextCleaner,
	mc metrics.MetricsCollector,
	config Config,
) *Service {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	if config.MaxGradeLength <= 0 {
		config.MaxGradeLength = DefaultMaxGradeLength
	}
	return &Service{
		enrollments: enrollments,
		students:    students,
		sections:    sections,
		courses:     courses,
		teachers:    teachers,
		cleaner:     cleaner,
		metrics:     mc,
		config:      config,
	}
}

// Enroll は生徒をクラスに登録する。成績は未設定で作成される。
// 生徒・クラスの存在チェック、既存登録チェックの順に行い、最初の失敗で終了する。
// 同時実行で既存登録チェックをすり抜けた場合もDBの一意制約により重複エラーとなる。
func (s *Service) Enroll(ctx context.Context, studentID, sectionID int64) (*model.Enrollment, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		s.metrics.RecordEnrollment(metrics.ResultError)
		return nil, fmt.Errorf("failed to find student: %w", err)
	}
	if student == nil {
		s.metrics.RecordEnrollment(metrics.ResultNotFound)
		return nil, model.NewNotFoundError(model.EntityStudent, studentID)
	}

	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		s.metrics.RecordEnrollment(metrics.ResultError)
		return nil, fmt.Errorf("failed to find section: %w", err)
	}
	if section == nil {
		s.metrics.RecordEnrollment(metrics.ResultNotFound)
		return nil, model.NewNotFoundError(model.EntitySection, sectionID)
	}

	existing, err := s.enrollments.FindByStudentAndSection(ctx, studentID, sectionID)
	if err != nil {
		s.metrics.RecordEnrollment(metrics.ResultError)
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}
	if existing != nil {
		s.metrics.RecordEnrollment(metrics.ResultDuplicate)
		return nil, model.NewDuplicateEnrollmentError(studentID, sectionID)
	}

	e := &model.Enrollment{
		StudentID: studentID,
		SectionID: sectionID,
	}
	if err := s.enrollments.Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.RecordEnrollment(metrics.ResultDuplicate)
			return nil, model.NewDuplicateEnrollmentError(studentID, sectionID)
		}
		s.metrics.RecordEnrollment(metrics.ResultError)
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	s.metrics.RecordEnrollment(metrics.ResultSuccess)
	slog.Info("student enrolled",
		slog.Int64("enrollment_id", e.ID),
		slog.Int64("student_id", studentID),
		slog.Int64("section_id", sectionID),
	)
	return e, nil
}

// Unenroll は履修を削除する。
func (s *Service) Unenroll(ctx context.Context, enrollmentID int64) error {
	e, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		return fmt.Errorf("failed to find enrollment: %w", err)
	}
	if e == nil {
		return model.NewNotFoundError(model.EntityEnrollment, enrollmentID)
	}

	if err := s.enrollments.DeleteByID(ctx, enrollmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError(model.EntityEnrollment, enrollmentID)
		}
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}

	slog.Info("student unenrolled",
		slog.Int64("enrollment_id", enrollmentID),
		slog.Int64("student_id", e.StudentID),
		slog.Int64("section_id", e.SectionID),
	)
	return nil
}

// ListSectionsForStudent は生徒が履修しているクラスの一覧を返す。
// 履修がない場合は空スライスを返す。
func (s *Service) ListSectionsForStudent(ctx context.Context, studentID int64) ([]*model.Section, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}

	enrollments, err := s.enrollments.ListByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return []*model.Section{}, nil
	}

	ids := make([]int64, len(enrollments))
	for i, e := range enrollments {
		ids[i] = e.SectionID
	}
	sections, err := s.sections.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sections: %w", err)
	}
	if sections == nil {
		sections = []*model.Section{}
	}
	return sections, nil
}

// ListStudentsForSection はクラスに登録されている生徒の一覧を返す。
// 登録がない場合は空スライスを返す。
func (s *Service) ListStudentsForSection(ctx context.Context, sectionID int64) ([]*model.Student, error) {
	if _, err := s.requireSection(ctx, sectionID); err != nil {
		return nil, err
	}

	enrollments, err := s.enrollments.ListBySectionID(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return []*model.Student{}, nil
	}

	ids := make([]int64, len(enrollments))
	for i, e := range enrollments {
		ids[i] = e.StudentID
	}
	students, err := s.students.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve students: %w", err)
	}
	if students == nil {
		students = []*model.Student{}
	}
	return students, nil
}

// RosterWithGrades はクラスの名簿を履修IDと成績付きで返す。
// 履修1件につき1行で、生徒を解決できない履修は読み飛ばす。
func (s *Service) RosterWithGrades(ctx context.Context, sectionID int64) ([]RosterEntry, error) {
	if _, err := s.requireSection(ctx, sectionID); err != nil {
		return nil, err
	}

	enrollments, err := s.enrollments.ListBySectionID(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	roster := make([]RosterEntry, 0, len(enrollments))
	if len(enrollments) == 0 {
		return roster, nil
	}

	ids := make([]int64, len(enrollments))
	for i, e := range enrollments {
		ids[i] = e.StudentID
	}
	students, err := s.students.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve students: %w", err)
	}
	byID := make(map[int64]*model.Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}

	for _, e := range enrollments {
		st, ok := byID[e.StudentID]
		if !ok {
			slog.Warn("skipping orphaned enrollment",
				slog.Int64("enrollment_id", e.ID),
				slog.Int64("student_id", e.StudentID),
			)
			continue
		}
		roster = append(roster, RosterEntry{
			EnrollmentID: e.ID,
			StudentID:    st.ID,
			FirstName:    st.FirstName,
			LastName:     st.LastName,
			Email:        st.Email,
			Grade:        e.Grade,
		})
	}
	return roster, nil
}

// ClassesWithGrades は生徒の履修クラスを科目名・担当教員・成績付きで返す。
// クラス、科目、教員のいずれかを解決できない履修はエラーにせず読み飛ばす。
// 履修がない場合は空スライスを返す。
func (s *Service) ClassesWithGrades(ctx context.Context, studentID int64) ([]ClassWithGrade, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}

	enrollments, err := s.enrollments.ListByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	classes := make([]ClassWithGrade, 0, len(enrollments))
	if len(enrollments) == 0 {
		return classes, nil
	}

	sectionIDs := make([]int64, len(enrollments))
	for i, e := range enrollments {
		sectionIDs[i] = e.SectionID
	}
	sections, err := s.sections.FindByIDs(ctx, sectionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sections: %w", err)
	}

	sectionByID := make(map[int64]*model.Section, len(sections))
	var courseIDs, teacherIDs []int64
	for _, sec := range sections {
		sectionByID[sec.ID] = sec
		courseIDs = append(courseIDs, sec.CourseID)
		teacherIDs = append(teacherIDs, sec.TeacherID)
	}

	courses, err := s.courses.FindByIDs(ctx, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve courses: %w", err)
	}
	courseByID := make(map[int64]*model.Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}

	teachers, err := s.teachers.FindByIDs(ctx, teacherIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve teachers: %w", err)
	}
	teacherByID := make(map[int64]*model.Teacher, len(teachers))
	for _, t := range teachers {
		teacherByID[t.ID] = t
	}

	for _, e := range enrollments {
		sec, ok := sectionByID[e.SectionID]
		if !ok {
			slog.Warn("skipping enrollment with missing section",
				slog.Int64("enrollment_id", e.ID),
				slog.Int64("section_id", e.SectionID),
			)
			continue
		}
		course, courseOK := courseByID[sec.CourseID]
		teacher, teacherOK := teacherByID[sec.TeacherID]
		if !courseOK || !teacherOK {
			slog.Warn("skipping enrollment with missing course or teacher",
				slog.Int64("enrollment_id", e.ID),
				slog.Int64("course_id", sec.CourseID),
				slog.Int64("teacher_id", sec.TeacherID),
			)
			continue
		}

		classes = append(classes, ClassWithGrade{
			SectionID:    sec.ID,
			SectionName:  sec.Name,
			CourseTitle:  course.Title,
			TeacherName:  teacher.FullName(),
			TeacherEmail: teacher.Email,
			Grade:        e.Grade,
		})
	}
	return classes, nil
}

// UpdateGrade は履修の成績を上書きする。gradeがnilまたは空の場合は成績を削除する。
// クラスの担当教員以外からの変更はFORBIDDENとなり、成績は変更されない。
func (s *Service) UpdateGrade(ctx context.Context, enrollmentID int64, grade *string, teacher *model.Teacher) (*model.Enrollment, error) {
	e, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		s.metrics.RecordGradeUpdate(metrics.ResultError)
		return nil, fmt.Errorf("failed to find enrollment: %w", err)
	}
	if e == nil {
		s.metrics.RecordGradeUpdate(metrics.ResultNotFound)
		return nil, model.NewNotFoundError(model.EntityEnrollment, enrollmentID)
	}

	section, err := s.sections.FindByID(ctx, e.SectionID)
	if err != nil {
		s.metrics.RecordGradeUpdate(metrics.ResultError)
		return nil, fmt.Errorf("failed to find section: %w", err)
	}
	if section == nil {
		s.metrics.RecordGradeUpdate(metrics.ResultNotFound)
		return nil, model.NewNotFoundError(model.EntitySection, e.SectionID)
	}

	if err := auth.AuthorizeGradeChange(teacher, section); err != nil {
		s.metrics.RecordGradeUpdate(metrics.ResultForbidden)
		attrs := []any{slog.Int64("enrollment_id", enrollmentID), slog.Int64("section_id", section.ID)}
		if teacher != nil {
			attrs = append(attrs, slog.Int64("teacher_id", teacher.ID))
		}
		slog.Warn("grade change denied", attrs...)
		return nil, err
	}

	cleaned := s.cleaner.CleanPtr(grade)
	if cleaned != nil && utf8.RuneCountInString(*cleaned) > s.config.MaxGradeLength {
		s.metrics.RecordGradeUpdate(metrics.ResultFailure)
		return nil, model.NewInvalidGradeError(s.config.MaxGradeLength)
	}

	if err := s.enrollments.UpdateGrade(ctx, enrollmentID, cleaned); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordGradeUpdate(metrics.ResultNotFound)
			return nil, model.NewNotFoundError(model.EntityEnrollment, enrollmentID)
		}
		s.metrics.RecordGradeUpdate(metrics.ResultError)
		return nil, fmt.Errorf("failed to update grade: %w", err)
	}

	e.Grade = cleaned
	s.metrics.RecordGradeUpdate(metrics.ResultSuccess)
	slog.Info("grade updated",
		slog.Int64("enrollment_id", enrollmentID),
		slog.Int64("section_id", section.ID),
		slog.Int64("teacher_id", teacher.ID),
	)
	return e, nil
}

func (s *Service) requireStudent(ctx context.Context, studentID int64) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("failed to find student: %w", err)
	}
	if student == nil {
		return model.NewNotFoundError(model.EntityStudent, studentID)
	}
	return nil
}

func (s *Service) requireSection(ctx context.Context, sectionID int64) (*model.Section, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find section: %w", err)
	}
	if section == nil {
		return nil, model.NewNotFoundError(model.EntitySection, sectionID)
	}
	return section, nil
}
