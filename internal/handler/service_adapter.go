package handler

import (
	"context"

	"github.com/hitoshi/gradebook/internal/enrollment"
	"github.com/hitoshi/gradebook/internal/model"
)

// EnrollmentServiceAdapter は enrollment.Service を EnrollmentServiceInterface に適合させるアダプタ。
type EnrollmentServiceAdapter struct {
	svc *enrollment.Service
}

// NewEnrollmentServiceAdapter はEnrollmentServiceAdapterを生成する。
func NewEnrollmentServiceAdapter(svc *enrollment.Service) *EnrollmentServiceAdapter {
	return &EnrollmentServiceAdapter{svc: svc}
}

// Enroll は生徒をクラスに登録する。
func (a *EnrollmentServiceAdapter) Enroll(ctx context.Context, studentID, sectionID int64) (*model.Enrollment, error) {
	return a.svc.Enroll(ctx, studentID, sectionID)
}

// Unenroll は履修を削除する。
func (a *EnrollmentServiceAdapter) Unenroll(ctx context.Context, enrollmentID int64) error {
	return a.svc.Unenroll(ctx, enrollmentID)
}

// ListSectionsForStudent は生徒の履修クラス一覧を返す。
func (a *EnrollmentServiceAdapter) ListSectionsForStudent(ctx context.Context, studentID int64) ([]*model.Section, error) {
	return a.svc.ListSectionsForStudent(ctx, studentID)
}

// ListStudentsForSection はクラスの登録生徒一覧を返す。
func (a *EnrollmentServiceAdapter) ListStudentsForSection(ctx context.Context, sectionID int64) ([]*model.Student, error) {
	return a.svc.ListStudentsForSection(ctx, sectionID)
}

// RosterWithGrades はクラス名簿をhandlerレスポンス型で返す。
func (a *EnrollmentServiceAdapter) RosterWithGrades(ctx context.Context, sectionID int64) ([]rosterEntryResponse, error) {
	entries, err := a.svc.RosterWithGrades(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	results := make([]rosterEntryResponse, len(entries))
	for i, e := range entries {
		results[i] = toRosterEntryResponse(e)
	}
	return results, nil
}

// ClassesWithGrades は生徒の履修クラスと成績をhandlerレスポンス型で返す。
func (a *EnrollmentServiceAdapter) ClassesWithGrades(ctx context.Context, studentID int64) ([]classWithGradeResponse, error) {
	classes, err := a.svc.ClassesWithGrades(ctx, studentID)
	if err != nil {
		return nil, err
	}

	results := make([]classWithGradeResponse, len(classes))
	for i, c := range classes {
		results[i] = toClassWithGradeResponse(c)
	}
	return results, nil
}

// UpdateGrade は履修の成績を更新する。
func (a *EnrollmentServiceAdapter) UpdateGrade(ctx context.Context, enrollmentID int64, grade *string, teacher *model.Teacher) (*model.Enrollment, error) {
	return a.svc.UpdateGrade(ctx, enrollmentID, grade, teacher)
}

// toRosterEntryResponse はドメインのRosterEntryをhandlerのレスポンス型に変換する。
func toRosterEntryResponse(e enrollment.RosterEntry) rosterEntryResponse {
	return rosterEntryResponse{
		StudentID:    e.StudentID,
		EnrollmentID: e.EnrollmentID,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		Email:        e.Email,
		Grade:        e.Grade,
	}
}

// toClassWithGradeResponse はドメインのClassWithGradeをhandlerのレスポンス型に変換する。
func toClassWithGradeResponse(c enrollment.ClassWithGrade) classWithGradeResponse {
	return classWithGradeResponse{
		CourseTitle:  c.CourseTitle,
		SectionName:  c.SectionName,
		SectionID:    c.SectionID,
		TeacherName:  c.TeacherName,
		TeacherEmail: c.TeacherEmail,
		Grade:        c.Grade,
	}
}
